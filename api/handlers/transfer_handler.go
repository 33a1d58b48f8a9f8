package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/mediaget-go/internal/app"
	"github.com/yourusername/mediaget-go/internal/domain"
	"go.uber.org/zap"
)

// TransferHandler handles transfer-related HTTP requests. Transfers run
// synchronously, one at a time.
type TransferHandler struct {
	manager  *app.TransferManager
	template domain.TransferRequest
	baseDir  string // request paths must stay below it
	slot     chan struct{}
	logger   *zap.Logger
}

// NewTransferHandler creates a new transfer handler. template holds the
// configured defaults of every request.
func NewTransferHandler(manager *app.TransferManager, template *domain.TransferRequest, logger *zap.Logger) *TransferHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseDir := template.Output.Dir
	if baseDir == "" {
		baseDir = "."
	}
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}

	return &TransferHandler{
		manager:  manager,
		template: *template,
		baseDir:  filepath.Clean(baseDir),
		slot:     make(chan struct{}, 1),
		logger:   logger,
	}
}

// CreateTransferRequest represents a request to transfer a URL
type CreateTransferRequest struct {
	URL          string `json:"url" binding:"required"`
	Stream       string `json:"stream,omitempty"`
	OutputDir    string `json:"output_dir,omitempty"`
	OutputName   string `json:"output_name,omitempty"`
	OutputFile   string `json:"output_file,omitempty"`
	Overwrite    *bool  `json:"overwrite,omitempty"`
	SkipTransfer *bool  `json:"skip_transfer,omitempty"`
	ResumeFrom   string `json:"resume_from,omitempty"`
}

// ReportedError is one condition reported while a transfer ran
type ReportedError struct {
	Reason  domain.Reason `json:"reason"`
	Message string        `json:"message"`
}

// TransferResponse is the outcome of POST /api/v1/transfers
type TransferResponse struct {
	Result *domain.TransferResult `json:"result"`
	Errors []ReportedError        `json:"errors,omitempty"`
}

// Busy reports whether a transfer is running
func (h *TransferHandler) Busy() bool {
	return len(h.slot) > 0
}

// CreateTransfer handles POST /api/v1/transfers
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	var body CreateTransferRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.buildRequest(&body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var response TransferResponse
	req.ReportError = func(reason domain.Reason, message string) {
		response.Errors = append(response.Errors, ReportedError{Reason: reason, Message: message})
	}

	select {
	case h.slot <- struct{}{}:
		defer func() { <-h.slot }()
	case <-c.Request.Context().Done():
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while waiting for a running transfer"})
		return
	}

	response.Result, err = h.manager.PerformURL(c.Request.Context(), body.URL, req)
	if err != nil {
		c.JSON(statusForReason(domain.ReasonOf(err)), response)
		return
	}

	status := http.StatusCreated
	if response.Result.Status == domain.TransferSkipped {
		status = http.StatusOK
	}
	c.JSON(status, response)
}

func (h *TransferHandler) buildRequest(body *CreateTransferRequest) (*domain.TransferRequest, error) {
	req := h.template
	req.Output.Regex = append([]string(nil), h.template.Output.Regex...)
	req.Exec.Commands = append([]string(nil), h.template.Exec.Commands...)

	if body.Stream != "" {
		req.Stream = body.Stream
	}
	req.Output.Dir = h.baseDir
	if body.OutputDir != "" {
		dir, err := h.confine("output_dir", body.OutputDir, h.baseDir)
		if err != nil {
			return nil, err
		}
		req.Output.Dir = dir
	}
	if body.OutputName != "" {
		if strings.ContainsAny(body.OutputName, `/\`) || strings.Contains(body.OutputName, "..") {
			return nil, fmt.Errorf("output_name must be a file name template, not a path")
		}
		req.Output.Name = body.OutputName
	}
	if body.OutputFile != "" {
		path, err := h.confine("output_file", body.OutputFile, req.Output.Dir)
		if err != nil {
			return nil, err
		}
		if path == h.baseDir {
			return nil, fmt.Errorf("output_file must name a file")
		}
		req.Output.Dir = filepath.Dir(path)
		req.Output.File = filepath.Base(path)
	}
	if body.Overwrite != nil {
		req.Overwrite = *body.Overwrite
	}
	if body.SkipTransfer != nil {
		req.SkipTransfer = *body.SkipTransfer
	}
	if body.ResumeFrom != "" {
		resume, legacy, err := domain.ParseResumeFrom(body.ResumeFrom)
		if err != nil {
			return nil, err
		}
		if legacy {
			h.logger.Warn("Negative resume_from is deprecated, use \"overwrite\"",
				zap.String("resume_from", body.ResumeFrom))
		}
		req.Resume = resume
	}

	return &req, nil
}

// confine resolves p against dir and rejects the result when it leaves the
// configured output directory
func (h *TransferHandler) confine(field, p, dir string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(h.baseDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s must stay within the output directory", field)
	}
	return p, nil
}

func statusForReason(reason domain.Reason) int {
	switch reason {
	case domain.ReasonUnsupportedScheme, domain.ReasonStreamSelect, domain.ReasonTemplate:
		return http.StatusBadRequest
	case domain.ReasonResolve:
		return http.StatusUnprocessableEntity
	case domain.ReasonNetwork, domain.ReasonUnexpectedResponse, domain.ReasonProbe:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetTransfer handles GET /api/v1/transfers/:id
func (h *TransferHandler) GetTransfer(c *gin.Context) {
	id := c.Param("id")

	record, err := h.manager.Record(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transfer not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListTransfers handles GET /api/v1/transfers
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	filters := make(map[string]interface{})
	for key := range domain.HistoryFilterKeys {
		if value := c.Query(key); value != "" {
			filters[key] = value
		}
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		limit = 100
	}

	records, err := h.manager.History(filters, limit)
	if err != nil {
		h.respondHistoryError(c, "Failed to list transfers", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetStats handles GET /api/v1/transfers/stats
func (h *TransferHandler) GetStats(c *gin.Context) {
	stats, err := h.manager.Stats()
	if err != nil {
		h.respondHistoryError(c, "Failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *TransferHandler) respondHistoryError(c *gin.Context, msg string, err error) {
	if err == app.ErrHistoryDisabled {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
