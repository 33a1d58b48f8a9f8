package app

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/yourusername/mediaget-go/internal/domain"
	"github.com/yourusername/mediaget-go/internal/infrastructure"
	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned by the history queries when no repository
// is configured
var ErrHistoryDisabled = errors.New("transfer history is disabled")

// TransferManager selects a stream, dispatches it to the downloader of its
// URL scheme and records the outcome
type TransferManager struct {
	resolver    domain.MediaResolver
	downloaders map[string]domain.StreamDownloader
	repo        domain.TransferRepository
	notifier    *infrastructure.NotificationService
	logger      *zap.Logger
}

// NewTransferManager creates a new transfer manager. repo and notifier may
// be nil.
func NewTransferManager(
	resolver domain.MediaResolver,
	downloaders []domain.StreamDownloader,
	repo domain.TransferRepository,
	notifier *infrastructure.NotificationService,
	logger *zap.Logger,
) *TransferManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	byScheme := make(map[string]domain.StreamDownloader)
	for _, d := range downloaders {
		for _, scheme := range d.Schemes() {
			byScheme[strings.ToLower(scheme)] = d
		}
	}

	return &TransferManager{
		resolver:    resolver,
		downloaders: byScheme,
		repo:        repo,
		notifier:    notifier,
		logger:      logger,
	}
}

// Perform transfers the selected stream of req.Media. Every failure is
// reported once through req.ReportError and the returned result is never
// nil.
func (tm *TransferManager) Perform(ctx context.Context, req *domain.TransferRequest) (*domain.TransferResult, error) {
	record := domain.NewTransferRecord(pageURL(req.Media))

	result, err := tm.perform(ctx, req, record)
	if err != nil {
		if result == nil {
			result = &domain.TransferResult{Stream: record.StreamID}
		}
		result.Status = domain.TransferFailed
	}

	tm.finish(req, record, result, err)
	return result, err
}

func (tm *TransferManager) perform(ctx context.Context, req *domain.TransferRequest, record *domain.TransferRecord) (*domain.TransferResult, error) {
	if req.Media == nil {
		return nil, domain.NewTransferError(domain.ReasonResolve, nil, "no media to transfer")
	}

	stream, err := SelectStream(req.Media, req.Stream)
	if err != nil {
		return nil, err
	}
	record.StreamURL = stream.URL
	record.StreamID = stream.ID

	downloader, err := tm.downloaderFor(stream.URL)
	if err != nil {
		return nil, err
	}

	tm.logger.Info("Processing transfer",
		zap.String("id", record.ID),
		zap.String("url", record.PageURL),
		zap.String("stream", stream.ID))

	return downloader.Get(ctx, req, stream)
}

// downloaderFor returns the downloader of the URL's scheme
func (tm *TransferManager) downloaderFor(streamURL string) (domain.StreamDownloader, error) {
	u, err := url.Parse(streamURL)
	if err != nil || u.Scheme == "" {
		return nil, domain.NewTransferError(domain.ReasonUnsupportedScheme, err,
			"could not parse the URI scheme from `%s'", streamURL)
	}

	d, ok := tm.downloaders[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, domain.NewTransferError(domain.ReasonUnsupportedScheme, nil,
			"protocol `%s' is not supported", u.Scheme)
	}
	return d, nil
}

// finish reports, logs, records and announces the outcome of one item
func (tm *TransferManager) finish(req *domain.TransferRequest, record *domain.TransferRecord, result *domain.TransferResult, err error) {
	record.MarkFinished(result, err)

	fields := []zap.Field{
		zap.String("id", record.ID),
		zap.String("url", record.PageURL),
	}

	switch {
	case err != nil:
		req.Report(domain.ReasonOf(err), err.Error())
		tm.logger.Error("Transfer failed", append(fields,
			zap.String("reason", string(record.Reason)),
			zap.Error(err))...)
		if tm.notifier != nil {
			tm.notifier.NotifyTransferFailed(record.PageURL, err)
		}
	case result.Status == domain.TransferSkipped:
		tm.logger.Info("Transfer skipped", append(fields,
			zap.String("file", result.FilePath),
			zap.String("mode", string(result.Mode)))...)
		if tm.notifier != nil {
			tm.notifier.NotifyTransferSkipped(result)
		}
	default:
		tm.logger.Info("Transfer completed", append(fields,
			zap.String("file", result.FilePath),
			zap.String("mode", string(result.Mode)),
			zap.Int64("bytes", result.BytesWritten))...)
		if tm.notifier != nil {
			tm.notifier.NotifyTransferCompleted(result)
		}
	}

	if tm.repo != nil {
		if err := tm.repo.Create(record); err != nil {
			tm.logger.Warn("Failed to record transfer", zap.String("id", record.ID), zap.Error(err))
			return
		}
		result.ID = record.ID
	}
}

// BatchItem is the outcome of one URL of a batch
type BatchItem struct {
	URL    string
	Result *domain.TransferResult
	Err    error
}

// BatchResult summarizes a batch
type BatchResult struct {
	Items     []BatchItem
	Completed int
	Skipped   int
	Failed    int
	Aborted   bool // the batch stopped before its last URL
}

// PerformBatch resolves and transfers each URL in order with the settings
// of template. Resolution and probe failures fail only their item; any
// other failure stops the batch. The returned error aggregates every
// failed item.
func (tm *TransferManager) PerformBatch(ctx context.Context, urls []string, template *domain.TransferRequest) (*BatchResult, error) {
	batch := &BatchResult{}
	var errs *multierror.Error

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			batch.Aborted = true
			errs = multierror.Append(errs, err)
			break
		}

		result, err := tm.PerformURL(ctx, u, template)
		batch.Items = append(batch.Items, BatchItem{URL: u, Result: result, Err: err})

		if err == nil {
			if result.Status == domain.TransferSkipped {
				batch.Skipped++
			} else {
				batch.Completed++
			}
			continue
		}

		batch.Failed++
		errs = multierror.Append(errs, err)

		if reason := domain.ReasonOf(err); reason != domain.ReasonResolve && reason != domain.ReasonProbe {
			batch.Aborted = i < len(urls)-1
			if batch.Aborted {
				tm.logger.Warn("Stopping batch after failure",
					zap.String("url", u),
					zap.Int("remaining", len(urls)-i-1))
			}
			break
		}
	}

	return batch, errs.ErrorOrNil()
}

// PerformURL resolves rawURL and transfers it with the settings of template.
// A resolution failure is reported and recorded like any other failure.
func (tm *TransferManager) PerformURL(ctx context.Context, rawURL string, template *domain.TransferRequest) (*domain.TransferResult, error) {
	req := *template

	media, err := tm.resolver.Resolve(ctx, rawURL)
	if err != nil {
		if domain.ReasonOf(err) == "" {
			err = domain.NewTransferError(domain.ReasonResolve, err, "while resolving `%s': %v", rawURL, err)
		}
		record := domain.NewTransferRecord(rawURL)
		result := &domain.TransferResult{Status: domain.TransferFailed}
		tm.finish(&req, record, result, err)
		return result, err
	}

	req.Media = media
	return tm.Perform(ctx, &req)
}

// History returns recorded transfers, newest first
func (tm *TransferManager) History(filters map[string]interface{}, limit int) ([]*domain.TransferRecord, error) {
	if tm.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return tm.repo.FindAll(filters, limit)
}

// Record returns one recorded transfer
func (tm *TransferManager) Record(id string) (*domain.TransferRecord, error) {
	if tm.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return tm.repo.FindByID(id)
}

// Stats returns transfer statistics
func (tm *TransferManager) Stats() (*domain.TransferStats, error) {
	if tm.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return tm.repo.GetStats()
}

// HistoryEnabled reports whether outcomes are recorded
func (tm *TransferManager) HistoryEnabled() bool {
	return tm.repo != nil
}

func pageURL(media *domain.Media) string {
	if media == nil {
		return ""
	}
	return media.PageURL
}
