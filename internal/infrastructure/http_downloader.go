package infrastructure

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yourusername/mediaget-go/internal/domain"
	"github.com/yourusername/mediaget-go/internal/progress"
	"github.com/yourusername/mediaget-go/internal/sequence"
	"go.uber.org/zap"
)

// HTTPDownloader streams http and https media to local files
type HTTPDownloader struct {
	transport   *HTTPTransport
	prober      domain.MetainfoProber
	extResolver domain.FileExtResolver
	runner      *CommandRunner
	newReporter func() *progress.Reporter
	logger      *zap.Logger

	// rules compiled from the last seen rule list
	rulesMu  sync.Mutex
	rulesKey string
	rules    []sequence.Rule
}

// HTTPDownloaderOption configures an HTTPDownloader
type HTTPDownloaderOption func(*HTTPDownloader)

// WithReporterFactory sets how the progress reporter of each transfer is made
func WithReporterFactory(factory func() *progress.Reporter) HTTPDownloaderOption {
	return func(d *HTTPDownloader) { d.newReporter = factory }
}

// NewHTTPDownloader creates an HTTP downloader
func NewHTTPDownloader(
	transport *HTTPTransport,
	prober domain.MetainfoProber,
	extResolver domain.FileExtResolver,
	runner *CommandRunner,
	logger *zap.Logger,
	opts ...HTTPDownloaderOption,
) *HTTPDownloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &HTTPDownloader{
		transport:   transport,
		prober:      prober,
		extResolver: extResolver,
		runner:      runner,
		logger:      logger,
		newReporter: func() *progress.Reporter { return progress.NewReporter() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schemes returns the URL schemes handled by the downloader
func (d *HTTPDownloader) Schemes() []string {
	return []string{"http", "https"}
}

// httpTransfer is the state of one transfer
type httpTransfer struct {
	d      *HTTPDownloader
	req    *domain.TransferRequest
	stream domain.StreamDescriptor
	rules  []sequence.Rule

	overwrite bool
	offset    int64

	reporter      *progress.Reporter
	contentLength int64
	contentType   string
	fileExt       string
	path          string
	file          *OpenedFile
	mode          domain.TransferMode

	skipped bool
	failure error // set when the write callback gives up
	ioErr   error
	written int64
}

// Get transfers the stream to the output file
func (d *HTTPDownloader) Get(ctx context.Context, req *domain.TransferRequest, stream domain.StreamDescriptor) (*domain.TransferResult, error) {
	rules, err := d.compileRules(req.Output.Regex)
	if err != nil {
		return nil, domain.NewTransferError(domain.ReasonTemplate, err, "%v", err)
	}

	t := &httpTransfer{
		d:         d,
		req:       req,
		stream:    stream,
		rules:     rules,
		overwrite: req.Overwrite || req.Resume.Mode == domain.ResumeForceOverwrite,
		reporter:  d.newReporter(),
		mode:      domain.ModeWrite,
	}
	defer t.close()

	result, err := t.run(ctx)
	if err != nil {
		t.reporter.Fail()
		d.logger.Debug("Transfer failed",
			zap.String("url", stream.URL),
			zap.String("reason", string(domain.ReasonOf(err))),
			zap.Error(err))
		return result, err
	}
	return result, nil
}

// compileRules compiles a rule list, reusing the previous result when the
// list did not change
func (d *HTTPDownloader) compileRules(src []string) ([]sequence.Rule, error) {
	key := strings.Join(src, "\x00")

	d.rulesMu.Lock()
	defer d.rulesMu.Unlock()

	if d.rules != nil && key == d.rulesKey {
		return d.rules, nil
	}
	rules, err := sequence.CompileRules(src)
	if err != nil {
		return nil, err
	}
	d.rulesKey, d.rules = key, rules
	return rules, nil
}

func (t *httpTransfer) run(ctx context.Context) (*domain.TransferResult, error) {
	probe := t.req.SkipTransfer || (t.req.Resume.Mode == domain.ResumeAuto && !t.overwrite)

	if probe {
		info, err := t.d.prober.Probe(ctx, t.stream.URL)
		if err != nil {
			return nil, domain.NewTransferError(domain.ReasonProbe, err,
				"while querying content meta-info: %v", err)
		}
		t.contentLength = info.Length
		t.contentType = info.ContentType

		if err := t.buildPath(); err != nil {
			return nil, err
		}

		if t.req.SkipTransfer {
			t.skip(domain.ModeForcedSkip, 0)
			return t.finishSkipped()
		}

		if err := t.openFile(FileOpenRequest{Path: t.path, ContentLength: t.contentLength}, false); err != nil {
			if errors.Is(err, domain.ErrRetrievedAlready) {
				return t.finishSkipped()
			}
			return nil, err
		}
		t.offset = t.file.InitialOffset
	} else if t.req.Resume.Mode == domain.ResumeFromOffset && !t.overwrite {
		t.offset = t.req.Resume.Offset
	}

	res := t.d.transport.Stream(ctx, StreamRequest{
		URL:      t.stream.URL,
		Offset:   t.offset,
		Write:    t.write,
		Progress: t.reporter.Update,
	})

	if err := t.classify(res); err != nil {
		return t.result(domain.TransferFailed), err
	}
	if t.skipped {
		return t.finishSkipped()
	}

	// An empty body never reaches the write callback
	if t.file == nil {
		if err := t.deferredOpen(&ResponseInfo{StatusCode: res.ResponseCode}, nil); err != nil {
			if t.skipped {
				return t.finishSkipped()
			}
			return nil, err
		}
	}

	t.reporter.Finish()
	if err := t.close(); err != nil {
		return t.result(domain.TransferFailed), domain.NewTransferError(domain.ReasonLocalIO, err,
			"while closing file: %s: %v", t.path, err)
	}

	if err := t.runCommands(); err != nil {
		return t.result(domain.TransferFailed), err
	}
	return t.result(domain.TransferCompleted), nil
}

// write is the transport write callback
func (t *httpTransfer) write(info *ResponseInfo, chunk []byte) int {
	if t.file == nil {
		if t.skipped || t.failure != nil {
			return 0
		}
		if err := t.deferredOpen(info, chunk); err != nil {
			if !t.skipped {
				t.failure = err
			}
			return 0
		}
	}

	n, err := t.file.File.Write(chunk)
	if err != nil || n < len(chunk) {
		t.ioErr = err
		return 0
	}
	t.written += int64(n)
	return n
}

// deferredOpen opens the file from the live response headers
func (t *httpTransfer) deferredOpen(info *ResponseInfo, head []byte) error {
	if t.contentLength == 0 {
		t.contentLength = info.TotalLength
	}
	if t.contentType == "" {
		t.contentType = info.ContentType
	}
	if t.contentType == "" && len(head) > 0 {
		t.contentType = DetectContentType(head)
	}

	if err := t.buildPath(); err != nil {
		return err
	}

	switch {
	case t.overwrite:
		return t.openFile(FileOpenRequest{Path: t.path, Overwrite: true}, false)
	case t.offset > 0:
		return t.openFile(FileOpenRequest{Path: t.path, Offset: t.offset}, false)
	}

	// No range was requested, so a partial file is rewritten from the start
	return t.openFile(FileOpenRequest{Path: t.path, ContentLength: t.contentLength}, true)
}

// openFile applies the resume policy and prints the header. With
// rewritePartial a resumable file is truncated instead of appended to.
func (t *httpTransfer) openFile(req FileOpenRequest, rewritePartial bool) error {
	opened, err := OpenOutputFile(req)
	if errors.Is(err, domain.ErrRetrievedAlready) {
		t.skip(domain.ModeRetrievedAlready, opened.InitialOffset)
		return err
	}
	if err != nil {
		return err
	}

	if rewritePartial && opened.Decision == domain.DecisionResumeAppend {
		if err := opened.Close(); err != nil {
			return domain.NewTransferError(domain.ReasonLocalIO, err, "while closing file: %s: %v", req.Path, err)
		}
		opened, err = OpenOutputFile(FileOpenRequest{Path: req.Path, Overwrite: true})
		if err != nil {
			return err
		}
	}

	t.file = opened
	t.mode = domain.ModeWrite
	if opened.InitialOffset > 0 {
		t.mode = domain.ModeResume
	}

	t.d.logger.Debug("Opened output file",
		zap.String("path", t.path),
		zap.String("decision", opened.Decision.String()),
		zap.Int64("initial_offset", opened.InitialOffset),
		zap.Int64("content_length", t.contentLength))

	t.reporter.Start(progress.Header{
		FileName:      filepath.Base(t.path),
		ContentLength: t.contentLength,
		ContentType:   t.contentType,
		InitialOffset: opened.InitialOffset,
		Mode:          t.mode,
	})
	return nil
}

func (t *httpTransfer) skip(mode domain.TransferMode, offset int64) {
	t.skipped = true
	t.mode = mode
	t.offset = offset
	t.reporter.Start(progress.Header{
		FileName:      filepath.Base(t.path),
		ContentLength: t.contentLength,
		ContentType:   t.contentType,
		InitialOffset: offset,
		Mode:          mode,
	})
}

func (t *httpTransfer) buildPath() error {
	if t.path != "" {
		return nil
	}

	ext, err := t.d.extResolver.FileExt(t.contentType)
	if err != nil {
		return domain.NewTransferError(domain.ReasonTemplate, err,
			"while parsing file extension: %v", err)
	}
	t.fileExt = ext

	table := sequence.NewTable(sequence.TableInput{
		Media:   t.req.Media,
		Stream:  t.stream,
		FileExt: ext,
		Rules:   t.rules,
	})

	path, err := sequence.BuildFilePath(t.req.Output, table)
	if err != nil {
		return domain.NewTransferError(domain.ReasonTemplate, err, "%v", err)
	}
	t.path = path
	return nil
}

// classify turns the transport outcome into an error, or nil on success
func (t *httpTransfer) classify(res *StreamResult) error {
	switch {
	case res.Err == nil:
		if res.ResponseCode != 200 && res.ResponseCode != 206 {
			return domain.NewTransferError(domain.ReasonUnexpectedResponse, nil,
				"server responded with code %d, expected 200 or 206 (cc=%d)", res.ResponseCode, res.ConnectCode)
		}
		return nil

	case errors.Is(res.Err, domain.ErrWriteAborted):
		if t.skipped {
			return nil
		}
		if t.failure != nil {
			return t.failure
		}
		if t.ioErr != nil {
			return domain.NewTransferError(domain.ReasonLocalIO, t.ioErr,
				"while writing to file: %v", t.ioErr)
		}
		return domain.NewTransferError(domain.ReasonLocalIO, res.Err, "while writing to file: short write")

	default:
		return domain.NewTransferError(domain.ReasonNetwork, res.Err,
			"transport: %v (rc=%d, cc=%d)", res.Err, res.ResponseCode, res.ConnectCode)
	}
}

func (t *httpTransfer) finishSkipped() (*domain.TransferResult, error) {
	if err := t.runCommands(); err != nil {
		return t.result(domain.TransferFailed), err
	}
	return t.result(domain.TransferSkipped), nil
}

func (t *httpTransfer) runCommands() error {
	if len(t.req.Exec.Commands) == 0 || t.d.runner == nil {
		return nil
	}

	table := sequence.NewTable(sequence.TableInput{
		Media:    t.req.Media,
		Stream:   t.stream,
		FileExt:  t.fileExt,
		FilePath: t.path,
	})
	return t.d.runner.Run(t.req.Exec.Commands, table, t.req.Exec)
}

func (t *httpTransfer) result(status domain.TransferStatus) *domain.TransferResult {
	return &domain.TransferResult{
		FilePath:      t.path,
		Status:        status,
		Mode:          t.mode,
		Stream:        t.stream.ID,
		InitialOffset: t.offset,
		BytesWritten:  t.written,
		ContentLength: t.contentLength,
		ContentType:   t.contentType,
	}
}

func (t *httpTransfer) close() error {
	return t.file.Close()
}
