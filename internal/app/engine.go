package app

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/yourusername/mediaget-go/internal/domain"
	"github.com/yourusername/mediaget-go/internal/infrastructure"
	"github.com/yourusername/mediaget-go/internal/progress"
	"go.uber.org/zap"
)

// EngineOptions tunes how an Engine is built
type EngineOptions struct {
	// Progress receives the progress output; nil means stderr
	Progress io.Writer

	// TrackWidth follows the terminal width of stderr
	TrackWidth bool
}

// Engine is the component graph built from one configuration
type Engine struct {
	Manager  *TransferManager
	Template *domain.TransferRequest
	Resolver domain.MediaResolver

	repo  domain.TransferRepository
	width *progress.TermWidth
}

// NewEngine wires the transport, the downloader, the history store and the
// transfer manager
func NewEngine(config *domain.Config, log *zap.Logger, opts EngineOptions) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	template, legacy, err := TransferTemplate(config)
	if err != nil {
		return nil, err
	}
	if legacy {
		log.Warn("Negative resume_from is deprecated, use \"overwrite\"",
			zap.String("resume_from", config.Transfer.ResumeFrom))
	}

	transport, err := infrastructure.NewHTTPTransport(infrastructure.HTTPTransportConfig{
		UserAgent:      config.Transfer.UserAgent,
		Proxy:          config.Transfer.Proxy,
		ConnectTimeout: config.Transfer.ConnectTimeout,
		Timeout:        config.Transfer.Timeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	e := &Engine{Template: template}

	out := opts.Progress
	if out == nil {
		out = os.Stderr
	}
	reporterOpts := []progress.Option{progress.WithWriter(out)}
	if opts.TrackWidth {
		e.width = progress.NewTermWidth()
		reporterOpts = append(reporterOpts, progress.WithWidth(e.width.Width))
	}

	downloader := infrastructure.NewHTTPDownloader(
		transport,
		infrastructure.NewHTTPProber(transport),
		infrastructure.NewMimeExtResolver(),
		infrastructure.NewCommandRunner(log),
		log,
		infrastructure.WithReporterFactory(func() *progress.Reporter {
			return progress.NewReporter(reporterOpts...)
		}),
	)

	if config.History.Enabled {
		repo, err := infrastructure.NewSQLiteTransferRepository(config.History.DatabasePath)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to open transfer history: %w", err)
		}
		e.repo = repo
	}

	var notifier *infrastructure.NotificationService
	if config.Notification.Enabled {
		notifier = infrastructure.NewNotificationService(&config.Notification, log)
	}

	e.Resolver = infrastructure.NewDirectResolver(log)
	e.Manager = NewTransferManager(e.Resolver, []domain.StreamDownloader{downloader}, e.repo, notifier, log)

	return e, nil
}

// Close releases the history store and the terminal watcher
func (e *Engine) Close() error {
	var result *multierror.Error
	if e.width != nil {
		e.width.Close()
	}
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
