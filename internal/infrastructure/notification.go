package infrastructure

import (
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/yourusername/mediaget-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService handles sending notifications
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a desktop notification. Failures are logged and returned.
func (n *NotificationService) Send(title, message string) error {
	if n.config == nil || !n.config.Enabled {
		return nil
	}

	var cmd *exec.Cmd
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		cmd = exec.Command("osascript", "-e", script)
	case "notify-send":
		cmd = exec.Command("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err := cmd.Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.String("command", ShellEscapeCommand(cmd.Path, cmd.Args[1:]...)),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyTransferCompleted sends notification when a transfer completes
func (n *NotificationService) NotifyTransferCompleted(result *domain.TransferResult) {
	title := "Transfer Completed"
	message := fmt.Sprintf("Saved: %s", truncateString(filepath.Base(result.FilePath), 40))
	n.Send(title, message)
}

// NotifyTransferSkipped sends notification when a transfer had nothing to do
func (n *NotificationService) NotifyTransferSkipped(result *domain.TransferResult) {
	title := "Transfer Skipped"
	message := fmt.Sprintf("%s (%s)", truncateString(filepath.Base(result.FilePath), 40), result.Mode)
	n.Send(title, message)
}

// NotifyTransferFailed sends notification when a transfer fails
func (n *NotificationService) NotifyTransferFailed(url string, err error) {
	title := "Transfer Failed"
	message := fmt.Sprintf("Failed: %s (%s)", truncateString(url, 30), domain.ReasonOf(err))
	n.Send(title, message)
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
