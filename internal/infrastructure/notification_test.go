package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/mediaget-go/internal/domain"
)

func TestNotificationService_DisabledIsNoop(t *testing.T) {
	n := NewNotificationService(&domain.NotificationConfig{Enabled: false, Method: "notify-send"}, nil)

	assert.NoError(t, n.Send("title", "message"))
	n.NotifyTransferCompleted(&domain.TransferResult{FilePath: "/tmp/a.mp4"})
	n.NotifyTransferSkipped(&domain.TransferResult{FilePath: "/tmp/a.mp4", Mode: domain.ModeRetrievedAlready})
	n.NotifyTransferFailed("https://example.com/a.mp4", assert.AnError)
}

func TestNotificationService_UnknownMethod(t *testing.T) {
	n := NewNotificationService(&domain.NotificationConfig{Enabled: true, Method: "carrier-pigeon"}, nil)
	assert.NoError(t, n.Send("title", "message"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcde...", truncateString("abcdefghij", 5))
}
