package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yourusername/mediaget-go/internal/domain"
)

func TestNewEngine_TransfersAndRecords(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789abcdef"), 64)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/webm")
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(content))
	}))
	defer server.Close()

	config := domain.DefaultConfig()
	config.Output.Dir = t.TempDir()
	config.History.Enabled = true
	config.History.DatabasePath = filepath.Join(t.TempDir(), "history.db")

	engine, err := NewEngine(config, nil, EngineOptions{Progress: io.Discard})
	require.NoError(t, err)
	defer engine.Close()

	assert.True(t, engine.Manager.HistoryEnabled())
	assert.Equal(t, domain.ResumeAuto, engine.Template.Resume.Mode)

	result, err := engine.Manager.PerformURL(context.Background(), server.URL+"/clip.webm", engine.Template)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferCompleted, result.Status)
	assert.Equal(t, filepath.Join(config.Output.Dir, "clip.webm"), result.FilePath)

	data, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	record, err := engine.Manager.Record(result.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), record.BytesWritten)
}

func TestNewEngine_WarnsOnLegacyResume(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	config := domain.DefaultConfig()
	config.Transfer.ResumeFrom = "-1"

	engine, err := NewEngine(config, zap.New(core), EngineOptions{Progress: io.Discard})
	require.NoError(t, err)
	defer engine.Close()

	assert.Equal(t, domain.ResumeForceOverwrite, engine.Template.Resume.Mode)
	assert.False(t, engine.Manager.HistoryEnabled())
	require.Equal(t, 1, logs.FilterMessageSnippet("deprecated").Len())
}

func TestNewEngine_InvalidSettings(t *testing.T) {
	config := domain.DefaultConfig()
	config.Transfer.ResumeFrom = "later"

	_, err := NewEngine(config, nil, EngineOptions{})
	assert.Error(t, err)

	// Rules set after loading, as command-line flags are, are checked too
	config = domain.DefaultConfig()
	config.Output.Regex = []string{`%t:s/\s+/_/`, `%t:s/abc/`}

	_, err = NewEngine(config, nil, EngineOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "%t:s/abc/")
	assert.NotContains(t, err.Error(), `%t:s/\s+/_/`)

	config = domain.DefaultConfig()
	config.Transfer.Proxy = "://bad"

	_, err = NewEngine(config, nil, EngineOptions{})
	assert.Error(t, err)
}
