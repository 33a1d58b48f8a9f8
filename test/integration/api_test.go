//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/mediaget-go/api"
	"github.com/yourusername/mediaget-go/api/handlers"
	"github.com/yourusername/mediaget-go/internal/app"
	"github.com/yourusername/mediaget-go/internal/domain"
	"github.com/yourusername/mediaget-go/pkg/logger"
)

// setupTestServer builds the server the way cmd/server does, from a config file
func setupTestServer(t *testing.T, media http.Handler) (*httptest.Server, *httptest.Server, string) {
	t.Helper()

	mediaServer := httptest.NewServer(media)
	t.Cleanup(mediaServer.Close)

	dir := t.TempDir()
	outDir := filepath.Join(dir, "media")
	logsDir := filepath.Join(dir, "logs")
	configFile := filepath.Join(dir, "config.yaml")

	yaml := fmt.Sprintf(`output:
  dir: %s
  name: "%%t.%%e"
transfer:
  resume_from: auto
history:
  enabled: true
  database_path: %s
logging:
  level: info
  output_path: %s
  logs_dir: %s
`, outDir, filepath.Join(dir, "history.db"), filepath.Join(dir, "server.log"), logsDir)
	require.NoError(t, os.WriteFile(configFile, []byte(yaml), 0644))

	config, err := app.LoadConfig(configFile)
	require.NoError(t, err)

	log, err := logger.New(logger.Config{Level: config.Logging.Level, OutputPath: config.Logging.OutputPath})
	require.NoError(t, err)

	multiLog, err := logger.NewMultiLogger(config.Logging.LogsDir, config.Logging.Level)
	require.NoError(t, err)
	t.Cleanup(func() { multiLog.Close() })
	log = multiLog.Tee(log, logger.CategoryTransfer, logger.CategoryError)

	engine, err := app.NewEngine(config, log, app.EngineOptions{Progress: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	router := api.SetupRouter(api.RouterConfig{
		Manager:  engine.Manager,
		Template: engine.Template,
		Logger:   log,
		LogsDir:  config.Logging.LogsDir,
		Version:  "integration",
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, mediaServer, outDir
}

func postTransfer(t *testing.T, server *httptest.Server, body interface{}) (*http.Response, handlers.TransferResponse) {
	t.Helper()

	data, _ := json.Marshal(body)
	resp, err := http.Post(server.URL+"/api/v1/transfers", "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result handlers.TransferResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

func TestAPI_ResumesPartialFile(t *testing.T) {
	content := bytes.Repeat([]byte("abcdefgh"), 1024)
	server, mediaServer, outDir := setupTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(content))
	}))

	require.NoError(t, os.MkdirAll(outDir, 0755))
	partial := filepath.Join(outDir, "episode.mp4")
	require.NoError(t, os.WriteFile(partial, content[:3000], 0644))

	resp, result := postTransfer(t, server, map[string]string{"url": mediaServer.URL + "/episode.mp4"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.ModeResume, result.Result.Mode)
	assert.Equal(t, int64(3000), result.Result.InitialOffset)
	assert.Equal(t, int64(len(content)-3000), result.Result.BytesWritten)

	data, err := os.ReadFile(partial)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	statsResp, err := http.Get(server.URL + "/api/v1/transfers/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	var stats domain.TransferStats
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Completed)

	logsResp, err := http.Get(server.URL + "/api/v1/logs/transfer/search?q=episode")
	require.NoError(t, err)
	defer logsResp.Body.Close()
	assert.Equal(t, http.StatusOK, logsResp.StatusCode)
}

func TestAPI_RecordsFailures(t *testing.T) {
	server, mediaServer, _ := setupTestServer(t, http.NotFoundHandler())

	resp, result := postTransfer(t, server, map[string]string{"url": mediaServer.URL + "/gone.mp4"})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, domain.ReasonProbe, result.Errors[0].Reason)

	listResp, err := http.Get(server.URL + "/api/v1/transfers?status=failed")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var records []domain.TransferRecord
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, domain.ReasonProbe, records[0].Reason)
}
