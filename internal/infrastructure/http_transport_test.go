package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mediaget-go/internal/domain"
)

func TestHTTPTransport_StreamSendsHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(HTTPTransportConfig{UserAgent: "mediaget/1.0"}, nil)
	require.NoError(t, err)

	res := transport.Stream(context.Background(), StreamRequest{
		URL:    server.URL,
		Offset: 512,
		Write:  func(*ResponseInfo, []byte) int { return 0 },
	})
	require.NoError(t, res.Err)

	assert.Equal(t, http.StatusPartialContent, res.ResponseCode)
	assert.Equal(t, "mediaget/1.0", got.Get("User-Agent"))
	assert.Equal(t, "bytes=512-", got.Get("Range"))
	assert.Equal(t, "identity", got.Get("Accept-Encoding"))
}

func TestHTTPTransport_StreamReportsProgress(t *testing.T) {
	content := testContent(100000)
	server := newContentServer(t, content, "application/octet-stream")

	transport, err := NewHTTPTransport(HTTPTransportConfig{}, nil)
	require.NoError(t, err)

	var received []byte
	var progress []int64
	var info *ResponseInfo

	res := transport.Stream(context.Background(), StreamRequest{
		URL: server.URL,
		Write: func(i *ResponseInfo, chunk []byte) int {
			info = i
			received = append(received, chunk...)
			return len(chunk)
		},
		Progress: func(n int64) { progress = append(progress, n) },
	})
	require.NoError(t, res.Err)

	assert.Equal(t, content, received)
	assert.Equal(t, int64(len(content)), res.Received)
	require.NotEmpty(t, progress)
	assert.Equal(t, int64(len(content)), progress[len(progress)-1])
	assert.Equal(t, int64(len(content)), info.TotalLength)
}

func TestHTTPTransport_WriteAbort(t *testing.T) {
	server := newContentServer(t, testContent(1000), "video/mp4")

	transport, err := NewHTTPTransport(HTTPTransportConfig{}, nil)
	require.NoError(t, err)

	res := transport.Stream(context.Background(), StreamRequest{
		URL:   server.URL,
		Write: func(_ *ResponseInfo, chunk []byte) int { return len(chunk) - 1 },
	})
	assert.ErrorIs(t, res.Err, domain.ErrWriteAborted)
	assert.Equal(t, http.StatusOK, res.ResponseCode)
}

func TestNewHTTPTransport_InvalidProxy(t *testing.T) {
	_, err := NewHTTPTransport(HTTPTransportConfig{Proxy: "http://[::1"}, nil)
	assert.Error(t, err)
}

func TestContentRangeTotal(t *testing.T) {
	tests := []struct {
		header   string
		expected int64
		ok       bool
	}{
		{"bytes 500-999/1000", 1000, true},
		{"bytes 0-0/1", 1, true},
		{"bytes 500-999/*", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		total, ok := contentRangeTotal(tt.header)
		assert.Equal(t, tt.expected, total)
		assert.Equal(t, tt.ok, ok)
	}
}

func TestNewResponseInfo_PartialWithoutRange(t *testing.T) {
	resp := &http.Response{
		StatusCode:    http.StatusPartialContent,
		ContentLength: 400,
		Header:        http.Header{"Content-Type": []string{"video/mp4"}},
	}

	info := newResponseInfo(resp, 600)
	assert.Equal(t, int64(400), info.BodyLength)
	assert.Equal(t, int64(1000), info.TotalLength)
	assert.Equal(t, "video/mp4", info.ContentType)
}
