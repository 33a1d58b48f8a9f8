package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectResolver_Resolve(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		title     string
		id        string
		container string
	}{
		{
			name:      "file name",
			url:       "https://cdn.example.com/videos/holiday.mp4",
			title:     "holiday",
			id:        "holiday.mp4",
			container: "mp4",
		},
		{
			name:  "no file name",
			url:   "https://cdn.example.com/",
			title: "cdn.example.com",
			id:    "cdn.example.com",
		},
		{
			name:  "no extension",
			url:   "http://example.com/stream",
			title: "stream",
			id:    "stream",
		},
	}

	r := NewDirectResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media, err := r.Resolve(context.Background(), tt.url)
			require.NoError(t, err)

			assert.Equal(t, tt.title, media.Title)
			assert.Equal(t, tt.id, media.ID)
			assert.Equal(t, tt.url, media.PageURL)
			require.Len(t, media.Streams, 1)
			assert.Equal(t, "default", media.Streams[0].ID)
			assert.Equal(t, tt.url, media.Streams[0].URL)
			assert.Equal(t, tt.container, media.Streams[0].Container)
		})
	}
}

func TestDirectResolver_EmptyURL(t *testing.T) {
	_, err := NewDirectResolver(nil).Resolve(context.Background(), "  ")
	assert.Error(t, err)
}

func TestDirectResolver_UnparsableURLIsKept(t *testing.T) {
	media, err := NewDirectResolver(nil).Resolve(context.Background(), "http://[::1")
	require.NoError(t, err)
	assert.Equal(t, "http://[::1", media.Streams[0].URL)
}

func TestHTTPProber_Probe(t *testing.T) {
	server := newContentServer(t, testContent(2048), "video/webm")

	transport, err := NewHTTPTransport(HTTPTransportConfig{}, nil)
	require.NoError(t, err)

	probe, err := NewHTTPProber(transport).Probe(context.Background(), server.URL+"/v")
	require.NoError(t, err)

	assert.Equal(t, int64(2048), probe.Length)
	assert.Equal(t, "video/webm", probe.ContentType)
	assert.Equal(t, int32(1), server.heads.Load())
	assert.Equal(t, int32(0), server.gets.Load())
}

func TestHTTPProber_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	transport, err := NewHTTPTransport(HTTPTransportConfig{}, nil)
	require.NoError(t, err)

	_, err = NewHTTPProber(transport).Probe(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestMimeExtResolver_FileExt(t *testing.T) {
	tests := []struct {
		contentType string
		expected    string
	}{
		{"video/mp4", "mp4"},
		{"video/webm", "webm"},
		{"video/x-flv", "flv"},
		{"audio/mpeg", "mp3"},
		{"video/mp4; codecs=avc1", "mp4"},
		{"", "flv"},
		{"not a mime type", "flv"},
		{"application/x-mediaget-unknown", "flv"},
	}

	r := NewMimeExtResolver()
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			ext, err := r.FileExt(tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ext)
		})
	}
}

func TestDetectContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", DetectContentType(png))
	assert.Equal(t, "", DetectContentType([]byte{0x00, 0x01, 0x02, 0x03}))
}
