package infrastructure

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yourusername/mediaget-go/internal/domain"
	"go.uber.org/zap"
)

// DefaultFileExt is used when no extension can be inferred
const DefaultFileExt = "flv"

// DirectResolver treats a URL as a media item with a single stream
type DirectResolver struct {
	logger *zap.Logger
}

// NewDirectResolver creates a direct resolver
func NewDirectResolver(logger *zap.Logger) *DirectResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectResolver{logger: logger}
}

// Resolve builds the media item of rawURL. The title is the file name
// without its extension, or the host when the path has no file name.
func (r *DirectResolver) Resolve(ctx context.Context, rawURL string) (*domain.Media, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, domain.NewTransferError(domain.ReasonResolve, nil, "empty URL")
	}

	media := &domain.Media{
		ID:      rawURL,
		Title:   rawURL,
		PageURL: rawURL,
		Streams: []domain.StreamDescriptor{{ID: "default", URL: rawURL}},
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		// The scheme check reports the parse failure
		return media, nil
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		media.ID = u.Host
		media.Title = u.Host
	} else {
		media.ID = base
		media.Title = strings.TrimSuffix(base, path.Ext(base))
	}
	media.Streams[0].Container = strings.TrimPrefix(path.Ext(base), ".")

	r.logger.Debug("Resolved media",
		zap.String("url", rawURL),
		zap.String("title", media.Title))

	return media, nil
}

// HTTPProber queries content metadata with a HEAD request
type HTTPProber struct {
	transport *HTTPTransport
}

// NewHTTPProber creates a prober
func NewHTTPProber(transport *HTTPTransport) *HTTPProber {
	return &HTTPProber{transport: transport}
}

// Probe returns the content length and type of streamURL
func (p *HTTPProber) Probe(ctx context.Context, streamURL string) (*domain.ContentProbe, error) {
	resp, err := p.transport.Head(ctx, streamURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("server responded with code %d", resp.StatusCode)
	}

	probe := &domain.ContentProbe{ContentType: resp.Header.Get("Content-Type")}
	if resp.ContentLength > 0 {
		probe.Length = resp.ContentLength
	}
	return probe, nil
}

// MimeExtResolver infers file extensions from MIME types
type MimeExtResolver struct{}

// NewMimeExtResolver creates an extension resolver
func NewMimeExtResolver() *MimeExtResolver {
	return &MimeExtResolver{}
}

// FileExt returns the extension for contentType without the leading dot.
// Unknown types yield DefaultFileExt.
func (MimeExtResolver) FileExt(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		return DefaultFileExt, nil
	}

	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return strings.TrimPrefix(m.Extension(), "."), nil
	}

	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], "."), nil
	}

	return DefaultFileExt, nil
}

// DetectContentType sniffs the MIME type of the first bytes of a body
func DetectContentType(head []byte) string {
	m := mimetype.Detect(head)
	if m.Is("application/octet-stream") {
		return ""
	}
	return m.String()
}
