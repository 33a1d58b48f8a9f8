package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/mediaget-go/internal/domain"
	"go.uber.org/zap"
)

// ErrRangeNotSupported is reported when a resumed request is answered with
// the whole content
var ErrRangeNotSupported = errors.New("server does not support byte ranges")

const streamBufferSize = 32 * 1024

// HTTPTransportConfig configures the HTTP client
type HTTPTransportConfig struct {
	UserAgent      string
	Proxy          string // empty uses the environment
	ConnectTimeout time.Duration
	Timeout        time.Duration // 0 means no overall timeout
}

// HTTPTransport performs HEAD and streamed GET requests
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// ResponseInfo is what the write callback learns about the response
type ResponseInfo struct {
	StatusCode  int
	ContentType string

	// BodyLength is the Content-Length of this response, 0 if unknown
	BodyLength int64

	// TotalLength is the length of the whole content, 0 if unknown. For a
	// partial response it includes the requested offset.
	TotalLength int64
}

// WriteFunc consumes a chunk of the body and returns how many bytes it
// consumed. Returning less than len(chunk) aborts the transfer.
type WriteFunc func(info *ResponseInfo, chunk []byte) int

// ProgressFunc receives the number of body bytes received so far
type ProgressFunc func(received int64)

// StreamRequest describes one streamed GET
type StreamRequest struct {
	URL      string
	Offset   int64
	Write    WriteFunc
	Progress ProgressFunc
}

// StreamResult holds the transport outcome. ResponseCode and ConnectCode are
// 0 when not available.
type StreamResult struct {
	ResponseCode int
	ConnectCode  int
	Received     int64
	Err          error
}

type connectCodeKey struct{}

// NewHTTPTransport creates a transport
func NewHTTPTransport(config HTTPTransportConfig, logger *zap.Logger) (*HTTPTransport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	proxy := http.ProxyFromEnvironment
	if config.Proxy != "" {
		proxyURL, err := url.Parse(config.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		proxy = http.ProxyURL(proxyURL)
	}

	dialer := &net.Dialer{Timeout: config.ConnectTimeout, KeepAlive: 30 * time.Second}

	transport := &http.Transport{
		Proxy:                 proxy,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   config.ConnectTimeout,
		ResponseHeaderTimeout: config.ConnectTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		OnProxyConnectResponse: func(ctx context.Context, _ *url.URL, _ *http.Request, resp *http.Response) error {
			if code, ok := ctx.Value(connectCodeKey{}).(*int); ok {
				*code = resp.StatusCode
			}
			return nil
		},
	}

	return &HTTPTransport{
		client:    &http.Client{Transport: transport, Timeout: config.Timeout},
		userAgent: config.UserAgent,
		logger:    logger,
	}, nil
}

// Head issues a HEAD request. The caller closes the response body.
func (t *HTTPTransport) Head(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, err
	}
	t.setHeaders(req)
	return t.client.Do(req)
}

// Stream performs a GET and hands the body to sr.Write chunk by chunk. The
// body is only streamed for 200 and 206 responses.
func (t *HTTPTransport) Stream(ctx context.Context, sr StreamRequest) *StreamResult {
	result := &StreamResult{}
	ctx = context.WithValue(ctx, connectCodeKey{}, &result.ConnectCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sr.URL, nil)
	if err != nil {
		result.Err = err
		return result
	}
	t.setHeaders(req)
	req.Header.Set("Accept-Encoding", "identity")
	if sr.Offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", sr.Offset))
	}

	t.logger.Debug("Starting HTTP transfer",
		zap.String("url", sr.URL),
		zap.Int64("offset", sr.Offset))

	resp, err := t.client.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.ResponseCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return result
	}
	if sr.Offset > 0 && resp.StatusCode == http.StatusOK {
		result.Err = ErrRangeNotSupported
		return result
	}

	info := newResponseInfo(resp, sr.Offset)
	buf := make([]byte, streamBufferSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if sr.Write(info, buf[:n]) < n {
				result.Err = domain.ErrWriteAborted
				return result
			}
			result.Received += int64(n)
			if sr.Progress != nil {
				sr.Progress(result.Received)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			result.Err = readErr
			return result
		}
	}

	t.logger.Debug("HTTP transfer finished",
		zap.String("url", sr.URL),
		zap.Int("response_code", result.ResponseCode),
		zap.Int64("received", result.Received))

	return result
}

func (t *HTTPTransport) setHeaders(req *http.Request) {
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
}

func newResponseInfo(resp *http.Response, offset int64) *ResponseInfo {
	info := &ResponseInfo{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if resp.ContentLength > 0 {
		info.BodyLength = resp.ContentLength
	}

	if resp.StatusCode == http.StatusPartialContent {
		if total, ok := contentRangeTotal(resp.Header.Get("Content-Range")); ok {
			info.TotalLength = total
		} else if info.BodyLength > 0 {
			info.TotalLength = offset + info.BodyLength
		}
		return info
	}

	info.TotalLength = info.BodyLength
	return info
}

// contentRangeTotal parses the complete length of "bytes a-b/total"
func contentRangeTotal(header string) (int64, bool) {
	i := strings.LastIndex(header, "/")
	if i < 0 {
		return 0, false
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[i+1:]), 10, 64)
	if err != nil || total <= 0 {
		return 0, false
	}
	return total, true
}
