package domain

import "context"

// MediaResolver turns a page URL into media metadata and its streams
type MediaResolver interface {
	Resolve(ctx context.Context, url string) (*Media, error)
}

// MetainfoProber learns the content length and type of a stream URL without
// retrieving the body
type MetainfoProber interface {
	Probe(ctx context.Context, streamURL string) (*ContentProbe, error)
}

// FileExtResolver infers a file extension (without the dot) from a content type
type FileExtResolver interface {
	FileExt(contentType string) (string, error)
}

// StreamDownloader performs the transfer of one selected stream
type StreamDownloader interface {
	// Get transfers the stream and returns the result. The returned error,
	// when not nil, is a *TransferError.
	Get(ctx context.Context, req *TransferRequest, stream StreamDescriptor) (*TransferResult, error)

	// Schemes returns the URL schemes this downloader handles
	Schemes() []string
}
