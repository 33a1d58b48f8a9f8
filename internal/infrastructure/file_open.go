package infrastructure

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yourusername/mediaget-go/internal/domain"
)

// FileOpenRequest describes how the output file of a transfer is opened
type FileOpenRequest struct {
	Path string

	// ContentLength is the best known expected length, 0 if unknown
	ContentLength int64

	// Overwrite truncates any existing file
	Overwrite bool

	// Offset, when positive, continues the file at that byte offset
	Offset int64
}

// OpenedFile is the result of the resume policy
type OpenedFile struct {
	File          *os.File // nil when the content was retrieved already
	Path          string
	Decision      domain.FileOpenDecision
	InitialOffset int64
}

// Close closes the file if one was opened
func (o *OpenedFile) Close() error {
	if o == nil || o.File == nil {
		return nil
	}
	err := o.File.Close()
	o.File = nil
	return err
}

// OpenOutputFile decides whether to write, append or skip and opens the file
// accordingly.
//
// When the local file already holds the whole content no file is opened and
// domain.ErrRetrievedAlready is returned together with the decision. Any
// filesystem failure is a *domain.TransferError with reason local-io.
func OpenOutputFile(req FileOpenRequest) (*OpenedFile, error) {
	result := &OpenedFile{Path: req.Path, Decision: domain.DecisionFreshWrite}

	if req.Overwrite {
		return result.openWith(os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0)
	}

	info, err := os.Stat(req.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if req.Offset > 0 {
			return nil, domain.NewTransferError(domain.ReasonLocalIO, err,
				"while opening file: %s: cannot resume from offset %d: file does not exist", req.Path, req.Offset)
		}
		return result.openWith(os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0)
	case err != nil:
		return nil, localIOError("stat", req.Path, err)
	}

	size := info.Size()

	if req.Offset > 0 {
		if size < req.Offset {
			return nil, domain.NewTransferError(domain.ReasonLocalIO, nil,
				"while opening file: %s: cannot resume from offset %d: file holds %d bytes", req.Path, req.Offset, size)
		}
		if err := os.Truncate(req.Path, req.Offset); err != nil {
			return nil, localIOError("truncate", req.Path, err)
		}
		result.Decision = domain.DecisionResumeAppend
		return result.openWith(os.O_WRONLY|os.O_APPEND, req.Offset)
	}

	if req.ContentLength <= 0 {
		return result.openWith(os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0)
	}

	if size >= req.ContentLength {
		result.Decision = domain.DecisionAlreadyComplete
		result.InitialOffset = size
		return result, domain.ErrRetrievedAlready
	}

	result.Decision = domain.DecisionResumeAppend
	return result.openWith(os.O_WRONLY|os.O_APPEND, size)
}

func (o *OpenedFile) openWith(flag int, offset int64) (*OpenedFile, error) {
	if err := o.open(flag, offset); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OpenedFile) open(flag int, offset int64) error {
	if dir := filepath.Dir(o.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return localIOError("mkdir", dir, err)
		}
	}

	file, err := os.OpenFile(o.Path, flag, 0644)
	if err != nil {
		return localIOError("open", o.Path, err)
	}

	o.File = file
	o.InitialOffset = offset
	return nil
}

func localIOError(op, path string, err error) error {
	var pathErr *fs.PathError
	text := err.Error()
	if errors.As(err, &pathErr) {
		text = pathErr.Err.Error()
	}
	return domain.NewTransferError(domain.ReasonLocalIO, err, "%s: while opening file: %s: %s", op, path, text)
}
