package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ResumeMode selects how a transfer treats an existing local file
type ResumeMode int

const (
	ResumeNone           ResumeMode = iota // no probe, no range request
	ResumeAuto                             // probe first, continue from the local file size
	ResumeFromOffset                       // continue from a caller-supplied byte offset
	ResumeForceOverwrite                   // always truncate the local file
)

// String returns the config form of the mode
func (m ResumeMode) String() string {
	switch m {
	case ResumeNone:
		return "none"
	case ResumeAuto:
		return "auto"
	case ResumeFromOffset:
		return "offset"
	case ResumeForceOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("ResumeMode(%d)", int(m))
	}
}

// ResumeFrom is the resume setting of one transfer
type ResumeFrom struct {
	Mode   ResumeMode
	Offset int64 // only meaningful with ResumeFromOffset
}

// ParseResumeFrom parses "none", "auto", "overwrite" or a byte offset.
//
// The legacy signed form is still accepted: 0 is auto, a positive number an
// offset and a negative number forces an overwrite. The second return value
// reports whether the legacy negative form was used.
func ParseResumeFrom(s string) (ResumeFrom, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ResumeFrom{Mode: ResumeAuto}, false, nil
	case "none", "off":
		return ResumeFrom{Mode: ResumeNone}, false, nil
	case "overwrite":
		return ResumeFrom{Mode: ResumeForceOverwrite}, false, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return ResumeFrom{}, false, fmt.Errorf("invalid resume value %q: expected none, auto, overwrite or a byte offset", s)
	}
	switch {
	case n == 0:
		return ResumeFrom{Mode: ResumeAuto}, false, nil
	case n > 0:
		return ResumeFrom{Mode: ResumeFromOffset, Offset: n}, false, nil
	default:
		return ResumeFrom{Mode: ResumeForceOverwrite}, true, nil
	}
}

// String returns the config form of the setting
func (r ResumeFrom) String() string {
	if r.Mode == ResumeFromOffset {
		return strconv.FormatInt(r.Offset, 10)
	}
	return r.Mode.String()
}

// OutputOptions holds the output-path construction parameters
type OutputOptions struct {
	File  string   // used verbatim when set
	Name  string   // naming template
	Dir   string   // empty means current working directory
	Regex []string // rewrite rules keyed by sequence
}

// ExecOptions configures commands run after a transfer
type ExecOptions struct {
	Commands     []string
	EnableStdout bool
	EnableStderr bool
	DumpArgv     bool
}

// ErrorReporter receives every recoverable or fatal condition of a transfer
type ErrorReporter func(reason Reason, message string)

// TransferRequest is the input of one transfer. It is not modified while
// the transfer runs.
type TransferRequest struct {
	Media        *Media
	Stream       string // stream selection, empty selects the default stream
	Output       OutputOptions
	Overwrite    bool
	SkipTransfer bool
	Resume       ResumeFrom
	Exec         ExecOptions
	ReportError  ErrorReporter
}

// Report forwards an error to the request's reporter, if any
func (r *TransferRequest) Report(reason Reason, message string) {
	if r.ReportError != nil {
		r.ReportError(reason, message)
	}
}

// TransferStatus is the overall outcome of a transfer
type TransferStatus string

const (
	TransferCompleted TransferStatus = "completed"
	TransferSkipped   TransferStatus = "skipped"
	TransferFailed    TransferStatus = "failed"
)

// TransferMode is the mode shown in the progress header
type TransferMode string

const (
	ModeWrite            TransferMode = "write"
	ModeResume           TransferMode = "resume"
	ModeRetrievedAlready TransferMode = "retrieved-already"
	ModeForcedSkip       TransferMode = "forced-skip"
)

// TransferResult is the outcome of one transfer
type TransferResult struct {
	ID            string         `json:"id,omitempty"` // history record id
	FilePath      string         `json:"file_path,omitempty"`
	Status        TransferStatus `json:"status"`
	Mode          TransferMode   `json:"mode,omitempty"`
	Stream        string         `json:"stream,omitempty"`
	InitialOffset int64          `json:"initial_offset"`
	BytesWritten  int64          `json:"bytes_written"`
	ContentLength int64          `json:"content_length"`
	ContentType   string         `json:"content_type,omitempty"`
}

// Succeeded reports whether the transfer completed or was skipped
func (r *TransferResult) Succeeded() bool {
	return r != nil && (r.Status == TransferCompleted || r.Status == TransferSkipped)
}

// ContentProbe is metadata learned before streaming begins
type ContentProbe struct {
	Length      int64  // 0 means unknown
	ContentType string // may be empty
}

// FileOpenDecision is how the local output file is opened
type FileOpenDecision int

const (
	DecisionFreshWrite FileOpenDecision = iota
	DecisionResumeAppend
	DecisionAlreadyComplete
)

// String returns a readable name of the decision
func (d FileOpenDecision) String() string {
	switch d {
	case DecisionFreshWrite:
		return "fresh-write"
	case DecisionResumeAppend:
		return "resume-append"
	case DecisionAlreadyComplete:
		return "already-complete"
	default:
		return fmt.Sprintf("FileOpenDecision(%d)", int(d))
	}
}
