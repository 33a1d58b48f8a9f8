package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferRecord is one row of the transfer history
type TransferRecord struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	PageURL       string         `json:"page_url" gorm:"not null;index"`
	StreamURL     string         `json:"stream_url"`
	StreamID      string         `json:"stream_id,omitempty"`
	Status        TransferStatus `json:"status" gorm:"not null;index"`
	Mode          TransferMode   `json:"mode,omitempty"`
	Reason        Reason         `json:"reason,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	FilePath      string         `json:"file_path,omitempty"`
	InitialOffset int64          `json:"initial_offset"`
	BytesWritten  int64          `json:"bytes_written"`
	ContentLength int64          `json:"content_length"`
	ContentType   string         `json:"content_type,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (TransferRecord) TableName() string {
	return "transfers"
}

// NewTransferRecord creates a record for a transfer that is about to start
func NewTransferRecord(pageURL string) *TransferRecord {
	return &TransferRecord{
		ID:        uuid.New().String(),
		PageURL:   pageURL,
		StartedAt: time.Now(),
	}
}

// MarkFinished copies the outcome of a transfer into the record
func (r *TransferRecord) MarkFinished(result *TransferResult, err error) {
	now := time.Now()
	r.CompletedAt = &now

	if result != nil {
		r.Status = result.Status
		r.Mode = result.Mode
		if result.Stream != "" {
			r.StreamID = result.Stream
		}
		r.FilePath = result.FilePath
		r.InitialOffset = result.InitialOffset
		r.BytesWritten = result.BytesWritten
		r.ContentLength = result.ContentLength
		r.ContentType = result.ContentType
	}

	if err != nil {
		r.Status = TransferFailed
		r.Reason = ReasonOf(err)
		r.ErrorMessage = err.Error()
	} else if r.Status == "" {
		r.Status = TransferCompleted
	}
}

// Duration returns how long the transfer ran, or zero if it has not finished
func (r *TransferRecord) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// IsFailed checks if the transfer failed
func (r *TransferRecord) IsFailed() bool {
	return r.Status == TransferFailed
}
