package domain

// TransferRepository defines the interface for transfer history persistence
type TransferRepository interface {
	// Create stores a new record
	Create(record *TransferRecord) error

	// Update updates an existing record
	Update(record *TransferRecord) error

	// FindByID finds a record by ID
	FindByID(id string) (*TransferRecord, error)

	// FindAll finds records with optional filters, newest first
	FindAll(filters map[string]interface{}, limit int) ([]*TransferRecord, error)

	// GetStats returns transfer statistics
	GetStats() (*TransferStats, error)

	// Close releases the underlying storage
	Close() error
}

// TransferStats represents transfer statistics
type TransferStats struct {
	Total      int64 `json:"total"`
	Completed  int64 `json:"completed"`
	Skipped    int64 `json:"skipped"`
	Failed     int64 `json:"failed"`
	BytesTotal int64 `json:"bytes_total"`
}

// HistoryFilterKeys are the record columns FindAll accepts as filters
var HistoryFilterKeys = map[string]bool{
	"status":    true,
	"page_url":  true,
	"stream_id": true,
	"reason":    true,
}
