package infrastructure

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/mediaget-go/internal/domain"
	"gorm.io/gorm"
)

func setupTestRepo(t *testing.T) (*SQLiteTransferRepository, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "repo-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "history", "test.db")
	repo, err := NewSQLiteTransferRepository(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func completedRecord(url string, written int64) *domain.TransferRecord {
	record := domain.NewTransferRecord(url)
	record.MarkFinished(&domain.TransferResult{
		FilePath:     "/tmp/" + filepath.Base(url),
		Status:       domain.TransferCompleted,
		Mode:         domain.ModeWrite,
		BytesWritten: written,
	}, nil)
	return record
}

func TestCreateAndFindByID(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	record := completedRecord("https://example.com/a.mp4", 1000)
	require.NoError(t, repo.Create(record))

	found, err := repo.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
	assert.Equal(t, domain.TransferCompleted, found.Status)
	assert.Equal(t, domain.ModeWrite, found.Mode)
	assert.Equal(t, int64(1000), found.BytesWritten)
	assert.NotNil(t, found.CompletedAt)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.FindByID("missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestUpdate(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	record := domain.NewTransferRecord("https://example.com/a.mp4")
	record.Status = domain.TransferFailed
	require.NoError(t, repo.Create(record))

	record.MarkFinished(&domain.TransferResult{Status: domain.TransferSkipped, Mode: domain.ModeForcedSkip}, nil)
	require.NoError(t, repo.Update(record))

	found, err := repo.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferSkipped, found.Status)
	assert.Equal(t, domain.ModeForcedSkip, found.Mode)
}

func TestFindAll_FiltersAndOrder(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	older := completedRecord("https://example.com/a.mp4", 100)
	older.StartedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(older))

	newer := completedRecord("https://example.com/b.mp4", 200)
	require.NoError(t, repo.Create(newer))

	failed := domain.NewTransferRecord("https://example.com/c.mp4")
	failed.MarkFinished(nil, domain.NewTransferError(domain.ReasonNetwork, nil, "transport: boom"))
	require.NoError(t, repo.Create(failed))

	completed, err := repo.FindAll(map[string]interface{}{"status": domain.TransferCompleted}, 0)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	assert.Equal(t, newer.ID, completed[0].ID)
	assert.Equal(t, older.ID, completed[1].ID)

	limited, err := repo.FindAll(nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	byReason, err := repo.FindAll(map[string]interface{}{"reason": domain.ReasonNetwork}, 0)
	require.NoError(t, err)
	require.Len(t, byReason, 1)
	assert.Equal(t, "transport: boom", byReason[0].ErrorMessage)
}

func TestFindAll_RejectsUnknownFilter(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	_, err := repo.FindAll(map[string]interface{}{"1=1; --": "x"}, 0)
	assert.Error(t, err)
}

func TestGetStats(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, &domain.TransferStats{}, stats)

	require.NoError(t, repo.Create(completedRecord("https://example.com/a.mp4", 100)))
	require.NoError(t, repo.Create(completedRecord("https://example.com/b.mp4", 250)))

	skipped := domain.NewTransferRecord("https://example.com/c.mp4")
	skipped.MarkFinished(&domain.TransferResult{Status: domain.TransferSkipped}, nil)
	require.NoError(t, repo.Create(skipped))

	failed := domain.NewTransferRecord("https://example.com/d.mp4")
	failed.MarkFinished(nil, assert.AnError)
	require.NoError(t, repo.Create(failed))

	stats, err = repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Completed)
	assert.Equal(t, int64(1), stats.Skipped)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(350), stats.BytesTotal)
}
