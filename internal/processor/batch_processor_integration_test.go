package processor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"nexlyon/server/internal/database"
	"nexlyon/server/internal/models"
	"nexlyon/server/internal/queue"
)

func setupTestDB(t testing.TB) (*database.Database, *gorm.DB) {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	gdb, err := db.Gorm()
	require.NoError(t, err)
	return db, gdb
}

func TestArchiveIntegration(t *testing.T) {
	// Setup
	db, gdb := setupTestDB(t)
	cfg := testConfig()
	logger := logrus.New()

	analysisQueue := queue.NewAnalysisQueue(cfg.Archive.BufferSize, logger)
	processor := NewBatchProcessor(gdb, analysisQueue, cfg, logger)
	processor.Start()

	first := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	require.NoError(t, processor.Archive([]models.AnalysisRecord{
		{PropertyID: 1, Score: 6.5, ROI5yr: 12.1, AnalyzedAt: first},
		{PropertyID: 2, Score: 3.0, ROI5yr: -4.2, AnalyzedAt: first},
	}))
	require.NoError(t, processor.Archive([]models.AnalysisRecord{
		{PropertyID: 1, Score: 8.0, ROI5yr: 31.5, IsUndervalued: true, Summary: "BUY", AnalyzedAt: second},
	}))

	processor.Stop()

	var count int64
	require.NoError(t, gdb.Model(&models.AnalysisRecord{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	history, err := db.GetAnalysisHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 6.5, history[0].Score)
	assert.Equal(t, 8.0, history[1].Score)
	assert.True(t, history[1].IsUndervalued)
	assert.Equal(t, "BUY", history[1].Summary)
	assert.True(t, second.Equal(history[1].AnalyzedAt))
}
