package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pharmadesk/pharmadesk/internal/ingest/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Job{}))
	return db
}

func insertJob(t *testing.T, db *gorm.DB, r domain.Repository, status string) uuid.UUID {
	t.Helper()
	job := &domain.Job{
		ID:         uuid.New(),
		SourceKind: domain.SourceReceiptText,
		Status:     status,
	}
	require.NoError(t, r.Insert(context.Background(), db, job))
	return job.ID
}

func TestInsertAndFind(t *testing.T) {
	db := testDB(t)
	r := Provide()
	ctx := context.Background()

	id := insertJob(t, db, r, domain.StatusQueued)

	job, err := r.FindByID(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, domain.StatusQueued, job.Status)

	_, err = r.FindByID(ctx, db, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMarkTerminal_OnlyOnce(t *testing.T) {
	db := testDB(t)
	r := Provide()
	ctx := context.Background()

	id := insertJob(t, db, r, domain.StatusRunning)

	require.NoError(t, r.MarkTerminal(ctx, db, &domain.Job{
		ID:       id,
		Status:   domain.StatusCompleted,
		Progress: 100,
		Stats:    datatypes.JSONMap{"saved": 3},
	}))

	// A later failure report must not overwrite the completed row.
	require.NoError(t, r.MarkTerminal(ctx, db, &domain.Job{
		ID:     id,
		Status: domain.StatusFailed,
		Error:  "worker crashed",
	}))

	job, err := r.FindByID(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, 100.0, job.Progress)
	assert.Empty(t, job.Error)
}

func TestFailStaleRunning(t *testing.T) {
	db := testDB(t)
	r := Provide()
	ctx := context.Background()

	queued := insertJob(t, db, r, domain.StatusQueued)
	running := insertJob(t, db, r, domain.StatusRunning)
	completed := insertJob(t, db, r, domain.StatusCompleted)

	n, err := r.FailStaleRunning(ctx, db, "interrupted by restart")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []uuid.UUID{queued, running} {
		job, err := r.FindByID(ctx, db, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, job.Status)
		assert.Equal(t, "interrupted by restart", job.Error)
	}

	job, err := r.FindByID(ctx, db, completed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
}

func TestListNewestFirst(t *testing.T) {
	db := testDB(t)
	r := Provide()
	ctx := context.Background()

	first := insertJob(t, db, r, domain.StatusCompleted)
	second := insertJob(t, db, r, domain.StatusQueued)

	jobs, err := r.List(ctx, db, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	ids := []uuid.UUID{jobs[0].ID, jobs[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)

	jobs, err = r.List(ctx, db, 1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	r := Provide()
	ctx := context.Background()

	id := insertJob(t, db, r, domain.StatusCompleted)
	require.NoError(t, r.Delete(ctx, db, id))

	_, err := r.FindByID(ctx, db, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Deleting a missing row is a no-op, not an error.
	assert.NoError(t, r.Delete(ctx, db, uuid.New()))
}
