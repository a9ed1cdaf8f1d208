package usage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepdeck/prepdeck/pkg/usage"
)

type fakeRow struct {
	n   int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.n
	return nil
}

type fakeQuerier struct {
	row  fakeRow
	sql  string
	args []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	q.args = args
	return q.row
}

func TestPGStore(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("counts interviews by candidate", func(t *testing.T) {
		t.Parallel()
		db := &fakeQuerier{row: fakeRow{n: 4}}

		n, err := usage.NewPGStore(db, nil).Count(context.Background(), usage.CounterInterviews, userID, since)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.Equal(t, `SELECT count(*) FROM "interviews" WHERE "candidate_id" = $1 AND created_at >= $2`, db.sql)
		assert.Equal(t, []any{userID, since}, db.args)
	})

	t.Run("uses resumes table for cvs", func(t *testing.T) {
		t.Parallel()
		db := &fakeQuerier{row: fakeRow{n: 1}}

		_, err := usage.NewPGStore(db, nil).Count(context.Background(), usage.CounterCVs, userID, since)
		require.NoError(t, err)
		assert.Contains(t, db.sql, `"resumes"`)
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("conn closed")
		db := &fakeQuerier{row: fakeRow{err: cause}}

		_, err := usage.NewPGStore(db, nil).Count(context.Background(), usage.CounterCVs, userID, since)
		require.ErrorIs(t, err, cause)
	})

	t.Run("counter without a source is unsupported", func(t *testing.T) {
		t.Parallel()
		db := &fakeQuerier{}
		store := usage.NewPGStore(db, map[usage.Counter]usage.Source{
			usage.CounterInterviews: usage.DefaultSources[usage.CounterInterviews],
		})

		_, err := store.Count(context.Background(), usage.CounterAISessions, userID, since)
		require.ErrorIs(t, err, usage.ErrCounterUnsupported)
		assert.Empty(t, db.sql)
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	other := uuid.New()
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	store := usage.NewMemoryStore(usage.CounterInterviews)
	store.Record(usage.CounterInterviews, userID, since.Add(-time.Second))
	store.Record(usage.CounterInterviews, userID, since)
	store.Record(usage.CounterInterviews, userID, since.Add(time.Hour))
	store.Record(usage.CounterInterviews, other, since.Add(time.Hour))

	n, err := store.Count(context.Background(), usage.CounterInterviews, userID, since)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.Count(context.Background(), usage.CounterCVs, userID, since)
	require.ErrorIs(t, err, usage.ErrCounterUnsupported)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Count(ctx, usage.CounterInterviews, userID, since)
	require.ErrorIs(t, err, context.Canceled)
}
