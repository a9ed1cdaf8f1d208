package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Source points a counter at the table holding its records.
type Source struct {
	Table       string
	OwnerColumn string
}

// DefaultSources maps every counter to the schema in internal/db/migrations.
var DefaultSources = map[Counter]Source{
	CounterInterviews:   {Table: "interviews", OwnerColumn: "candidate_id"},
	CounterAISessions:   {Table: "ai_sessions", OwnerColumn: "user_id"},
	CounterCVs:          {Table: "resumes", OwnerColumn: "user_id"},
	CounterCoverLetters: {Table: "cover_letters", OwnerColumn: "user_id"},
}

// PGStore counts records with one indexed COUNT(*) per call.
type PGStore struct {
	db      Querier
	queries map[Counter]string
}

// NewPGStore creates a store for the given sources; nil means DefaultSources.
// Counters missing from sources report ErrCounterUnsupported.
func NewPGStore(db Querier, sources map[Counter]Source) *PGStore {
	if sources == nil {
		sources = DefaultSources
	}
	queries := make(map[Counter]string, len(sources))
	for c, src := range sources {
		queries[c] = fmt.Sprintf(
			"SELECT count(*) FROM %s WHERE %s = $1 AND created_at >= $2",
			pgx.Identifier{src.Table}.Sanitize(),
			pgx.Identifier{src.OwnerColumn}.Sanitize(),
		)
	}
	return &PGStore{db: db, queries: queries}
}

func (s *PGStore) Count(ctx context.Context, counter Counter, userID uuid.UUID, since time.Time) (int64, error) {
	q, ok := s.queries[counter]
	if !ok {
		return 0, ErrCounterUnsupported
	}

	var n int64
	if err := s.db.QueryRow(ctx, q, userID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", counter, err)
	}
	return n, nil
}
