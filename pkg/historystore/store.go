package historystore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/VladimirKondr/netsimplex/internal/engine"
)

// SolveRecord is a completed solve's totals plus its full replay history,
// addressable by ID for later retrieval.
type SolveRecord struct {
	ID             string
	GraphHash      string
	ObjectiveValue float64
	Iterations     int
	History        []*engine.SolutionState
	CreatedAt      time.Time
}

// Store persists SolveRecords to Postgres.
type Store struct {
	db DB
}

// NewStore wraps a DB connection for solve-history persistence.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Save inserts a new SolveRecord, assigning it a fresh ID if none is set.
func (s *Store) Save(ctx context.Context, rec *SolveRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	data, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("historystore: marshal history: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO solve_history (id, graph_hash, objective_value, iterations, history)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.GraphHash, rec.ObjectiveValue, rec.Iterations, data,
	)
	if err != nil {
		return fmt.Errorf("historystore: insert: %w", err)
	}
	return nil
}

// Get retrieves a SolveRecord by ID.
func (s *Store) Get(ctx context.Context, id string) (*SolveRecord, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, graph_hash, objective_value, iterations, history, created_at
		 FROM solve_history WHERE id = $1`, id,
	)

	var rec SolveRecord
	var data []byte
	if err := row.Scan(&rec.ID, &rec.GraphHash, &rec.ObjectiveValue, &rec.Iterations, &data, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("historystore: get %s: %w", id, err)
	}

	if err := json.Unmarshal(data, &rec.History); err != nil {
		return nil, fmt.Errorf("historystore: unmarshal history: %w", err)
	}
	return &rec, nil
}

// ListByGraphHash returns the most recent solve records for a given graph
// hash, newest first, capped at limit.
func (s *Store) ListByGraphHash(ctx context.Context, graphHash string, limit int) ([]*SolveRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, graph_hash, objective_value, iterations, history, created_at
		 FROM solve_history WHERE graph_hash = $1 ORDER BY created_at DESC LIMIT $2`,
		graphHash, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("historystore: list: %w", err)
	}
	defer rows.Close()

	var records []*SolveRecord
	for rows.Next() {
		var rec SolveRecord
		var data []byte
		if err := rows.Scan(&rec.ID, &rec.GraphHash, &rec.ObjectiveValue, &rec.Iterations, &data, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("historystore: scan: %w", err)
		}
		if err := json.Unmarshal(data, &rec.History); err != nil {
			return nil, fmt.Errorf("historystore: unmarshal history: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("historystore: rows: %w", err)
	}
	return records, nil
}

// Delete removes a SolveRecord by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM solve_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("historystore: delete %s: %w", id, err)
	}
	return nil
}
