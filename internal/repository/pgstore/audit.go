package pgstore

import (
	"context"
	"fmt"

	"github.com/evetabi/prediction/internal/domain"
	"github.com/google/uuid"
)

func logTransition(ctx context.Context, db dbtx, predictionID domain.RowId, entity, from, to, reason string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transition_log (id, prediction_id, entity, from_state, to_state, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.New(), predictionID, entity, from, to, reason)
	if err != nil {
		return fmt.Errorf("pgstore.logTransition: %w", err)
	}
	return nil
}

// Store method wrapper

func (s *Store) LogTransition(ctx context.Context, predictionID domain.RowId, entity, from, to, reason string) error {
	return logTransition(ctx, s.db, predictionID, entity, from, to, reason)
}

// txStore method wrapper

func (t *txStore) LogTransition(ctx context.Context, predictionID domain.RowId, entity, from, to, reason string) error {
	return logTransition(ctx, t.tx, predictionID, entity, from, to, reason)
}
