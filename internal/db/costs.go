package db

import (
	"context"
	"fmt"
	"time"
)

// InsertCostLog records the cost of one provider call.
func (db *DB) InsertCostLog(ctx context.Context, log *CostLog) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO cost_logs (id, candidate_id, model, input_tokens, output_tokens, cost_usd, operation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.CandidateID, log.Model, log.InputTokens, log.OutputTokens, log.CostUSD, log.Operation,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cost log: %w", err)
	}
	return nil
}

// DailyCost sums provider spend for a candidate since the given time,
// typically the start of the current UTC day.
func (db *DB) DailyCost(ctx context.Context, candidateID int64, since time.Time) (float64, error) {
	var total float64
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(cost_usd), 0) FROM cost_logs
		 WHERE candidate_id = $1 AND created_at >= $2`,
		candidateID, since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum daily cost: %w", err)
	}
	return total, nil
}
