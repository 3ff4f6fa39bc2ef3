package db

import (
	"context"
	"fmt"
	"time"
)

// InsertConversation appends one chat exchange to the conversation log.
func (db *DB) InsertConversation(ctx context.Context, conv *Conversation) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO conversations (id, candidate_id, ip_hash, question, answer, response_time_ms)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		conv.ID, conv.CandidateID, conv.IPHash, conv.Question, conv.Answer, conv.ResponseTimeMS,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

// CountConversationsSince counts chat events for one hashed caller
// identity at or after the given time. The rate limiter recomputes this
// on every check; nothing is cached between calls.
func (db *DB) CountConversationsSince(ctx context.Context, candidateID int64, ipHash string, since time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversations
		 WHERE candidate_id = $1 AND ip_hash = $2 AND created_at >= $3`,
		candidateID, ipHash, since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}

// RecentConversations returns the latest exchanges for a candidate,
// newest first.
func (db *DB) RecentConversations(ctx context.Context, candidateID int64, limit int) ([]*Conversation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, candidate_id, ip_hash, question, answer, response_time_ms, created_at
		 FROM conversations
		 WHERE candidate_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		candidateID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(
			&conv.ID, &conv.CandidateID, &conv.IPHash,
			&conv.Question, &conv.Answer, &conv.ResponseTimeMS, &conv.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}
