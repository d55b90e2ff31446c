package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// AppendTurns writes turns atomically. Zero CreatedAt values are stamped
// with the current time; turns keep their slice order on read-back.
func (s *Store) AppendTurns(ctx context.Context, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range turns {
			created := t.CreatedAt
			if created.IsZero() {
				created = now
			}
			_, err := s.exec(ctx, tx, `INSERT INTO agent_conversations
				(conversation_id, user_id, role, content, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				t.ConversationID, t.UserID, t.Role, t.Content, s.timeArg(created))
			if err != nil {
				return fmt.Errorf("insert turn: %w", err)
			}
		}
		return nil
	})
}

// RecentTurns returns up to limit of the latest turns of a user's
// conversation in chronological order. Turns of other users are never
// returned, whatever the conversation id.
func (s *Store) RecentTurns(ctx context.Context, userID, conversationID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, conversation_id, user_id, role, content, created_at
		FROM agent_conversations
		WHERE conversation_id = ? AND user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), conversationID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.UserID, &t.Role, &t.Content, timeColumn{&t.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	slices.Reverse(turns)
	return turns, nil
}

func (s *Store) SaveReasoningLog(ctx context.Context, log ReasoningLog) error {
	created := log.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	steps := log.Steps
	if len(steps) == 0 {
		steps = []byte("[]")
	}
	_, err := s.exec(ctx, s.db, `INSERT INTO agent_reasoning_logs
		(user_id, session_id, steps, total_iterations, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		log.UserID, log.SessionID, jsonArg(steps), log.TotalIterations, s.timeArg(created))
	if err != nil {
		return fmt.Errorf("insert reasoning log: %w", err)
	}
	return nil
}

// ReasoningLogs lists a user's reasoning logs, newest first.
func (s *Store) ReasoningLogs(ctx context.Context, userID string, limit int) ([]ReasoningLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, user_id, session_id, steps, total_iterations, created_at
		FROM agent_reasoning_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query reasoning logs: %w", err)
	}
	defer rows.Close()

	var logs []ReasoningLog
	for rows.Next() {
		var l ReasoningLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.SessionID, jsonColumn{&l.Steps}, &l.TotalIterations, timeColumn{&l.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan reasoning log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
