package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"reverie/internal/logging"
	"reverie/internal/types"
)

// AppendTurn writes one chat turn to the user's conversation log and
// returns it with its assigned sequence number. Turns are never mutated
// after this point.
func (s *Store) AppendTurn(userID string, role types.Role, content string) (*types.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := &types.ChatTurn{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	// Sequence assignment and insert run under the store mutex, so two
	// appends for the same user cannot race on MAX(seq).
	err := s.db.QueryRow(
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_turns WHERE user_id = ?", userID,
	).Scan(&turn.Seq)
	if err != nil {
		return nil, fmt.Errorf("failed to assign turn sequence: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO chat_turns (id, user_id, role, content, seq, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.UserID, string(turn.Role), turn.Content, turn.Seq,
		turn.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to append turn for %s: %v", userID, err)
		return nil, fmt.Errorf("failed to append turn: %w", err)
	}

	logging.StoreDebug("Appended turn: user=%s role=%s seq=%d", userID, role, turn.Seq)
	return turn, nil
}

// ListRecentTurns returns the most recent turns for a user ordered oldest
// to newest, ready for transcript rendering.
func (s *Store) ListRecentTurns(userID string, limit int) ([]types.ChatTurn, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListRecentTurns")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, user_id, role, content, seq, created_at
		 FROM chat_turns
		 WHERE user_id = ?
		 ORDER BY seq DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	turns := make([]types.ChatTurn, 0, limit)
	for rows.Next() {
		var turn types.ChatTurn
		var role, createdAt string
		if err := rows.Scan(&turn.ID, &turn.UserID, &role, &turn.Content, &turn.Seq, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = types.Role(role)
		turn.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read turns: %w", err)
	}

	// Query returns newest first; reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// CountUserTurns returns the lifetime number of user-authored turns. The
// daydream trigger depends on this being a full count, not a page-limited
// one, so the modulo check stays consistent across calls.
func (s *Store) CountUserTurns(userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM chat_turns WHERE user_id = ? AND role = ?",
		userID, string(types.RoleUser),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count user turns: %w", err)
	}
	return count, nil
}
