package store

import (
	"database/sql"
	"fmt"
	"time"

	"reverie/internal/logging"
	"reverie/internal/types"
)

// GetPersona returns the user's live persona, or nil when none exists.
func (s *Store) GetPersona(userID string) (*types.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPersonaLocked(userID)
}

func (s *Store) getPersonaLocked(userID string) (*types.Persona, error) {
	var text, updatedAt string
	err := s.db.QueryRow(
		"SELECT text, updated_at FROM personas WHERE user_id = ?", userID,
	).Scan(&text, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}

	p := &types.Persona{Text: text}
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}

// GetOrCreatePersona returns the user's persona, creating it with the given
// default text on first access. Lazy creation is an explicit operation here
// rather than a side effect buried in a read path.
func (s *Store) GetOrCreatePersona(userID, defaultText string) (*types.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getPersonaLocked(userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = &types.Persona{Text: defaultText, UpdatedAt: time.Now().UTC()}
	_, err = s.db.Exec(
		"INSERT INTO personas (user_id, text, updated_at) VALUES (?, ?, ?)",
		userID, p.Text, p.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create persona: %w", err)
	}

	logging.Store("Created default persona for user %s", userID)
	return p, nil
}

// UpdatePersona overwrites the user's persona text and advances its
// timestamp. Only the dream pipeline calls this outside of tests.
func (s *Store) UpdatePersona(userID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		`INSERT INTO personas (user_id, text, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at`,
		userID, text, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update persona: %w", err)
	}

	logging.Store("Updated persona for user %s (%d chars)", userID, len(text))
	return nil
}
