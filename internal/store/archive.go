package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reverie/internal/logging"
	"reverie/internal/types"
)

// Archive records are append-only. Nothing in this file updates or deletes
// rows in analyses except whole-user erasure in DeleteUserData.

func nextArchiveSeq(q *sql.Tx, userID, kind string) (int64, error) {
	var seq int64
	err := q.QueryRow(
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM analyses WHERE user_id = ? AND kind = ?",
		userID, kind,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to assign archive sequence: %w", err)
	}
	return seq, nil
}

// AppendSnapshot archives one daydream personality snapshot and returns it.
func (s *Store) AppendSnapshot(userID string, traits types.TraitScores, sourceTurnIDs []string) (*types.PersonalitySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &types.PersonalitySnapshot{
		ID:            uuid.NewString(),
		Kind:          types.KindDaydream,
		CreatedAt:     time.Now().UTC(),
		Traits:        traits,
		SourceTurnIDs: sourceTurnIDs,
	}

	traitsJSON, err := json.Marshal(traits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode traits: %w", err)
	}
	sourceJSON, err := json.Marshal(sourceTurnIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode source refs: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextArchiveSeq(tx, userID, types.KindDaydream)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		`INSERT INTO analyses (id, user_id, kind, seq, traits_json, source_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, userID, snap.Kind, seq, string(traitsJSON), string(sourceJSON),
		snap.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to append snapshot for %s: %v", userID, err)
		return nil, fmt.Errorf("failed to append snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logging.Store("Archived daydream snapshot for user %s (seq=%d, sources=%d)", userID, seq, len(sourceTurnIDs))
	return snap, nil
}

// ListRecentSnapshots returns the most recent daydream snapshots for a user,
// newest first. Callers that need chronological order reverse the slice.
func (s *Store) ListRecentSnapshots(userID string, limit int) ([]types.PersonalitySnapshot, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListRecentSnapshots")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, traits_json, source_ids, created_at
		 FROM analyses
		 WHERE user_id = ? AND kind = ?
		 ORDER BY seq DESC
		 LIMIT ?`,
		userID, types.KindDaydream, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	snaps := make([]types.PersonalitySnapshot, 0, limit)
	for rows.Next() {
		var snap types.PersonalitySnapshot
		var traitsJSON, sourceJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&snap.ID, &traitsJSON, &sourceJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snap.Kind = types.KindDaydream
		snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if traitsJSON.Valid {
			if err := json.Unmarshal([]byte(traitsJSON.String), &snap.Traits); err != nil {
				return nil, fmt.Errorf("failed to decode traits: %w", err)
			}
		}
		if sourceJSON.Valid {
			if err := json.Unmarshal([]byte(sourceJSON.String), &snap.SourceTurnIDs); err != nil {
				return nil, fmt.Errorf("failed to decode source refs: %w", err)
			}
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}

	return snaps, nil
}

// CountSnapshots returns the number of archived records of the given kind.
func (s *Store) CountSnapshots(userID, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM analyses WHERE user_id = ? AND kind = ?",
		userID, kind,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// AppendDreamAndUpdatePersona archives a dream record and overwrites the
// live persona in a single transaction. Either both writes land or neither
// does; a dream must never leave the archive and the persona disagreeing.
func (s *Store) AppendDreamAndUpdatePersona(userID, personaText string, sourceSnapshotIDs []string) (*types.DreamRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &types.DreamRecord{
		ID:                uuid.NewString(),
		Kind:              types.KindDream,
		CreatedAt:         time.Now().UTC(),
		PersonaText:       personaText,
		SourceSnapshotIDs: sourceSnapshotIDs,
	}

	sourceJSON, err := json.Marshal(sourceSnapshotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode source refs: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextArchiveSeq(tx, userID, types.KindDream)
	if err != nil {
		return nil, err
	}

	createdAt := rec.CreatedAt.Format(time.RFC3339Nano)
	_, err = tx.Exec(
		`INSERT INTO analyses (id, user_id, kind, seq, persona_text, source_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, userID, rec.Kind, seq, rec.PersonaText, string(sourceJSON), createdAt,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to append dream for %s: %v", userID, err)
		return nil, fmt.Errorf("failed to append dream record: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO personas (user_id, text, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at`,
		userID, personaText, createdAt,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to update persona for %s: %v", userID, err)
		return nil, fmt.Errorf("failed to update persona: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit dream: %w", err)
	}

	logging.Store("Archived dream record for user %s (seq=%d) and updated persona", userID, seq)
	return rec, nil
}
