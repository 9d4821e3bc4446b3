package store

import (
	"fmt"
	"testing"

	"reverie/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendTurn_AssignsMonotonicSeq(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 3; i++ {
		turn, err := s.AppendTurn("ada", types.RoleUser, fmt.Sprintf("message %d", i))
		if err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
		if turn.Seq != int64(i) {
			t.Errorf("Expected seq %d, got %d", i, turn.Seq)
		}
		if turn.ID == "" {
			t.Error("Expected a turn ID")
		}
	}

	// Sequences are per user.
	turn, err := s.AppendTurn("grace", types.RoleUser, "hello")
	if err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if turn.Seq != 1 {
		t.Errorf("Expected seq 1 for a new user, got %d", turn.Seq)
	}
}

func TestListRecentTurns_ChronologicalWindow(t *testing.T) {
	s := newTestStore(t)

	for i := 1; i <= 10; i++ {
		role := types.RoleUser
		if i%2 == 0 {
			role = types.RoleAssistant
		}
		if _, err := s.AppendTurn("ada", role, fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}

	turns, err := s.ListRecentTurns("ada", 4)
	if err != nil {
		t.Fatalf("ListRecentTurns failed: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("Expected 4 turns, got %d", len(turns))
	}

	// The window is the most recent turns, oldest first.
	for i, want := range []string{"turn 7", "turn 8", "turn 9", "turn 10"} {
		if turns[i].Content != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, turns[i].Content)
		}
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].Seq <= turns[i-1].Seq {
			t.Error("Expected strictly ascending sequence order")
		}
	}
}

func TestListRecentTurns_EmptyLog(t *testing.T) {
	s := newTestStore(t)

	turns, err := s.ListRecentTurns("nobody", 50)
	if err != nil {
		t.Fatalf("ListRecentTurns failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("Expected empty window, got %d turns", len(turns))
	}
}

func TestCountUserTurns_IgnoresAssistant(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		s.AppendTurn("ada", types.RoleUser, "hi")
		s.AppendTurn("ada", types.RoleAssistant, "hello")
	}
	s.AppendTurn("grace", types.RoleUser, "hi")

	count, err := s.CountUserTurns("ada")
	if err != nil {
		t.Fatalf("CountUserTurns failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 user turns, got %d", count)
	}
}
