package mind

import (
	"context"
	"errors"
	"fmt"

	"reverie/internal/logging"
	"reverie/internal/model"
	"reverie/internal/types"
)

// ErrNoExtraction is returned when the model's reply held no parseable
// trait analysis. The pipeline aborts without writing; callers log it.
var ErrNoExtraction = errors.New("no trait analysis extracted from model output")

// Archive is the store surface the pipelines consume. *store.Store
// satisfies it; tests substitute fakes.
type Archive interface {
	ListRecentTurns(userID string, limit int) ([]types.ChatTurn, error)
	AppendSnapshot(userID string, traits types.TraitScores, sourceTurnIDs []string) (*types.PersonalitySnapshot, error)
	ListRecentSnapshots(userID string, limit int) ([]types.PersonalitySnapshot, error)
	CountSnapshots(userID, kind string) (int64, error)
	GetOrCreatePersona(userID, defaultText string) (*types.Persona, error)
	AppendDreamAndUpdatePersona(userID, personaText string, sourceSnapshotIDs []string) (*types.DreamRecord, error)
}

// Pipelines runs the daydream and dream pipelines against explicit
// dependencies. No global store or model handles.
type Pipelines struct {
	archive Archive
	model   model.Client
}

// New creates the pipeline runner.
func New(archive Archive, client model.Client) *Pipelines {
	return &Pipelines{archive: archive, model: client}
}

// RunDaydream analyzes the user's recent conversation into a personality
// snapshot. An empty conversation window is a no-op, not an error. On
// success it evaluates the dream trigger against the new archive state and
// runs the dream pipeline when due.
//
// Errors are terminal for this invocation only; the caller decides whether
// to surface them (the background runner logs and swallows).
func (p *Pipelines) RunDaydream(ctx context.Context, userID string) error {
	timer := logging.StartTimer(logging.CategoryDaydream, "RunDaydream")
	defer timer.Stop()

	turns, err := p.archive.ListRecentTurns(userID, ConversationWindow)
	if err != nil {
		return fmt.Errorf("failed to load conversation window: %w", err)
	}
	if len(turns) == 0 {
		logging.Daydream("No conversation for user %s, skipping", userID)
		return nil
	}

	prompt := daydreamPrompt + renderTranscript(turns)

	// One-shot completion: no history, no system instruction. Only the
	// live chat call attaches the persona.
	raw, err := p.model.Generate(ctx, model.Request{Prompt: prompt})
	if err != nil {
		return fmt.Errorf("daydream generation failed: %w", err)
	}

	traits, ok := ExtractTraitScores(raw)
	if !ok {
		logging.Get(logging.CategoryDaydream).Warn("Unparseable analysis for user %s (%d chars), aborting without write", userID, len(raw))
		return ErrNoExtraction
	}

	sourceIDs := make([]string, len(turns))
	for i, turn := range turns {
		sourceIDs[i] = turn.ID
	}

	snap, err := p.archive.AppendSnapshot(userID, *traits, sourceIDs)
	if err != nil {
		return fmt.Errorf("failed to archive snapshot: %w", err)
	}
	logging.Daydream("Archived snapshot %s for user %s (window=%d turns)", snap.ID, userID, len(turns))

	count, err := p.archive.CountSnapshots(userID, types.KindDaydream)
	if err != nil {
		return fmt.Errorf("failed to count snapshots: %w", err)
	}
	if ShouldDream(count) {
		logging.Daydream("Dream trigger satisfied for user %s (snapshots=%d)", userID, count)
		return p.RunDream(ctx, userID)
	}

	return nil
}
