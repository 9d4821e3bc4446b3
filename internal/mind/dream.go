package mind

import (
	"context"
	"fmt"
	"strings"

	"reverie/internal/logging"
	"reverie/internal/model"
)

// RunDream synthesizes the user's recent daydream snapshots plus the
// current persona into a new persona text. The archive write and the
// persona update land in one transaction.
//
// Safe to invoke directly: with fewer than DreamInterval snapshots it is a
// no-op even though the trigger normally guarantees the threshold.
func (p *Pipelines) RunDream(ctx context.Context, userID string) error {
	timer := logging.StartTimer(logging.CategoryDream, "RunDream")
	defer timer.Stop()

	snaps, err := p.archive.ListRecentSnapshots(userID, SnapshotWindow)
	if err != nil {
		return fmt.Errorf("failed to load snapshot window: %w", err)
	}
	if len(snaps) < DreamInterval {
		logging.Dream("Only %d snapshots for user %s, skipping", len(snaps), userID)
		return nil
	}

	// The store returns newest first; the prompt wants chronological order.
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}

	persona, err := p.archive.GetOrCreatePersona(userID, DefaultPersonaText)
	if err != nil {
		return fmt.Errorf("failed to load persona: %w", err)
	}

	var b strings.Builder
	b.WriteString(dreamPrompt)
	b.WriteString("\nCurrent persona:\n")
	b.WriteString(persona.Text)
	b.WriteString("\n\nAnalyses, oldest first:\n")
	b.WriteString(renderSnapshots(snaps))

	raw, err := p.model.Generate(ctx, model.Request{Prompt: b.String()})
	if err != nil {
		return fmt.Errorf("dream generation failed: %w", err)
	}

	// Dream output is plain persona text, not structured.
	newPersona := strings.TrimSpace(raw)
	if newPersona == "" {
		logging.Get(logging.CategoryDream).Warn("Empty persona synthesis for user %s, aborting without write", userID)
		return nil
	}

	sourceIDs := make([]string, len(snaps))
	for i, snap := range snaps {
		sourceIDs[i] = snap.ID
	}

	rec, err := p.archive.AppendDreamAndUpdatePersona(userID, newPersona, sourceIDs)
	if err != nil {
		return fmt.Errorf("failed to archive dream: %w", err)
	}

	logging.Dream("Archived dream %s for user %s, persona rewritten (%d chars)", rec.ID, userID, len(newPersona))
	return nil
}
