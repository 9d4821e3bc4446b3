// Package mind implements the incremental personality-modeling pipeline:
// counter-driven triggers, tolerant extraction of model output, and the
// daydream/dream pipelines that turn conversation into persona rewrites.
package mind

// Trigger thresholds and window caps. The modular counts make each trigger
// fire exactly once per interval as long as the underlying count is
// monotonic and increments by one per event; no "already ran" flag needed.
const (
	// DaydreamInterval is the number of user turns between daydream runs.
	DaydreamInterval = 10

	// DreamInterval is the number of daydream snapshots between dream runs.
	DreamInterval = 5

	// ConversationWindow caps how many recent turns a daydream analyzes.
	ConversationWindow = 50

	// SnapshotWindow caps how many recent snapshots a dream synthesizes.
	SnapshotWindow = 50
)

// ShouldDaydream reports whether a daydream is due after the user's
// lifetime user-turn count reached userTurns (including the turn just
// written).
func ShouldDaydream(userTurns int64) bool {
	return userTurns > 0 && userTurns%DaydreamInterval == 0
}

// ShouldDream reports whether a dream is due after the archived daydream
// count reached snapshots (including the snapshot just written).
func ShouldDream(snapshots int64) bool {
	return snapshots >= DreamInterval && snapshots%DreamInterval == 0
}
