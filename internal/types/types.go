// Package types defines the shared data model for the Reverie companion:
// conversation turns, the live persona, and the append-only analysis archive
// (daydream snapshots and dream records).
package types

import "time"

// Role identifies the author of a chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Archive record kinds.
const (
	KindDaydream = "daydream"
	KindDream    = "dream"
)

// ChatTurn is one message in a user's conversation log. Turns are immutable
// once written and ordered by Seq ascending.
type ChatTurn struct {
	ID        string
	UserID    string
	Role      Role
	Content   string
	Seq       int64
	CreatedAt time.Time
}

// Persona is the single live behavioral description applied to the
// assistant's replies for one user. Mutated only by the dream pipeline and
// the lazy-create path.
type Persona struct {
	Text      string
	UpdatedAt time.Time
}

// TraitScore is one Big Five dimension of a personality analysis.
type TraitScore struct {
	Score    int    `yaml:"score"`
	Reason   string `yaml:"reason"`
	Evidence string `yaml:"evidence"`
}

// TraitScores is the structured payload of a daydream analysis. Scores are
// expected in 1..5 but out-of-range values are carried as-is; range policing
// belongs to data-quality monitoring, not the pipeline.
type TraitScores struct {
	Openness          TraitScore `yaml:"openness"`
	Conscientiousness TraitScore `yaml:"conscientiousness"`
	Extraversion      TraitScore `yaml:"extraversion"`
	Agreeableness     TraitScore `yaml:"agreeableness"`
	Neuroticism       TraitScore `yaml:"neuroticism"`
	Summary           string     `yaml:"summary"`
}

// PersonalitySnapshot is one immutable daydream record in the analysis
// archive. SourceTurnIDs identify the conversation window it was derived
// from, for auditability.
type PersonalitySnapshot struct {
	ID            string
	Kind          string // always KindDaydream
	CreatedAt     time.Time
	Traits        TraitScores
	SourceTurnIDs []string
}

// DreamRecord is one immutable dream-synthesis record. Writing one also
// overwrites the live persona as a side effect.
type DreamRecord struct {
	ID                string
	Kind              string // always KindDream
	CreatedAt         time.Time
	PersonaText       string
	SourceSnapshotIDs []string
}
