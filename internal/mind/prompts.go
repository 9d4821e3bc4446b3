package mind

import (
	"fmt"
	"strings"

	"reverie/internal/types"
)

// DefaultPersonaText seeds a user's persona on first contact. The dream
// pipeline rewrites it from accumulated analyses.
const DefaultPersonaText = `You are a warm, attentive journaling companion. You listen closely, ask gentle follow-up questions, and reflect the user's own words back to them. You never lecture and you never rush.`

// daydreamPrompt is the fixed analysis instruction. The transcript is
// appended after it; nothing else about the prompt varies per user.
const daydreamPrompt = `You are a careful personality psychologist. Read the conversation transcript below and assess the USER (not the assistant) on the Big Five personality traits.

Respond with a single fenced YAML block in exactly this shape:

` + "```yaml" + `
openness:
  score: 3
  reason: one sentence explaining the score
  evidence: a short quote or paraphrase from the transcript
conscientiousness:
  score: 3
  reason: ...
  evidence: ...
extraversion:
  score: 3
  reason: ...
  evidence: ...
agreeableness:
  score: 3
  reason: ...
  evidence: ...
neuroticism:
  score: 3
  reason: ...
  evidence: ...
summary: two or three sentences describing the user's current state of mind
` + "```" + `

Scores are integers from 1 (very low) to 5 (very high). Base every judgment only on what the transcript shows.

Transcript:
`

// dreamPrompt is the fixed synthesis instruction. The current persona and
// the chronological analysis history are appended after it.
const dreamPrompt = `You maintain the persona of an AI journaling companion. Below is the persona as it stands today, followed by a chronological series of personality analyses of the user it talks to.

Rewrite the persona so the companion fits this user better: match their temperament, their pace, and the topics they care about. Keep it written in the second person ("You are..."), keep it under 200 words, and output only the new persona text with no preamble and no formatting fences.
`

// renderTranscript formats turns oldest to newest, one line per turn.
func renderTranscript(turns []types.ChatTurn) string {
	var b strings.Builder
	for _, turn := range turns {
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// renderSnapshots formats snapshots oldest to newest as dated trait blocks.
func renderSnapshots(snaps []types.PersonalitySnapshot) string {
	var b strings.Builder
	for _, snap := range snaps {
		fmt.Fprintf(&b, "--- Analysis from %s ---\n", snap.CreatedAt.Format("2006-01-02"))
		writeTrait(&b, "openness", snap.Traits.Openness)
		writeTrait(&b, "conscientiousness", snap.Traits.Conscientiousness)
		writeTrait(&b, "extraversion", snap.Traits.Extraversion)
		writeTrait(&b, "agreeableness", snap.Traits.Agreeableness)
		writeTrait(&b, "neuroticism", snap.Traits.Neuroticism)
		fmt.Fprintf(&b, "summary: %s\n\n", snap.Traits.Summary)
	}
	return b.String()
}

func writeTrait(b *strings.Builder, name string, t types.TraitScore) {
	fmt.Fprintf(b, "%s: %d/5 (%s)\n", name, t.Score, t.Reason)
}
