// Package chat handles the synchronous chat turn: validate, reply through
// the model with the live persona attached, append both turns, and kick off
// background analysis when the daydream trigger fires.
package chat

import (
	"context"
	"strings"

	"reverie/internal/logging"
	"reverie/internal/mind"
	"reverie/internal/model"
	"reverie/internal/store"
	"reverie/internal/types"
)

// historyWindow caps how many prior turns ride along on the live chat call.
const historyWindow = 50

// Handler serves chat turns. All dependencies are explicit so tests can
// substitute fakes for the model and use an in-memory store.
type Handler struct {
	store  *store.Store
	model  model.Client
	mind   *mind.Pipelines
	runner *Runner
}

// NewHandler wires the chat handler.
func NewHandler(st *store.Store, client model.Client, pipelines *mind.Pipelines, runner *Runner) *Handler {
	return &Handler{store: st, model: client, mind: pipelines, runner: runner}
}

// HandleChatTurn serves one chat message and returns the companion's reply.
//
// The reply is generated first; both turns are appended only after a
// successful generation, so a model failure leaves the log untouched. The
// daydream trigger is then evaluated against the lifetime user-turn count
// including the turn just written, and a due run is handed to the
// background runner without blocking the response.
func (h *Handler) HandleChatTurn(ctx context.Context, userID, text string) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated("a verified caller identity is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidArgument("message text must not be empty")
	}

	persona, err := h.store.GetOrCreatePersona(userID, mind.DefaultPersonaText)
	if err != nil {
		logging.Get(logging.CategoryChat).Error("Persona load failed for %s: %v", userID, err)
		return "", ErrInternal("something went wrong, please try again")
	}

	turns, err := h.store.ListRecentTurns(userID, historyWindow)
	if err != nil {
		logging.Get(logging.CategoryChat).Error("History load failed for %s: %v", userID, err)
		return "", ErrInternal("something went wrong, please try again")
	}

	history := make([]model.Message, len(turns))
	for i, turn := range turns {
		history[i] = model.Message{Role: string(turn.Role), Text: turn.Content}
	}

	reply, err := h.model.Generate(ctx, model.Request{
		Prompt:            text,
		History:           history,
		SystemInstruction: persona.Text,
	})
	if err != nil {
		logging.Get(logging.CategoryChat).Error("Generation failed for %s: %v", userID, err)
		return "", ErrInternal("the companion is unavailable right now")
	}

	if _, err := h.store.AppendTurn(userID, types.RoleUser, text); err != nil {
		logging.Get(logging.CategoryChat).Error("Failed to append user turn for %s: %v", userID, err)
		return "", ErrInternal("something went wrong, please try again")
	}
	if _, err := h.store.AppendTurn(userID, types.RoleAssistant, reply); err != nil {
		logging.Get(logging.CategoryChat).Error("Failed to append assistant turn for %s: %v", userID, err)
		return "", ErrInternal("something went wrong, please try again")
	}

	userTurns, err := h.store.CountUserTurns(userID)
	if err != nil {
		// The reply already succeeded; a broken count only costs this
		// cycle's trigger evaluation.
		logging.Get(logging.CategoryChat).Warn("Turn count failed for %s: %v", userID, err)
		return reply, nil
	}

	if mind.ShouldDaydream(userTurns) {
		logging.Chat("Daydream trigger satisfied for %s (user turns=%d)", userID, userTurns)
		// Detached context: the request context dies with the response,
		// but the pipeline must outlive it. The model client applies its
		// own bounded timeout.
		h.runner.Go(userID, func() error {
			return h.mind.RunDaydream(context.Background(), userID)
		})
	}

	return reply, nil
}
