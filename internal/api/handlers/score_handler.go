// Package handlers holds the HTTP handlers of the scoring service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/allermedia/allerai-event-scorer/internal/api/response"
	"github.com/allermedia/allerai-event-scorer/internal/api/validation"
	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/internal/scorererrors"
)

// pushEnvelope is the Pub/Sub push delivery wrapper. Data is base64 in the
// wire format; encoding/json decodes it into the byte slice.
type pushEnvelope struct {
	Message struct {
		Data       []byte            `json:"data"`
		MessageID  string            `json:"messageId"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// eventPayload is the decoded message body; the event itself sits under the
// merged_payload key.
type eventPayload struct {
	MergedPayload models.Event `json:"merged_payload"`
}

// EventScorer scores one event and reports the per-audience rows.
type EventScorer interface {
	HandleEvent(ctx context.Context, messageID string, event models.Event) ([]models.ScoreRow, error)
}

// ScoreHandler handles pushed scoring events.
type ScoreHandler struct {
	scorer EventScorer
	logger *slog.Logger
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(scorer EventScorer, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scorer: scorer, logger: logger}
}

// HandlePush handles POST /v1/events. Malformed envelopes and invalid
// payloads answer 400 so the subscription does not redeliver them; transient
// failures answer 500 and are retried by the push subscription.
func (h *ScoreHandler) HandlePush(w http.ResponseWriter, r *http.Request) {
	var envelope pushEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		response.RespondBadRequest(w, "Invalid push envelope")

		return
	}

	if len(envelope.Message.Data) == 0 {
		response.RespondBadRequest(w, "No data in push message")

		return
	}

	var payload eventPayload
	if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
		h.logger.WarnContext(r.Context(), "undecodable event payload",
			"message_id", envelope.Message.MessageID, "error", err)
		response.RespondBadRequest(w, "Invalid event payload")

		return
	}

	event := payload.MergedPayload
	if err := validation.ValidateStruct(event); err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	rows, err := h.scorer.HandleEvent(r.Context(), envelope.Message.MessageID, event)
	if err != nil {
		if errors.Is(err, scorererrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())

			return
		}

		response.RespondInternalServerError(w, err.Error())

		return
	}

	response.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "scored",
		"event_id":  event.ArticleID,
		"audiences": len(rows),
	})
}
