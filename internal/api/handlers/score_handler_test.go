package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allermedia/allerai-event-scorer/internal/models"
	"github.com/allermedia/allerai-event-scorer/internal/scorererrors"
)

type mockScorer struct {
	handle func(ctx context.Context, messageID string, event models.Event) ([]models.ScoreRow, error)
}

func (m *mockScorer) HandleEvent(ctx context.Context, messageID string, event models.Event) ([]models.ScoreRow, error) {
	return m.handle(ctx, messageID, event)
}

func pushBody(t *testing.T, messageID string, payload any) *bytes.Buffer {
	t.Helper()

	inner, err := json.Marshal(map[string]any{"merged_payload": payload})
	require.NoError(t, err)

	envelope := map[string]any{
		"message": map[string]any{
			"data":      base64.StdEncoding.EncodeToString(inner),
			"messageId": messageID,
		},
		"subscription": "projects/p/subscriptions/s",
	}

	body, err := json.Marshal(envelope)
	require.NoError(t, err)

	return bytes.NewBuffer(body)
}

func validEvent() models.Event {
	return models.Event{
		ArticleID:  "ev-1",
		SiteDomain: "kk.no",
		Embedding:  []float32{1, 0},
	}
}

func TestScoreHandler_HandlePush(t *testing.T) {
	t.Run("scores a valid push message", func(t *testing.T) {
		var gotMessageID string

		scorer := &mockScorer{handle: func(_ context.Context, messageID string, event models.Event) ([]models.ScoreRow, error) {
			gotMessageID = messageID

			return []models.ScoreRow{{EventID: event.ArticleID, Audience: "kk.no"}}, nil
		}}

		h := NewScoreHandler(scorer, slog.New(slog.DiscardHandler))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/events", pushBody(t, "msg-1", validEvent()))

		h.HandlePush(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "msg-1", gotMessageID)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "scored", resp["status"])
		assert.Equal(t, "ev-1", resp["event_id"])
		assert.EqualValues(t, 1, resp["audiences"])
	})

	t.Run("rejects a non-JSON body", func(t *testing.T) {
		h := NewScoreHandler(&mockScorer{}, slog.New(slog.DiscardHandler))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewBufferString("not json"))

		h.HandlePush(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an envelope without data", func(t *testing.T) {
		h := NewScoreHandler(&mockScorer{}, slog.New(slog.DiscardHandler))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/events",
			bytes.NewBufferString(`{"message": {"messageId": "msg-1"}}`))

		h.HandlePush(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects an event without embedding", func(t *testing.T) {
		event := validEvent()
		event.Embedding = nil

		h := NewScoreHandler(&mockScorer{}, slog.New(slog.DiscardHandler))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/events", pushBody(t, "msg-1", event))

		h.HandlePush(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps validation failures to 400", func(t *testing.T) {
		scorer := &mockScorer{handle: func(context.Context, string, models.Event) ([]models.ScoreRow, error) {
			return nil, scorererrors.NewValidationError("embeddings_en", "wrong dimension")
		}}

		h := NewScoreHandler(scorer, slog.New(slog.DiscardHandler))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/events", pushBody(t, "msg-1", validEvent()))

		h.HandlePush(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps internal failures to 500 for redelivery", func(t *testing.T) {
		scorer := &mockScorer{handle: func(context.Context, string, models.Event) ([]models.ScoreRow, error) {
			return nil, errors.New("platform down")
		}}

		h := NewScoreHandler(scorer, slog.New(slog.DiscardHandler))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/events", pushBody(t, "msg-1", validEvent()))

		h.HandlePush(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
