package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allermedia/allerai-event-scorer/internal/embeddings"
	"github.com/allermedia/allerai-event-scorer/internal/repository"
)

type mockEnrichmentStore struct {
	drafts       []repository.PendingDraft
	pubs         []repository.PendingPublication
	draftVecs    map[uuid.UUID][]float32
	pubVecs      map[string][]float32
	listDraftErr error
}

func newMockEnrichmentStore() *mockEnrichmentStore {
	return &mockEnrichmentStore{
		draftVecs: map[uuid.UUID][]float32{},
		pubVecs:   map[string][]float32{},
	}
}

func (m *mockEnrichmentStore) ListPendingDrafts(context.Context, int) ([]repository.PendingDraft, error) {
	return m.drafts, m.listDraftErr
}

func (m *mockEnrichmentStore) SetDraftEmbedding(_ context.Context, id uuid.UUID, embedding []float32) error {
	m.draftVecs[id] = embedding

	return nil
}

func (m *mockEnrichmentStore) ListPendingPublications(context.Context, int) ([]repository.PendingPublication, error) {
	return m.pubs, nil
}

func (m *mockEnrichmentStore) SetPublicationEmbedding(_ context.Context, pageID string, embedding []float32) error {
	m.pubVecs[pageID] = embedding

	return nil
}

func TestEnrichmentService_Run(t *testing.T) {
	ctx := context.Background()
	client := embeddings.NewMockClientWithDimensions(8)

	t.Run("embeds pending drafts and publications", func(t *testing.T) {
		draftID := uuid.New()
		store := newMockEnrichmentStore()
		store.drafts = []repository.PendingDraft{{ID: draftID, Content: "Utkast om solens stråler"}}
		store.pubs = []repository.PendingPublication{{PageID: "p1", BodyText: "Artikkel om solens stråler"}}

		svc := NewEnrichmentService(store, client, nil, slog.New(slog.DiscardHandler), 0)

		n, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Len(t, store.draftVecs[draftID], 8)
		assert.Len(t, store.pubVecs["p1"], 8)
	})

	t.Run("rows that fail to embed are skipped", func(t *testing.T) {
		store := newMockEnrichmentStore()
		store.drafts = []repository.PendingDraft{
			{ID: uuid.New(), Content: ""},
			{ID: uuid.New(), Content: "brukbar tekst"},
		}

		svc := NewEnrichmentService(store, client, nil, slog.New(slog.DiscardHandler), 0)

		n, err := svc.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("list failure propagates", func(t *testing.T) {
		store := newMockEnrichmentStore()
		store.listDraftErr = errors.New("warehouse down")

		svc := NewEnrichmentService(store, client, nil, slog.New(slog.DiscardHandler), 0)

		_, err := svc.Run(ctx)
		require.Error(t, err)
	})
}
