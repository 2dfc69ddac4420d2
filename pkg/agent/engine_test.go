package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/aldergate-legal/core/internal/errors"
	"github.com/aldergate-legal/core/pkg/legislation"
	"github.com/aldergate-legal/core/pkg/llm"
	"github.com/aldergate-legal/core/pkg/models"
	"github.com/aldergate-legal/core/pkg/retrieval"
	"github.com/aldergate-legal/core/pkg/verification"
)

// --- fakes shared by the engine test suite ---

type fakeConversationStore struct {
	mu        sync.Mutex
	conv      *models.Conversation
	history   []models.Message
	messages  []*models.Message
	titleSet  string
}

func (f *fakeConversationStore) Get(ctx context.Context, tenantID, conversationID string) (*models.Conversation, error) {
	return f.conv, nil
}

func (f *fakeConversationStore) RecentMessages(ctx context.Context, tenantID, conversationID string, limit int) ([]models.Message, error) {
	return f.history, nil
}

func (f *fakeConversationStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeConversationStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.messages {
		if m.ID == msg.ID {
			f.messages[i] = msg
		}
	}
	return nil
}

func (f *fakeConversationStore) SetTitle(ctx context.Context, tenantID, conversationID, title string) error {
	f.titleSet = title
	return nil
}

type fakeInvocationStore struct {
	mu    sync.Mutex
	byID  map[string]*models.AgentInvocation
}

func newFakeInvocationStore() *fakeInvocationStore {
	return &fakeInvocationStore{byID: make(map[string]*models.AgentInvocation)}
}

func (f *fakeInvocationStore) Create(ctx context.Context, inv *models.AgentInvocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[inv.ID] = inv
	return nil
}

func (f *fakeInvocationStore) UpdateState(ctx context.Context, tenantID, invocationID string, state models.InvocationState, modelUsed string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[invocationID]
	if !ok {
		return ierrors.NotFound("invocation", invocationID)
	}
	inv.State = state
	if modelUsed != "" {
		inv.ModelUsed = modelUsed
	}
	return nil
}

func (f *fakeInvocationStore) Get(ctx context.Context, tenantID, invocationID string) (*models.AgentInvocation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[invocationID]
	if !ok {
		return nil, ierrors.NotFound("invocation", invocationID)
	}
	cp := *inv
	return &cp, nil
}

type fakePersonaStore struct{}

func (f *fakePersonaStore) Get(ctx context.Context, tenantID, personaID string) (*models.Persona, error) {
	return nil, ierrors.NotFound("persona", personaID)
}

type emptyVectorStore struct{}

func (emptyVectorStore) Search(ctx context.Context, tenantID string, embedding []float64, filter retrieval.Filter, limit int) ([]string, error) {
	return nil, nil
}
func (emptyVectorStore) Upsert(ctx context.Context, tenantID, chunkID string, embedding []float64) error {
	return nil
}
func (emptyVectorStore) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	return nil
}

type emptyKeywordStore struct{}

func (emptyKeywordStore) Search(ctx context.Context, tenantID, query string, filter retrieval.Filter, limit int) ([]string, error) {
	return nil, nil
}

type noopEnricher struct{}

func (noopEnricher) Enrich(ctx context.Context, tenantID string, fused []retrieval.FusedChunk) ([]retrieval.EnrichedResult, error) {
	return nil, nil
}

type emptyLegislationClient struct{}

func (emptyLegislationClient) SearchLegislation(ctx context.Context, p legislation.SearchLegislationParams) (*legislation.SearchResponse, error) {
	return &legislation.SearchResponse{}, nil
}

func (emptyLegislationClient) SearchLegislationSections(ctx context.Context, p legislation.SearchSectionsParams) ([]legislation.Section, error) {
	return nil, nil
}

func newTestEngine(t *testing.T, streamer Streamer) (*Engine, *fakeConversationStore, *fakeInvocationStore) {
	t.Helper()

	router := NewRouter(&fakeGenerator{response: "not json"})
	retrievalSvc := retrieval.NewService(&fakeEmbedder{vector: []float64{0.1, 0.2}}, emptyVectorStore{}, emptyKeywordStore{}, noopEnricher{}, nil)
	workers := NewWorkers(retrievalSvc, emptyLegislationClient{})
	pub := &recordingPublisher{}
	orchestrator := NewOrchestrator(streamer, pub)
	verifier := verification.NewVerifier(emptyLegislationClient{})
	qa := NewQAReviewer(true)
	titles := NewTitleGenerator(&fakeGenerator{response: "Generated Title"})

	convStore := &fakeConversationStore{conv: &models.Conversation{ID: "c1", TenantID: "t1"}}
	invStore := newFakeInvocationStore()
	personas := &fakePersonaStore{}

	engine := NewEngine(router, workers, orchestrator, verifier, qa, nil, titles, convStore, invStore, personas, pub, EngineConfig{})
	return engine, convStore, invStore
}

func TestEngineInvokeHappyPath(t *testing.T) {
	streamer := &fakeStreamer{chunks: []llm.Chunk{{Text: "Under the Housing Act 1985, s.8, there is a repair duty."}, {IsComplete: true}}}
	engine, convStore, invStore := newTestEngine(t, streamer)

	result, err := engine.Invoke(context.Background(), InvokeRequest{TenantID: "t1", ConversationID: "c1", Query: "what repair duties apply"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Content)
	assert.Contains(t, result.Content, "informational purposes only")

	inv, err := invStore.Get(context.Background(), "t1", result.InvocationID)
	require.NoError(t, err)
	assert.Equal(t, models.InvocationComplete, inv.State)

	require.Len(t, convStore.messages, 2)
	assert.Equal(t, models.MessageStateSuccess, convStore.messages[1].State)
	assert.Equal(t, "Generated Title", convStore.titleSet)
}

func TestEngineInvokeRejectsMissingFields(t *testing.T) {
	engine, _, _ := newTestEngine(t, &fakeStreamer{chunks: []llm.Chunk{{IsComplete: true}}})

	_, err := engine.Invoke(context.Background(), InvokeRequest{TenantID: "t1"})
	assert.True(t, ierrors.Is(err, ierrors.KindValidation))
}

func TestEngineInvokePropagatesModelFailureAsError(t *testing.T) {
	streamer := &fakeStreamer{err: assert.AnError}
	engine, _, invStore := newTestEngine(t, streamer)

	_, err := engine.Invoke(context.Background(), InvokeRequest{TenantID: "t1", ConversationID: "c1", Query: "query"})
	require.Error(t, err)

	var found bool
	for _, inv := range invStore.byID {
		if inv.State == models.InvocationError {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngineCancelOnTerminalInvocationIsConflict(t *testing.T) {
	engine, _, invStore := newTestEngine(t, &fakeStreamer{chunks: []llm.Chunk{{IsComplete: true}}})
	invStore.byID["done"] = &models.AgentInvocation{ID: "done", TenantID: "t1", State: models.InvocationComplete}

	err := engine.Cancel(context.Background(), "t1", "done")
	assert.True(t, ierrors.Is(err, ierrors.KindConflict))
}

func TestEngineCancelRunningInvocationTransitionsState(t *testing.T) {
	engine, _, invStore := newTestEngine(t, &fakeStreamer{chunks: []llm.Chunk{{IsComplete: true}}})
	invStore.byID["running"] = &models.AgentInvocation{ID: "running", TenantID: "t1", State: models.InvocationRunning}

	err := engine.Cancel(context.Background(), "t1", "running")
	require.NoError(t, err)
	assert.Equal(t, models.InvocationCancelled, invStore.byID["running"].State)
}
