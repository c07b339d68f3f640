package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"tutorhub/internal/ai"
	"tutorhub/internal/model"
	"tutorhub/internal/repository"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text, model string) (ai.Embedding, error) {
	f.calls++
	if f.err != nil {
		return ai.Embedding{}, f.err
	}
	return ai.Embedding{Vector: f.vector, Tokens: 5, Model: model}, nil
}

type fakeCompleter struct {
	resp    ai.CompletionResponse
	err     error
	lastReq ai.CompletionRequest
	deltas  []string
}

func (f *fakeCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return ai.CompletionResponse{}, f.err
	}
	return f.resp, nil
}

func (f *fakeCompleter) CompleteStream(ctx context.Context, req ai.CompletionRequest, onDelta func(string) error) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	var full strings.Builder
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return "", err
		}
		full.WriteString(d)
	}
	return full.String(), nil
}

type fakeSearcher struct {
	chunks    []repository.RankedChunk
	err       error
	calls     int
	lastScope repository.SearchScope
}

func (f *fakeSearcher) SimilaritySearch(ctx context.Context, queryEmbedding []float32, scope repository.SearchScope) ([]repository.RankedChunk, error) {
	f.calls++
	f.lastScope = scope
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

type fakeDocLister struct {
	ids []string
	err error
}

func (f *fakeDocLister) ListReadyLinkedDocumentIDs(ctx context.Context, tutorID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

func testTutor() *model.Tutor {
	return &model.Tutor{
		ID:                  "tutor-1",
		OwnerID:             "user-1",
		Name:                "Physics Tutor",
		SystemPrompt:        "You teach physics.",
		Model:               "gpt-4",
		Temperature:         0.7,
		MaxTokens:           1000,
		UseRAG:              true,
		MaxContextChunks:    10,
		SimilarityThreshold: 0.25,
	}
}

func newTestRAG(e *fakeEmbedder, c *fakeCompleter, s *fakeSearcher, d *fakeDocLister) *RAGService {
	return NewRAGService(e, c, s, d, "text-embedding-3-small", zap.NewNop())
}

func TestQueryEmptyQuestion(t *testing.T) {
	s := newTestRAG(&fakeEmbedder{}, &fakeCompleter{}, &fakeSearcher{}, &fakeDocLister{})
	if _, err := s.Query(context.Background(), testTutor(), "user-1", "   ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Query error = %v, want ErrInvalidInput", err)
	}
}

func TestQueryNoLinkedDocumentsStillCompletes(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	completer := &fakeCompleter{resp: ai.CompletionResponse{Content: "answer", Model: "gpt-4", TotalTokens: 42}}
	searcher := &fakeSearcher{}
	s := newTestRAG(embedder, completer, searcher, &fakeDocLister{})

	answer, err := s.Query(context.Background(), testTutor(), "user-1", "what is gravity?", nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("embedder called %d times with no linked documents", embedder.calls)
	}
	if searcher.calls != 0 {
		t.Fatalf("searcher called %d times with no linked documents", searcher.calls)
	}
	if answer.Text != "answer" {
		t.Fatalf("answer text = %q", answer.Text)
	}
	if answer.Sources == nil {
		t.Fatalf("sources should be an empty slice, not nil")
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("got %d sources, want 0", len(answer.Sources))
	}
	if answer.TokensUsed != 42 {
		t.Fatalf("tokens used = %d, want 42", answer.TokensUsed)
	}
}

func TestQueryRAGDisabledSkipsRetrieval(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	searcher := &fakeSearcher{chunks: []repository.RankedChunk{{ID: "c1"}}}
	completer := &fakeCompleter{resp: ai.CompletionResponse{Content: "ok", Model: "gpt-4"}}
	s := newTestRAG(embedder, completer, searcher, &fakeDocLister{ids: []string{"d1"}})

	tutor := testTutor()
	tutor.UseRAG = false
	answer, err := s.Query(context.Background(), tutor, "user-1", "hello", nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if searcher.calls != 0 {
		t.Fatalf("searcher called %d times with rag disabled", searcher.calls)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("sources = %#v, want empty non-nil slice", answer.Sources)
	}
}

func TestQueryStageErrors(t *testing.T) {
	base := errors.New("boom")

	cases := []struct {
		name      string
		embedder  *fakeEmbedder
		searcher  *fakeSearcher
		docLister *fakeDocLister
		completer *fakeCompleter
		wantStage string
	}{
		{
			name:      "embed failure",
			embedder:  &fakeEmbedder{err: base},
			searcher:  &fakeSearcher{},
			docLister: &fakeDocLister{ids: []string{"d1"}},
			completer: &fakeCompleter{},
			wantStage: StageEmbed,
		},
		{
			name:      "retrieve failure",
			embedder:  &fakeEmbedder{vector: []float32{0.1}},
			searcher:  &fakeSearcher{err: base},
			docLister: &fakeDocLister{ids: []string{"d1"}},
			completer: &fakeCompleter{},
			wantStage: StageRetrieve,
		},
		{
			name:      "doc listing failure",
			embedder:  &fakeEmbedder{},
			searcher:  &fakeSearcher{},
			docLister: &fakeDocLister{err: base},
			completer: &fakeCompleter{},
			wantStage: StageRetrieve,
		},
		{
			name:      "complete failure",
			embedder:  &fakeEmbedder{vector: []float32{0.1}},
			searcher:  &fakeSearcher{},
			docLister: &fakeDocLister{ids: []string{"d1"}},
			completer: &fakeCompleter{err: base},
			wantStage: StageComplete,
		},
	}

	for _, tc := range cases {
		s := newTestRAG(tc.embedder, tc.completer, tc.searcher, tc.docLister)
		_, err := s.Query(context.Background(), testTutor(), "user-1", "question", nil)
		var ragErr *RAGError
		if !errors.As(err, &ragErr) {
			t.Fatalf("%s: error = %v, want RAGError", tc.name, err)
		}
		if ragErr.Stage != tc.wantStage {
			t.Fatalf("%s: stage = %q, want %q", tc.name, ragErr.Stage, tc.wantStage)
		}
		if !errors.Is(err, base) {
			t.Fatalf("%s: RAGError does not wrap the cause", tc.name)
		}
	}
}

func TestQueryBuildsContextFromSources(t *testing.T) {
	chunks := []repository.RankedChunk{
		{ID: "c1", DocumentID: "d1", ChunkIndex: 0, Text: "gravity pulls masses together", Similarity: 0.9},
		{ID: "c2", DocumentID: "d1", ChunkIndex: 3, Text: "acceleration is 9.8 m/s^2", Similarity: 0.7},
	}
	searcher := &fakeSearcher{chunks: chunks}
	completer := &fakeCompleter{resp: ai.CompletionResponse{Content: "answer", Model: "gpt-4", TotalTokens: 100}}
	s := newTestRAG(&fakeEmbedder{vector: []float32{0.1}}, completer, searcher, &fakeDocLister{ids: []string{"d1"}})

	tutor := testTutor()
	answer, err := s.Query(context.Background(), tutor, "user-1", "what is gravity?", nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(answer.Sources) != 2 || answer.Sources[0].ID != "c1" || answer.Sources[1].ID != "c2" {
		t.Fatalf("sources not preserved in ranked order: %+v", answer.Sources)
	}
	if answer.Cost <= 0 {
		t.Fatalf("cost = %v, want positive", answer.Cost)
	}

	system := completer.lastReq.Messages[0].Content
	if !strings.Contains(system, "You teach physics.") {
		t.Fatalf("system prompt missing tutor prompt: %q", system)
	}
	if !strings.Contains(system, "[Source 1]: gravity pulls masses together") {
		t.Fatalf("system prompt missing first source: %q", system)
	}
	if !strings.Contains(system, "[Source 2]: acceleration is 9.8 m/s^2") {
		t.Fatalf("system prompt missing second source: %q", system)
	}

	if searcher.lastScope.Threshold != tutor.SimilarityThreshold {
		t.Fatalf("search threshold = %v, want %v", searcher.lastScope.Threshold, tutor.SimilarityThreshold)
	}
	if searcher.lastScope.Limit != tutor.MaxContextChunks {
		t.Fatalf("search limit = %d, want %d", searcher.lastScope.Limit, tutor.MaxContextChunks)
	}
	if searcher.lastScope.OwnerID != "user-1" {
		t.Fatalf("search owner = %q, want user-1", searcher.lastScope.OwnerID)
	}
}

func TestQueryInsertsHistoryBetweenSystemAndQuestion(t *testing.T) {
	completer := &fakeCompleter{resp: ai.CompletionResponse{Content: "answer", Model: "gpt-4", TotalTokens: 10}}
	s := newTestRAG(&fakeEmbedder{vector: []float32{0.1}}, completer, &fakeSearcher{}, &fakeDocLister{})

	history := []ai.ChatMessage{
		{Role: "user", Content: "what is mass?"},
		{Role: "assistant", Content: "a measure of matter"},
	}
	if _, err := s.Query(context.Background(), testTutor(), "user-1", "and weight?", history); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	msgs := completer.lastReq.Messages
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Fatalf("first message role = %q, want system", msgs[0].Role)
	}
	if msgs[1].Content != "what is mass?" || msgs[2].Content != "a measure of matter" {
		t.Fatalf("history not carried in order: %+v", msgs[1:3])
	}
	if msgs[3].Role != "user" || msgs[3].Content != "and weight?" {
		t.Fatalf("last message = %+v, want the current question", msgs[3])
	}
}

func TestAnswerMarshalsEmptySourcesArray(t *testing.T) {
	completer := &fakeCompleter{resp: ai.CompletionResponse{Content: "answer", Model: "gpt-4", TotalTokens: 10}}
	s := newTestRAG(&fakeEmbedder{}, completer, &fakeSearcher{}, &fakeDocLister{})

	answer, err := s.Query(context.Background(), testTutor(), "user-1", "hello", nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	payload, err := json.Marshal(answer)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(payload), `"sources":[]`) {
		t.Fatalf("payload should carry an empty sources array: %s", payload)
	}
}

func TestQueryStreamCollectsDeltas(t *testing.T) {
	completer := &fakeCompleter{deltas: []string{"hel", "lo ", "there"}}
	s := newTestRAG(&fakeEmbedder{vector: []float32{0.1}}, completer, &fakeSearcher{}, &fakeDocLister{})

	var streamed strings.Builder
	answer, err := s.QueryStream(context.Background(), testTutor(), "user-1", "hi", nil, func(delta string) error {
		streamed.WriteString(delta)
		return nil
	})
	if err != nil {
		t.Fatalf("QueryStream failed: %v", err)
	}
	if streamed.String() != "hello there" {
		t.Fatalf("streamed = %q, want %q", streamed.String(), "hello there")
	}
	if answer.Text != "hello there" {
		t.Fatalf("answer text = %q", answer.Text)
	}
	if answer.TokensUsed != 0 || answer.Cost != 0 {
		t.Fatalf("streaming answer should carry no token accounting, got %d tokens cost %v", answer.TokensUsed, answer.Cost)
	}
}
