package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/medusecase/internal/cache"
	"github.com/ppiankov/medusecase/internal/llm"
	"github.com/ppiankov/medusecase/internal/model"
)

type MockProvider struct {
	text    string
	err     error
	calls   int
	prompts []string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *MockProvider) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{Text: m.text}, nil
}

var azithral = model.Record{
	Name:         "Azithral 500 Tablet",
	Compositions: []string{"Azithromycin (500mg)"},
	Type:         "allopathy",
}

func TestQuery_Resolved(t *testing.T) {
	mock := &MockProvider{text: "  \"This medicine is used for treatment of fever, headache (mild)\"\n"}
	q := NewQuerier(mock, Options{Model: "m"})

	res := q.Query(context.Background(), azithral)

	if res.Kind != Resolved || res.Err != nil {
		t.Fatalf("expected resolved, got %+v", res)
	}
	if res.Usecase != "fever, headache" {
		t.Errorf("expected cleaned list, got %q", res.Usecase)
	}
	if len(mock.prompts) != 1 || mock.prompts[0] != llm.BuildPrompt(azithral) {
		t.Error("expected the record prompt to be sent")
	}
}

func TestQuery_EmptyAnswerIsUnknown(t *testing.T) {
	mock := &MockProvider{text: "(none)"}
	res := NewQuerier(mock, Options{}).Query(context.Background(), azithral)

	if res.Kind != Resolved || res.Usecase != model.Unknown {
		t.Errorf("expected resolved unknown, got %+v", res)
	}
}

func TestQuery_FailedIsUnknown(t *testing.T) {
	boom := errors.New("API error (500): boom")
	mock := &MockProvider{err: boom}
	res := NewQuerier(mock, Options{}).Query(context.Background(), azithral)

	if res.Kind != Failed || res.Usecase != model.Unknown || !errors.Is(res.Err, boom) {
		t.Errorf("expected failed unknown carrying the error, got %+v", res)
	}
}

func TestQuery_RateLimitedSurfaces(t *testing.T) {
	limited := &llm.RateLimitError{Attempts: 3, Err: errors.New("429")}
	mock := &MockProvider{err: limited}
	res := NewQuerier(mock, Options{}).Query(context.Background(), azithral)

	if res.Kind != RateLimited {
		t.Fatalf("expected rate limited, got %+v", res)
	}
	if res.Usecase != "" {
		t.Errorf("rate limited rows must not get a value, got %q", res.Usecase)
	}
	if !errors.Is(res.Err, llm.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", res.Err)
	}
}

func TestQuery_CancelledContextIsNotRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &MockProvider{err: errors.New("429")}
	res := NewQuerier(mock, Options{}).Query(ctx, azithral)

	if res.Kind != Failed {
		t.Errorf("expected failed on cancelled context, got %v", res.Kind)
	}
}

func TestQuery_CacheHitSkipsModel(t *testing.T) {
	mock := &MockProvider{text: "cough, cold"}
	q := NewQuerier(mock, Options{Model: "m", Cache: cache.NewMemoryCache(0, 0)})

	first := q.Query(context.Background(), azithral)
	second := q.Query(context.Background(), azithral)

	if mock.calls != 1 {
		t.Errorf("expected a single model call, got %d", mock.calls)
	}
	if first.Cached || !second.Cached {
		t.Errorf("expected only the second result to be cached: %+v %+v", first, second)
	}
	if second.Usecase != "cough, cold" {
		t.Errorf("unexpected cached usecase %q", second.Usecase)
	}
}

func TestQuery_UnknownNotCached(t *testing.T) {
	mock := &MockProvider{text: ""}
	q := NewQuerier(mock, Options{Cache: cache.NewMemoryCache(0, 0)})

	q.Query(context.Background(), azithral)
	q.Query(context.Background(), azithral)

	if mock.calls != 2 {
		t.Errorf("unknown answers must be asked again, got %d calls", mock.calls)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"fever, headache", "fever, headache"},
		{"'acidity'", "acidity"},
		{"“cough”", "cough"},
		{"   ", model.Unknown},
		{"", model.Unknown},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKind_String(t *testing.T) {
	if RateLimited.String() != "rate_limited" || Failed.String() != "failed" || Resolved.String() != "resolved" {
		t.Error("unexpected kind names")
	}
}

func TestQuery_RejectedAnswerNotCached(t *testing.T) {
	mock := &MockProvider{text: "pain that may recur"}
	q := NewQuerier(mock, Options{Cache: cache.NewMemoryCache(0, 0)})

	first := q.Query(context.Background(), azithral)
	if first.Usecase != "pain that may recur" {
		t.Fatalf("expected the cleaned answer to be returned, got %q", first.Usecase)
	}

	mock.text = "cough, cold"
	second := q.Query(context.Background(), azithral)

	if mock.calls != 2 {
		t.Errorf("answers that fail validation must be asked again, got %d calls", mock.calls)
	}
	if second.Cached || second.Usecase != "cough, cold" {
		t.Errorf("expected a fresh model answer, got %+v", second)
	}
}
