// Package enrich asks a generative model for the usecase of one medicine.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/ppiankov/medusecase/internal/cache"
	"github.com/ppiankov/medusecase/internal/llm"
	"github.com/ppiankov/medusecase/internal/model"
	"github.com/ppiankov/medusecase/internal/usecase"
	"github.com/ppiankov/medusecase/internal/worker"
)

// Kind classifies the outcome of a query
type Kind int

const (
	// Resolved means the model answered; Usecase is cleaned (possibly "unknown")
	Resolved Kind = iota
	// Failed means a non rate-limit error; Usecase is "unknown"
	Failed
	// RateLimited means the retry budget ran out; the caller decides what to do
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	case RateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Result is the outcome of one query
type Result struct {
	Usecase string
	Kind    Kind
	Err     error
	Cached  bool
}

// Options tune a Querier. Zero values disable the cache and the limiter.
type Options struct {
	Model    string
	Cache    cache.Cache
	CacheTTL time.Duration
	Limiter  *worker.Limiter
}

// Querier turns a record into a cleaned usecase via the model
type Querier struct {
	provider llm.Provider
	model    string
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
}

// NewQuerier creates a querier. provider is expected to already carry its
// retry policy (see llm.WithRetry).
func NewQuerier(provider llm.Provider, opts Options) *Querier {
	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &Querier{
		provider: provider,
		model:    opts.Model,
		cache:    c,
		cacheTTL: opts.CacheTTL,
		limiter:  opts.Limiter,
	}
}

// Query asks the model about rec
func (q *Querier) Query(ctx context.Context, rec model.Record) Result {
	prompt := llm.BuildPrompt(rec)
	key := cache.Key(q.provider.Name(), q.model, prompt)

	if val, ok := q.cache.Get(key); ok {
		return Result{Usecase: string(val), Kind: Resolved, Cached: true}
	}

	if err := q.limiter.Wait(ctx, q.provider.Name()+"/"+q.model); err != nil {
		return Result{Usecase: model.Unknown, Kind: Failed, Err: err}
	}

	resp, err := q.provider.Generate(ctx, llm.GenerateRequest{Prompt: prompt, Model: q.model})
	if err != nil {
		if ctx.Err() == nil && llm.IsRateLimit(err) {
			return Result{Kind: RateLimited, Err: err}
		}
		return Result{Usecase: model.Unknown, Kind: Failed, Err: err}
	}

	cleaned := Normalize(resp.Text)

	// Only answers that will be kept are cached; a rejected answer must
	// reach the model again when the row is retried
	if cleaned != model.Unknown && usecase.Valid(cleaned) {
		_ = q.cache.Set(key, []byte(cleaned), q.cacheTTL)
	}

	return Result{Usecase: cleaned, Kind: Resolved}
}

// Normalize strips whitespace and wrapping quotes from a raw answer and cleans
// it; anything that cleans to nothing becomes "unknown".
func Normalize(raw string) string {
	text := strings.Trim(strings.TrimSpace(raw), "\"'`“”")
	cleaned := usecase.Clean(text)
	if cleaned == "" {
		return model.Unknown
	}
	return cleaned
}
