// Package pipeline runs the two-pass enrichment job: a lookup pass that fills
// well-known medicines locally, then a batched model pass for the rest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ppiankov/medusecase/internal/enrich"
	"github.com/ppiankov/medusecase/internal/model"
	"github.com/ppiankov/medusecase/internal/progress"
	"github.com/ppiankov/medusecase/internal/usecase"
	"github.com/ppiankov/medusecase/internal/worker"
)

// Querier resolves one record through the model
type Querier interface {
	Query(ctx context.Context, rec model.Record) enrich.Result
}

// Deps are the collaborators of a pipeline. Only Querier and Saver are
// required; the rest default to the built-in lookup table, real random
// delays, a discarded progress log and no console output.
type Deps struct {
	Querier Querier
	Saver   Saver
	Lookup  *usecase.Lookup
	Pacer   *worker.Pacer
	Log     *progress.Log
	Out     io.Writer
}

// Pipeline orchestrates the enrichment of one dataset
type Pipeline struct {
	querier Querier
	saver   Saver
	lookup  *usecase.Lookup
	pacer   *worker.Pacer
	log     *progress.Log
	out     io.Writer
	config  *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, deps Deps) *Pipeline {
	p := &Pipeline{
		querier: deps.Querier,
		saver:   deps.Saver,
		lookup:  deps.Lookup,
		pacer:   deps.Pacer,
		log:     deps.Log,
		out:     deps.Out,
		config:  cfg,
	}
	if p.lookup == nil {
		p.lookup = usecase.DefaultLookup()
	}
	if p.pacer == nil {
		p.pacer = worker.NewPacer()
	}
	if p.log == nil {
		p.log = progress.New(io.Discard)
	}
	if p.out == nil {
		p.out = io.Discard
	}
	return p
}

// Run executes both passes and returns the final statistics.
// On cancellation pending work is saved before ctx.Err() is returned.
func (p *Pipeline) Run(ctx context.Context, ds *model.Dataset) (model.Stats, error) {
	start := time.Now()

	fmt.Fprintln(p.out, "First pass: using lookup table for common medicines...")
	resolved, err := p.LookupPass(ds)
	if err != nil {
		return ds.Stats(), err
	}
	fmt.Fprintf(p.out, "✓ First pass complete: %d resolved locally, saved to %s\n", resolved, p.config.Output)

	fmt.Fprintln(p.out, "Second pass: querying the model for remaining medicines...")
	if err := p.QueryPass(ctx, ds); err != nil {
		return ds.Stats(), err
	}

	stats := ds.Stats()
	p.log.RunCompleted(stats, time.Since(start))
	return stats, nil
}

// LookupPass fills every unresolved row the lookup table knows and saves
// the dataset. It returns how many rows it resolved.
func (p *Pipeline) LookupPass(ds *model.Dataset) (int, error) {
	bar := p.newBar(ds.Len(), "Lookup")
	resolved := 0
	for i := 0; i < ds.Len(); i++ {
		rec := ds.Record(i)
		if !rec.Resolved() {
			if v, ok := p.lookup.Find(rec.Name, rec.Compositions); ok {
				ds.SetUsecase(i, v)
				resolved++
			}
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if err := p.saver.Save(ds); err != nil {
		return resolved, fmt.Errorf("save after lookup pass: %w", err)
	}
	p.log.LookupCompleted(resolved)
	p.log.Saved(p.config.Output, resolved)
	return resolved, nil
}

// QueryPass asks the model for every row still unresolved, batch by batch
func (p *Pipeline) QueryPass(ctx context.Context, ds *model.Dataset) error {
	batchSize := p.config.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	total := ds.Len()
	batches := (total + batchSize - 1) / batchSize

	cp := newCheckpoint(ds, p.saver, p.config.CheckpointEvery, p.log, p.out, p.config.Output)
	bar := p.newBar(batches, "Processing batches")
	defer bar.Finish()

	for b := 0; b < batches; b++ {
		start := b * batchSize
		end := min(start+batchSize, total)

		rows := ds.Unresolved(start, end)
		if len(rows) == 0 {
			_ = bar.Add(1)
			continue
		}

		if err := p.runBatch(ctx, ds, cp, b, batches, start, end, rows); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ferr := cp.flush(); ferr != nil {
					return errors.Join(err, ferr)
				}
				fmt.Fprintf(p.out, "\n⚠️  Interrupted, progress saved to %s\n", p.config.Output)
			}
			return err
		}

		// Save after every batch that had work, pending or not
		if err := cp.save(); err != nil {
			return err
		}
		fmt.Fprintf(p.out, "✓ Completed batch %d/%d, saved to %s\n", b+1, batches, p.config.Output)
		p.log.BatchCompleted(b + 1)
		_ = bar.Add(1)
	}

	return nil
}

func (p *Pipeline) runBatch(ctx context.Context, ds *model.Dataset, cp *checkpoint, b, batches, start, end int, rows []int) error {
	p.log.BatchStarted(b+1, batches, start, end, len(rows))

	if _, err := p.pacer.Pause(ctx, p.config.Throttle.BatchDelay); err != nil {
		return err
	}

	for _, i := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec := ds.Record(i)
		res := p.querier.Query(ctx, rec)
		if err := ctx.Err(); err != nil {
			return err
		}

		switch res.Kind {
		case enrich.RateLimited:
			if err := cp.flush(); err != nil {
				return err
			}
			wait := p.pacer.Duration(p.config.Throttle.Cooldown)
			p.log.RateLimited(rec, wait, res.Err)
			fmt.Fprintf(p.out, "\n⚠️  Rate limit hit, progress saved. Waiting %.1f seconds before resuming...\n", wait.Seconds())
			if err := p.pacer.Sleep(ctx, wait); err != nil {
				return err
			}
			continue

		case enrich.Failed:
			fmt.Fprintf(p.out, "⚠️  Error processing %s: %v\n", rec.Name, res.Err)
			p.log.RowFailed(rec, res.Err)
		}

		value := Accept(res.Usecase)
		if err := cp.add(i, value); err != nil {
			return err
		}
		p.log.RowProcessed(rec, value, source(res))

		if _, err := p.pacer.Pause(ctx, p.config.Throttle.RowDelay); err != nil {
			return err
		}
	}

	return nil
}

// Accept returns v when it passes validation, a re-cleaned v when that
// passes, and "unknown" otherwise
func Accept(v string) string {
	if model.IsUnresolved(v) {
		return model.Unknown
	}
	if usecase.Valid(v) {
		return v
	}
	if cleaned := usecase.Clean(v); cleaned != "" && usecase.Valid(cleaned) {
		return cleaned
	}
	return model.Unknown
}

func source(res enrich.Result) string {
	switch {
	case res.Kind == enrich.Failed:
		return "error"
	case res.Cached:
		return "cache"
	default:
		return "model"
	}
}

func (p *Pipeline) newBar(n int, description string) *progressbar.ProgressBar {
	if !p.config.Progress.Bars {
		return progressbar.DefaultSilent(int64(n), description)
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}
