package filter

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Evaluation is the result of running a program against one input.
type Evaluation struct {
	// ID identifies the evaluation in logs.
	ID string

	// Index is the position of the input in the batch.
	Index int

	// Outputs holds every value produced before the evaluation ended.
	Outputs []any

	// Err is the error that ended the evaluation, if any.
	Err error
}

// Runner evaluates one program against a batch of inputs.
//
// Thread-safety: a Runner may be used from several goroutines; each
// evaluation runs on a single goroutine.
type Runner struct {
	// Program is the compiled expression to evaluate.
	Program *Program

	// Workers bounds concurrent evaluations. Zero means GOMAXPROCS.
	Workers int

	// IDs stamps each evaluation. Defaults to UUIDv7Generator.
	IDs IDGenerator

	// Logger receives per-evaluation debug records. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Run evaluates every input and returns the evaluations in input order.
// A failing evaluation does not stop the others; only cancellation of ctx
// ends the batch early, in which case ctx's error is returned.
func (r *Runner) Run(ctx context.Context, inputs []any, vars ...any) ([]Evaluation, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	ids := r.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]Evaluation, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, input := range inputs {
		if gctx.Err() != nil {
			break
		}
		id := ids.Generate()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			logger.Debug("evaluation started", "id", id, "index", i)

			outputs, err := r.Program.Run(gctx, input, vars...)
			results[i] = Evaluation{ID: id, Index: i, Outputs: outputs, Err: err}

			logger.Debug("evaluation finished",
				"id", id,
				"index", i,
				"outputs", len(outputs),
				"error", err,
				"duration", time.Since(start),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}
