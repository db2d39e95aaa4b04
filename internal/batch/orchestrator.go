package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"endorsement/internal/domain"
	"endorsement/internal/encoder"
	"endorsement/internal/infra"
	"endorsement/internal/prompt"
)

// Generator produces one endorsement image as a data URI.
type Generator interface {
	Generate(ctx context.Context, prompt string, model, product encoder.SourceImage) (string, error)
}

// UpdateFunc observes every published snapshot of a batch. Calls for one
// batch are serialised and made without holding the batch state lock, so the
// callback may read Current.
type UpdateFunc func(Snapshot)

// Options configures an Orchestrator.
type Options struct {
	Size   int
	Logger *infra.Logger
}

// Orchestrator fans a batch out to the generator and tracks each task.
type Orchestrator struct {
	generator Generator
	size      int
	logger    *infra.Logger

	mu      sync.RWMutex
	current *run
}

type run struct {
	// publish orders onUpdate calls; mu guards the task state only.
	publish sync.Mutex

	mu    sync.Mutex
	id    string
	tasks []Task
	done  bool
}

// NewOrchestrator wires a generator with the batch size from opts.
func NewOrchestrator(generator Generator, opts Options) *Orchestrator {
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}
	logger := opts.Logger
	if logger == nil {
		discard := infra.Logger(zerolog.Nop())
		logger = &discard
	}
	return &Orchestrator{generator: generator, size: size, logger: logger}
}

// Size returns the number of tasks per batch.
func (o *Orchestrator) Size() int {
	return o.size
}

// Current returns the latest batch snapshot, if a batch was ever started.
func (o *Orchestrator) Current() (Snapshot, bool) {
	o.mu.RLock()
	r := o.current
	o.mu.RUnlock()
	if r == nil {
		return Snapshot{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(), true
}

// Run validates the inputs, publishes a pending snapshot, dispatches every
// task concurrently and returns once all of them settled. Task failures are
// recorded on the task and never abort siblings. Cancelling ctx does not
// stop dispatched tasks.
func (o *Orchestrator) Run(ctx context.Context, model, product *encoder.SourceImage, params Params, onUpdate UpdateFunc) (Result, error) {
	if model.IsZero() || product.IsZero() {
		return Result{}, fmt.Errorf("batch: model and product images are required: %w", domain.ErrValidation)
	}
	if o.generator == nil {
		return Result{}, fmt.Errorf("batch: no generator configured: %w", domain.ErrConfiguration)
	}
	if onUpdate == nil {
		onUpdate = func(Snapshot) {}
	}

	r := &run{
		id:    uuid.NewString(),
		tasks: lo.Times(o.size, func(i int) Task { return Task{Index: i, State: StatePending} }),
	}
	o.mu.Lock()
	o.current = r
	o.mu.Unlock()

	log := o.logger.With().Str("batch_id", r.id).Int("size", o.size).Logger()
	log.Info().Bool("high_quality", params.HighQuality).Msg("batch: started")

	r.emit(onUpdate, func() bool { return true })

	taskCtx := context.WithoutCancel(ctx)
	modelImg, productImg := *model, *product

	var g errgroup.Group
	for i := 0; i < o.size; i++ {
		g.Go(func() error {
			text := prompt.Build(params.Style, params.HighQuality, i)
			src, err := o.generator.Generate(taskCtx, text, modelImg, productImg)
			if err != nil {
				log.Warn().Err(err).Int("task", i).Msg("batch: task failed")
				r.settle(i, StateFailed, "", onUpdate)
				return nil
			}
			r.settle(i, StateSucceeded, src, onUpdate)
			return nil
		})
	}
	_ = g.Wait()

	var final Snapshot
	r.emit(func(s Snapshot) {
		final = s
		onUpdate(s)
	}, func() bool {
		r.done = true
		return true
	})

	result := Result{Snapshot: final, Failed: final.HasFailures()}
	log.Info().
		Int("succeeded", final.Count(StateSucceeded)).
		Int("failed", final.Count(StateFailed)).
		Msg("batch: finished")
	return result, nil
}

// settle applies the single transition of task i and publishes the result.
func (r *run) settle(i int, state State, src string, onUpdate UpdateFunc) {
	r.emit(onUpdate, func() bool {
		if r.tasks[i].State.Terminal() {
			return false
		}
		r.tasks[i].State = state
		r.tasks[i].Src = src
		return true
	})
}

// emit applies mutate under r.mu and, when it reports a change, publishes the
// resulting snapshot after releasing r.mu. Holding publish across both steps
// keeps snapshots delivered in the order they were taken.
func (r *run) emit(onUpdate UpdateFunc, mutate func() bool) {
	r.publish.Lock()
	defer r.publish.Unlock()

	r.mu.Lock()
	changed := mutate()
	snap := r.snapshot()
	r.mu.Unlock()

	if changed {
		onUpdate(snap)
	}
}

// snapshot copies the run; callers hold r.mu.
func (r *run) snapshot() Snapshot {
	return Snapshot{
		ID:    r.id,
		Tasks: append([]Task(nil), r.tasks...),
		Done:  r.done,
	}
}
