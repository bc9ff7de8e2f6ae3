package pipeline

import (
	"context"
	"log/slog"

	"github.com/certsnap/certsnap/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step mutating the record
// produced by previous steps.
//
// Design decision: We use an interface rather than function types because:
//  1. It allows steps to carry configuration state
//  2. It provides a Name() method for logging and debugging
//  3. Steps can hand intermediate data (the fetched page) to later steps
type Step interface {
	// Do executes the pipeline step against the record.
	// A returned error marks the identifier as failed; the record still
	// emits with whatever it accumulated before the failure.
	Do(ctx context.Context, record *model.ResultRecord) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes the steps for a single identifier.
//
// A pipeline instance carries per-identifier intermediate state inside its
// steps, so each identifier needs a fresh pipeline. The BatchProcessor's
// factory handles that.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep or AddSteps after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence for one record.
//
// A step failure stops the remaining steps, attaches the error to the
// record and emits it; the identifier still produces its output row. Only
// context cancellation returns an error, and then the record is abandoned
// un-emitted so no partial row reaches the output.
func (p *Pipeline) Execute(ctx context.Context, record *model.ResultRecord) error {
	for _, step := range p.steps {
		// Check for cancellation before starting each step
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"identifier", record.Identifier,
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"identifier", record.Identifier,
		)

		if err := step.Do(ctx, record); err != nil {
			// Cancellation mid-step abandons the record without a row.
			if ctx.Err() != nil {
				return ctx.Err()
			}

			p.logger.Error("step failed",
				"step", step.Name(),
				"identifier", record.Identifier,
				"error", err,
			)
			record.SetError(err)
			break
		}
	}

	record.Emit()
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
