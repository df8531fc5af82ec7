package pyext

import "context"

// buildStep is one stage of the configure -> install sequence.
type buildStep struct {
	stage string
	run   func(ctx context.Context) error
}

// runSteps executes build stages strictly in order.
//
// # Process Flow
//
//  1. Check for context cancellation
//  2. Run the stage and wait for it to finish
//  3. Stop at the first failing stage
//
// No stage is retried. Build tools are not assumed to be idempotent, and a
// half-configured tree is never reused, so the first error is final.
//
// onStage, when non-nil, is called before each stage starts.
func runSteps(ctx context.Context, steps []buildStep, onStage func(stage string)) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if onStage != nil {
			onStage(step.stage)
		}

		if err := step.run(ctx); err != nil {
			return err
		}
	}

	return nil
}
