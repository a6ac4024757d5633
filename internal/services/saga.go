package services

import (
	"context"
	"log"
	"time"
)

const compensationTimeout = 5 * time.Second

// sagaStep is one forward action and the action that undoes it.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes steps in order. When a step fails, the compensations of
// the steps that already completed run in reverse and the step's error is
// returned unchanged. Compensations still run if ctx was cancelled.
func runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}
		log.Printf("Step %q failed: %v", step.name, err)

		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		for j := i - 1; j >= 0; j-- {
			if steps[j].compensate == nil {
				continue
			}
			if cerr := steps[j].compensate(cctx); cerr != nil {
				log.Printf("Compensation for step %q failed: %v", steps[j].name, cerr)
			}
		}
		cancel()
		return err
	}
	return nil
}
