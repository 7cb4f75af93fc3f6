package core

import "context"

// step is one external value or asset movement paired with its compensation.
type step struct {
	apply  func(context.Context) error
	revert func(context.Context) error
}

// runSteps applies the steps in order. On failure it reverts the completed
// ones in reverse, so the batch is all-or-nothing from the ledger's point of
// view and the caller can roll its state commit back.
func runSteps(ctx context.Context, steps []step) error {
	for i, s := range steps {
		if err := s.apply(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if steps[j].revert != nil {
					_ = steps[j].revert(ctx)
				}
			}
			return err
		}
	}
	return nil
}
