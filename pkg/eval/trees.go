package eval

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wildfunctions/treeval/pkg/dataset"
	"github.com/wildfunctions/treeval/pkg/tree"
)

// EvaluateTrees evaluates a whole population over the same dataset and row
// range, at most workers trees at a time (workers <= 0 means GOMAXPROCS).
// Each tree's evaluation touches only read-only shared state plus its own
// output slice, so the fan-out needs no locking.
//
// A tree that panics (malformed structure slipping past upstream
// validation) yields a nil output and an error naming its index; the rest
// of the population still evaluates.
func EvaluateTrees(trees []*tree.Tree, d *dataset.Dataset, rng dataset.Range, workers int) ([][]float64, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([][]float64, len(trees))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range trees {
		i := i
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("tree %d: %v", i, r)
				}
			}()
			results[i] = Evaluate(trees[i], d, rng, nil)
			return nil
		})
	}
	err := g.Wait()
	return results, err
}
