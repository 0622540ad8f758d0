package worker

import (
	"context"
	"sync"
)

// Map applies fn to every input on at most workers goroutines and returns
// the results in input order. Once ctx is done, remaining inputs are still
// passed to fn with the cancelled context so every slot gets a result.
func Map[In, Out any](ctx context.Context, workers int, inputs []In, fn func(context.Context, In) Out) []Out {
	results := make([]Out, len(inputs))
	if len(inputs) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = fn(ctx, inputs[i])
			}
		}()
	}

	for i := range inputs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}
