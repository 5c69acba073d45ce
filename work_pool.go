package auth

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// workPool bounds how many CPU heavy digest operations run at once.
type workPool struct {
	sem  *semaphore.Weighted
	size int64
}

func newWorkPool(size int) *workPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &workPool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// run blocks until a slot is free or ctx is done. Once fn starts it runs
// to completion.
func (p *workPool) run(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	fn()
	return nil
}
