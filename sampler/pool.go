package sampler

import (
	"runtime"
	"sync"
)

// pool runs tasks on a bounded set of worker goroutines and reports the
// first error returned by any task. Tasks write their results into
// index-addressed slots owned by the caller, so completion order does not
// affect result order.
type pool struct {
	sem chan struct{}
	wg  sync.WaitGroup

	mu  sync.Mutex
	err error
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{sem: make(chan struct{}, workers)}
}

// submit schedules task on the pool.
func (p *pool) submit(task func() error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		if err := task(); err != nil {
			p.mu.Lock()
			if p.err == nil {
				p.err = err
			}
			p.mu.Unlock()
		}
	}()
}

// wait blocks until every submitted task has finished and returns the first
// error observed, if any.
func (p *pool) wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
