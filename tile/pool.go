package tile

import (
	"fmt"
	"runtime"
	"sync"
)

// Workers resolves the worker count for n tasks: maxThreads, or
// GOMAXPROCS when maxThreads is 0, never more than n and at least 1.
func Workers(maxThreads, n int) int {
	w := maxThreads
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return max(min(w, n), 1)
}

// WorkerPool runs submitted tasks on a fixed set of goroutines fed by a
// bounded channel.
type WorkerPool struct {
	numWorkers int
	wg         sync.WaitGroup
	taskChan   chan func()
	once       sync.Once
}

// NewWorkerPool starts numWorkers goroutines (GOMAXPROCS when <= 0).
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		numWorkers: numWorkers,
		taskChan:   make(chan func(), numWorkers*2),
	}
	for i := 0; i < numWorkers; i++ {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	for task := range p.taskChan {
		task()
		p.wg.Done()
	}
}

// Size returns the number of worker goroutines.
func (p *WorkerPool) Size() int {
	return p.numWorkers
}

// Submit queues a task, blocking while the queue is full.
func (p *WorkerPool) Submit(task func()) {
	p.wg.Add(1)
	p.taskChan <- task
}

// Wait blocks until every submitted task has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Close stops the workers once queued tasks drain.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		close(p.taskChan)
	})
}

// PanicError carries a panic recovered from a task.
type PanicError struct {
	Task  int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("tile: task %d panicked: %v", e.Task, e.Value)
}

// Run calls fn(i) for i in [0, n) on a pool of the given size and waits for
// all of them. Each call owns slot i of whatever it writes. The error of
// the lowest failing index is returned, so the result does not depend on
// scheduling. Panics are recovered as *PanicError.
func Run(n, workers int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}
	errs := make([]error, n)
	call := func(i int) {
		defer func() {
			if r := recover(); r != nil {
				errs[i] = &PanicError{Task: i, Value: r}
			}
		}()
		errs[i] = fn(i)
	}

	if workers <= 1 {
		for i := 0; i < n; i++ {
			call(i)
		}
	} else {
		pool := NewWorkerPool(workers)
		for i := 0; i < n; i++ {
			pool.Submit(func() { call(i) })
		}
		pool.Wait()
		pool.Close()
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
