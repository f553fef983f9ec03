package tile

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkers(t *testing.T) {
	if got := Workers(4, 100); got != 4 {
		t.Errorf("Workers(4, 100) = %d", got)
	}
	if got := Workers(8, 3); got != 3 {
		t.Errorf("Workers(8, 3) = %d", got)
	}
	if got := Workers(0, 1000); got != min(runtime.GOMAXPROCS(0), 1000) {
		t.Errorf("Workers(0, 1000) = %d", got)
	}
	if got := Workers(0, 0); got != 1 {
		t.Errorf("Workers(0, 0) = %d", got)
	}
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()
	if pool.Size() != 3 {
		t.Fatalf("Size = %d", pool.Size())
	}
	var count atomic.Int64
	for i := 0; i < 100; i++ {
		pool.Submit(func() { count.Add(1) })
	}
	pool.Wait()
	if count.Load() != 100 {
		t.Errorf("ran %d tasks, want 100", count.Load())
	}
}

func TestRunAllSlots(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		out := make([]int, 50)
		err := Run(len(out), workers, func(i int) error {
			out[i] = i * i
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range out {
			if v != i*i {
				t.Fatalf("workers=%d: slot %d = %d", workers, i, v)
			}
		}
	}
}

func TestRunLowestError(t *testing.T) {
	for _, workers := range []int{1, 4} {
		err := Run(20, workers, func(i int) error {
			if i == 7 || i == 13 {
				return fmt.Errorf("task %d failed", i)
			}
			return nil
		})
		if err == nil || err.Error() != "task 7 failed" {
			t.Errorf("workers=%d: err = %v, want task 7", workers, err)
		}
	}
}

func TestRunRecoversPanics(t *testing.T) {
	err := Run(10, 4, func(i int) error {
		if i == 5 {
			var s []int
			_ = s[i]
		}
		return nil
	})
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Task != 5 {
		t.Errorf("err = %v, want PanicError for task 5", err)
	}
}
