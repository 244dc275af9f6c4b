// Package task runs page loads in the background and delivers their results
// only to a screen that is still attached.
package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Owner is the lifetime of one screen. Results that complete after Detach are dropped.
type Owner struct {
	attached atomic.Bool
}

func NewOwner() *Owner {
	o := &Owner{}
	o.attached.Store(true)
	return o
}

// Detach marks the screen as gone. Safe to call more than once.
func (o *Owner) Detach() { o.attached.Store(false) }

func (o *Owner) Attached() bool { return o != nil && o.attached.Load() }

// Task is one asynchronous operation producing a T.
type Task[T any] struct {
	done   chan struct{}
	once   sync.Once
	result T
	err    error
}

// Run starts fn in its own goroutine.
func Run[T any](ctx context.Context, fn func(context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.finish(*new(T), &PanicError{Value: r})
			}
		}()
		v, err := fn(ctx)
		t.finish(v, err)
	}()
	return t
}

func (t *Task[T]) finish(v T, err error) {
	t.once.Do(func() {
		t.result, t.err = v, err
		close(t.done)
	})
}

func (t *Task[T]) Done() <-chan struct{} { return t.done }

func (t *Task[T]) finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Err is valid once Done is closed.
func (t *Task[T]) Err() error { return t.err }

// Result is valid once Done is closed.
func (t *Task[T]) Result() T { return t.result }

// Wait blocks until the task finishes or ctx ends.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// PanicError wraps a panic recovered inside a task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("task panicked: %v", e.Value) }

// Await waits for t and calls onOK or onErr, but only while owner is
// still attached. A result arriving after Detach is dropped: neither callback
// runs and Await returns nil.
//
// If ctx ends first, Await returns ctx's error without calling either
// callback. Only the wait stops; t keeps running.
func Await[T any](ctx context.Context, t *Task[T], owner *Owner, onOK func(T), onErr func(error)) error {
	v, err := t.Wait(ctx)
	if !owner.Attached() {
		return nil
	}
	if !t.finished() {
		return err
	}
	v, err = t.result, t.err
	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		return err
	}
	if onOK != nil {
		onOK(v)
	}
	return nil
}

// Pending is any task whose completion can be observed.
type Pending interface {
	Done() <-chan struct{}
	Err() error
}

// All waits for every task and returns the first failure as soon as it is
// seen, without waiting for the rest.
func All(ctx context.Context, tasks ...Pending) error {
	remaining := len(tasks)
	finished := make([]bool, len(tasks))
	for remaining > 0 {
		progressed := false
		for i, t := range tasks {
			if finished[i] {
				continue
			}
			select {
			case <-t.Done():
				finished[i] = true
				remaining--
				progressed = true
				if err := t.Err(); err != nil {
					return err
				}
			default:
			}
		}
		if remaining == 0 || progressed {
			continue
		}
		if err := waitAny(ctx, tasks, finished); err != nil {
			return err
		}
	}
	return nil
}

// waitAny blocks until any unfinished task completes or ctx ends.
func waitAny(ctx context.Context, tasks []Pending, finished []bool) error {
	wake := make(chan struct{}, len(tasks))
	stop := make(chan struct{})
	defer close(stop)
	for i, t := range tasks {
		if finished[i] {
			continue
		}
		go func(done <-chan struct{}) {
			select {
			case <-done:
				wake <- struct{}{}
			case <-stop:
			}
		}(t.Done())
	}
	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
