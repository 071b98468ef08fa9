// Package loop provides the single logical thread that creational contexts run on.
//
// A bean provider that cannot complete synchronously (a split fragment that must
// be fetched, a remote answer) does its work elsewhere and posts the completion
// back onto the loop. Everything a context mutates is therefore only touched from
// tasks of one loop.
//
//	q := &loop.Queue{}
//	q.Post(func() { ... })
//	q.RunUntilIdle()
package loop

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Loop accepts tasks to run on a later turn.
type Loop interface {
	Post(task func())
}

// ── Queue ─────────────────────────────────────────────────────────────────────

// Queue is a manually driven loop. It is not safe for concurrent use and is
// meant for tests and for embedding in hosts that own their own scheduling.
type Queue struct {
	tasks []func()
}

// Post appends a task.
func (q *Queue) Post(task func()) {
	if task == nil {
		return
	}
	q.tasks = append(q.tasks, task)
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int { return len(q.tasks) }

// RunNext runs the oldest task. It returns false when the queue is empty.
func (q *Queue) RunNext() bool {
	if len(q.tasks) == 0 {
		return false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	task()
	return true
}

// RunUntilIdle runs tasks, including those posted while running, until none
// are left. It returns how many ran.
func (q *Queue) RunUntilIdle() int {
	n := 0
	for q.RunNext() {
		n++
	}
	return n
}

// ── EventLoop ─────────────────────────────────────────────────────────────────

// PanicError is returned by EventLoop.Run when a task panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("loop: task panicked: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// EventLoop runs posted tasks one at a time on the goroutine that calls Run.
// Post may be called from any goroutine, including from inside a task.
type EventLoop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	log     *zap.Logger
}

// Option customizes an EventLoop.
type Option func(*EventLoop)

// WithLogger sets the logger used to report task panics.
func WithLogger(l *zap.Logger) Option {
	return func(el *EventLoop) {
		if l != nil {
			el.log = l
		}
	}
}

// New creates an idle event loop. Tasks posted before Run are kept.
func New(opts ...Option) *EventLoop {
	el := &EventLoop{
		wake: make(chan struct{}, 1),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(el)
	}
	return el
}

// Post queues a task for the loop goroutine.
func (el *EventLoop) Post(task func()) {
	if task == nil {
		return
	}
	el.mu.Lock()
	el.pending = append(el.pending, task)
	el.mu.Unlock()

	select {
	case el.wake <- struct{}{}:
	default:
	}
}

// Run processes tasks until ctx is done or a task panics. A panic stops the
// loop: the context it was driving is in an unknown state.
func (el *EventLoop) Run(ctx context.Context) error {
	for {
		for {
			batch := el.take()
			if len(batch) == 0 {
				break
			}
			for _, task := range batch {
				if err := el.runTask(task); err != nil {
					el.log.Error("event loop stopped", zap.Error(err))
					return err
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-el.wake:
		}
	}
}

func (el *EventLoop) take() []func() {
	el.mu.Lock()
	defer el.mu.Unlock()
	batch := el.pending
	el.pending = nil
	return batch
}

func (el *EventLoop) runTask(task func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	task()
	return nil
}
