package container

import (
	"fmt"
	"reflect"
)

// WaitList deduplicates concurrent construction. A key present in the list means
// a construction for it is in flight; callers that arrive meanwhile queue up and
// receive the same value once it exists.
//
// WaitList is not safe for concurrent use: it belongs to one loop.
type WaitList[V any] struct {
	waits map[any][]func(V)
}

// NewWaitList returns an empty wait list.
func NewWaitList[V any]() *WaitList[V] {
	return &WaitList[V]{waits: make(map[any][]func(V))}
}

// IsWaitedOn reports whether a construction for key is in flight.
func (w *WaitList[V]) IsWaitedOn(key any) bool {
	_, ok := w.waits[mustKey(key)]
	return ok
}

// AddWait marks key as in flight and queues cb. A nil cb only marks.
func (w *WaitList[V]) AddWait(key any, cb func(V)) {
	key = mustKey(key)
	list, ok := w.waits[key]
	if !ok {
		list = []func(V){}
	}
	if cb != nil {
		list = append(list, cb)
	}
	w.waits[key] = list
}

// Pending returns how many callbacks are queued for key.
func (w *WaitList[V]) Pending(key any) int {
	return len(w.waits[mustKey(key)])
}

// NotifyAllWaiting delivers v to every queued callback in registration order
// and clears key, so the next request starts a fresh construction. The entry
// is detached before delivery; a waiter that starts a new construction for
// the same key is not wiped out.
func (w *WaitList[V]) NotifyAllWaiting(key any, v V) {
	key = mustKey(key)
	list, ok := w.waits[key]
	if !ok {
		return
	}
	delete(w.waits, key)
	for _, cb := range list {
		cb(v)
	}
}

func mustKey(key any) any {
	if key == nil {
		panic("container: wait list key is nil")
	}
	if t := reflect.TypeOf(key); !t.Comparable() {
		panic(fmt.Sprintf("container: wait list key of type %s is not comparable; use a pointer provider", t))
	}
	return key
}
