package container

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the lifecycle position of a BeanContext.
type Phase int

const (
	// PhaseOpen accepts work; finish has not been requested.
	PhaseOpen Phase = iota
	// PhaseFinishing means finish was requested and tickets are still pending.
	PhaseFinishing
	// PhaseFinished means the finish chain has run.
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseFinishing:
		return "finishing"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Ticket stands for one pending asynchronous step a BeanContext waits on.
type Ticket struct {
	id    uuid.UUID
	label string
}

// ID returns the ticket identity.
func (t *Ticket) ID() uuid.UUID { return t.id }

// Label returns the description given to Wait.
func (t *Ticket) Label() string { return t.label }

// BeanContext gates the finish phase of a creational context. The finish chain
// runs exactly once, when finish was requested and every ticket handed out by
// Wait has been returned with Done.
type BeanContext struct {
	comment  string
	pending  map[*Ticket]struct{}
	onFinish []func(settled func())
	appended []func()
	phase    Phase
	draining bool
	log      *zap.Logger
}

func newBeanContext(comment string, log *zap.Logger) *BeanContext {
	return &BeanContext{
		comment: comment,
		pending: make(map[*Ticket]struct{}),
		log:     log,
	}
}

// Comment describes the owner, for diagnostics.
func (b *BeanContext) Comment() string { return b.comment }

// Phase returns the current lifecycle phase.
func (b *BeanContext) Phase() Phase { return b.phase }

// Wait registers a pending step and returns its ticket.
func (b *BeanContext) Wait(label string) *Ticket {
	t := &Ticket{id: uuid.New(), label: label}
	b.pending[t] = struct{}{}
	return t
}

// IsWaitedOn reports whether t is still pending.
func (b *BeanContext) IsWaitedOn(t *Ticket) bool {
	if t == nil {
		return false
	}
	_, ok := b.pending[t]
	return ok
}

// Pending returns the number of outstanding tickets.
func (b *BeanContext) Pending() int { return len(b.pending) }

// Done marks t complete. If finish was requested and t was the last pending
// ticket, the finish chain runs now.
func (b *BeanContext) Done(t *Ticket) {
	if t == nil {
		return
	}
	delete(b.pending, t)
	if b.phase == PhaseFinishing && len(b.pending) == 0 {
		b.run()
	}
}

// Finish requests the finish chain. It runs immediately when nothing is
// pending, otherwise when the last ticket is done. Repeated calls are no-ops.
func (b *BeanContext) Finish() {
	if b.phase != PhaseOpen {
		return
	}
	b.phase = PhaseFinishing
	if len(b.pending) == 0 {
		b.run()
		return
	}
	b.log.Debug("finish deferred",
		zap.String("context", b.comment),
		zap.Int("pending", len(b.pending)))
}

// RunOnFinish queues fn in the main finish queue, or runs it now if the context
// already finished.
func (b *BeanContext) RunOnFinish(fn func()) {
	b.RunOnFinishAsync(func(settled func()) {
		fn()
		settled()
	})
}

// RunOnFinishAsync queues a finish action that completes when it calls
// settled, possibly on a later loop turn. Later actions, including those
// queued with AppendRunOnFinish, wait for it. settled must be called once.
func (b *BeanContext) RunOnFinishAsync(fn func(settled func())) {
	if b.phase == PhaseFinished && !b.draining {
		fn(func() {})
		return
	}
	b.onFinish = append(b.onFinish, fn)
}

// AppendRunOnFinish queues fn to run after the main finish queue has settled,
// or runs it now if the context already finished.
func (b *BeanContext) AppendRunOnFinish(fn func()) {
	if b.phase == PhaseFinished && !b.draining {
		fn()
		return
	}
	b.appended = append(b.appended, fn)
}

func (b *BeanContext) run() {
	b.phase = PhaseFinished
	b.draining = true
	b.log.Debug("finish running",
		zap.String("context", b.comment),
		zap.Int("actions", len(b.onFinish)+len(b.appended)))
	b.drain()
}

// drain runs the queues until empty or until a main action is still
// unsettled; that action's settled callback resumes the drain.
func (b *BeanContext) drain() {
	for {
		if len(b.onFinish) > 0 {
			fn := b.onFinish[0]
			b.onFinish = b.onFinish[1:]

			inline, settled := true, false
			fn(func() {
				if settled {
					panic("container: finish action of " + b.comment + " settled twice")
				}
				settled = true
				if !inline {
					b.drain()
				}
			})
			inline = false
			if !settled {
				return
			}
			continue
		}
		if len(b.appended) > 0 {
			fn := b.appended[0]
			b.appended = b.appended[1:]
			fn()
			continue
		}
		break
	}
	b.draining = false
}
