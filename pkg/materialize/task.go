package materialize

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler defers a step to the next turn of whatever loop hosts the
// presentation layer. The materializer performs exactly one batch
// commit per scheduled turn, so implementations control the pacing:
// a rendering frame, a timer tick, or an immediate call in tests.
//
// Defer must not invoke step synchronously from within a running step
// unless the implementation is explicitly synchronous (see Immediate).
type Scheduler interface {
	Defer(step func())
}

// Immediate runs each step synchronously. Useful in tests and for
// callers that want the whole sequence in one call (the batches still
// arrive through OnBatch in order).
type Immediate struct{}

// Defer runs step right away.
func (Immediate) Defer(step func()) { step() }

// Interval schedules each step after a fixed delay, approximating one
// batch per rendering frame.
type Interval struct {
	Every time.Duration
}

// Defer runs step after the configured delay.
func (s Interval) Defer(step func()) {
	d := s.Every
	if d <= 0 {
		d = 16 * time.Millisecond
	}
	time.AfterFunc(d, step)
}

// Task is one in-flight batch sequence. It exposes Cancel so a newer
// materialization request can stop it before any further commit; a
// cancelled task never calls OnBatch again.
type Task struct {
	nodes   []NodeDescriptor
	edges   []EdgeDescriptor
	chunk   int
	onBatch OnBatch
	sched   Scheduler

	batch     int
	cancelled atomic.Bool
	done      chan struct{}
	doneOnce  sync.Once
}

// Cancel stops the sequence. Pending scheduled steps become no-ops.
// Cancel is safe to call from any goroutine and more than once.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.finish()
}

// Cancelled reports whether the task was cancelled.
func (t *Task) Cancelled() bool { return t.cancelled.Load() }

// Done is closed when the sequence has committed its final batch or
// was cancelled.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) finish() {
	t.doneOnce.Do(func() { close(t.done) })
}

// step commits the next cumulative batch and reschedules itself until
// the candidate set is exhausted.
func (t *Task) step() {
	if t.cancelled.Load() {
		return
	}

	t.batch++
	nodes, edges, progress := Prefix(t.nodes, t.edges, t.chunk, t.batch)
	t.onBatch(nodes, edges, progress)

	if len(nodes) == len(t.nodes) {
		t.finish()
		return
	}
	t.sched.Defer(t.step)
}

// Materializer owns the single active batch sequence. Starting a new
// materialization atomically cancels the previous task before the new
// one commits anything, so there is never more than one live sequence
// and no out-of-order commit. Toggle handlers may call Run while a
// sequence is in flight; that is the intended use.
type Materializer struct {
	chunk int
	sched Scheduler

	mu      sync.Mutex
	current *Task
}

// New creates a materializer. A chunk of 0 means DefaultChunkSize; a
// nil scheduler means Immediate.
func New(chunk int, sched Scheduler) *Materializer {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if sched == nil {
		sched = Immediate{}
	}
	return &Materializer{chunk: chunk, sched: sched}
}

// ChunkSize returns the configured batch size.
func (m *Materializer) ChunkSize() int { return m.chunk }

// Run cancels any in-flight sequence and starts a fresh one over the
// given candidate lists, returning the new task as a cancel handle.
// The first batch is committed on the next scheduler turn. An empty
// candidate set completes with a single empty commit at progress 100.
func (m *Materializer) Run(nodes []NodeDescriptor, edges []EdgeDescriptor, onBatch OnBatch) *Task {
	task := &Task{
		nodes:   nodes,
		edges:   edges,
		chunk:   m.chunk,
		onBatch: onBatch,
		sched:   m.sched,
		done:    make(chan struct{}),
	}

	m.mu.Lock()
	if m.current != nil {
		m.current.Cancel()
	}
	m.current = task
	m.mu.Unlock()

	m.sched.Defer(task.step)
	return task
}

// Cancel stops the active sequence, if any.
func (m *Materializer) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Cancel()
		m.current = nil
	}
}
