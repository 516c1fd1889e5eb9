// Package sched provides a cancellable callback scheduler driven by virtual
// time. The owner of the scheduler advances time explicitly, and callbacks run
// synchronously on the owner's goroutine, so code scheduled here never races
// with the code that advances it.
package sched

import (
	"container/heap"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It returns false if the callback already
	// ran or was stopped before.
	Stop() bool
}

// Scheduler schedules callbacks to run after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Virtual is a Scheduler whose clock only moves when Advance is called.
// It is not safe for concurrent use.
type Virtual struct {
	now   time.Duration
	seq   uint64
	queue timerQueue
}

// NewVirtual creates a scheduler at virtual time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	return v.now
}

// Pending returns the number of callbacks waiting to run.
func (v *Virtual) Pending() int {
	return len(v.queue)
}

// AfterFunc schedules f to run once virtual time has advanced by d.
// Negative delays are treated as zero.
func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{
		owner: v,
		at:    v.now + d,
		seq:   v.seq,
		fn:    f,
		index: -1,
	}
	heap.Push(&v.queue, t)
	return t
}

// Advance moves virtual time forward by d, running every callback that
// becomes due in deadline order. Callbacks scheduled by a running callback
// also run if they fall inside the window. It returns the number of
// callbacks that ran.
func (v *Virtual) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := v.now + d
	fired := 0
	for len(v.queue) > 0 && v.queue[0].at <= target {
		t := heap.Pop(&v.queue).(*virtualTimer)
		v.now = t.at
		t.done = true
		fired++
		t.fn()
	}
	v.now = target
	return fired
}

type virtualTimer struct {
	owner *Virtual
	at    time.Duration
	seq   uint64
	fn    func()
	index int
	done  bool
}

func (t *virtualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	if t.index >= 0 {
		heap.Remove(&t.owner.queue, t.index)
	}
	return true
}

// timerQueue orders timers by deadline, then by scheduling order.
type timerQueue []*virtualTimer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*virtualTimer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
