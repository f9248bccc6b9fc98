/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package queue

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/mbarbareschi/mariosgo/kernel"
)

// fakeScheduler is a minimal Scheduler for exercising the queue package
// in isolation from the real task table and arch.Port. EnterCritical
// and ExitCritical take a real lock, standing in for arch.Port's
// genuine mutual exclusion — a Queue keeps no lock of its own, so a
// no-op fake here would leave concurrent callers racing on its fields.
type fakeScheduler struct {
	crit sync.Mutex

	mu      sync.Mutex
	current kernel.TaskID
	status  map[kernel.TaskID]kernel.Status
}

func newFakeScheduler(current kernel.TaskID) *fakeScheduler {
	return &fakeScheduler{current: current, status: make(map[kernel.TaskID]kernel.Status)}
}

func (f *fakeScheduler) GetCurrentTaskID() kernel.TaskID { return f.current }

func (f *fakeScheduler) SetTaskStatus(id kernel.TaskID, status kernel.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id] = status
	return nil
}

// Yield is a no-op: a task "blocked" on this fake never actually parks,
// it just keeps retrying from the top of Enqueue/Dequeue's loop, which
// is enough to prove the queue's own state machine behaves correctly
// without pulling in the real kernel's goroutine-parking machinery.
func (f *fakeScheduler) Yield() {}

func (f *fakeScheduler) EnterCritical() { f.crit.Lock() }
func (f *fakeScheduler) ExitCritical()  { f.crit.Unlock() }

func TestEnqueueDequeueNonBlockingRoundTrip(t *testing.T) {
	q, err := NewQueue(4)
	if err != nil {
		t.Fatalf("NewQueue: %v", err)
	}
	sch := newFakeScheduler(1)

	for _, b := range []byte{'a', 'b', 'c'} {
		if st, err := q.Enqueue(sch, []byte{b}, NonBlocking); st != Success || err != nil {
			t.Fatalf("Enqueue(%q): status=%v err=%v", b, st, err)
		}
	}
	for _, want := range []byte{'a', 'b', 'c'} {
		got := make([]byte, 1)
		st, err := q.Dequeue(sch, got, NonBlocking)
		if st != Success || err != nil || got[0] != want {
			t.Fatalf("Dequeue: got=%q status=%v err=%v, want %q", got, st, err, want)
		}
	}
}

// TestEnqueueDequeueRoundTripLaw is §8's round-trip law: enqueueing any
// message of 1..capacity bytes into a fresh queue and immediately
// dequeuing the same number of bytes yields exactly what was sent, for
// every size in range.
func TestEnqueueDequeueRoundTripLaw(t *testing.T) {
	const capacity = 8
	for n := 1; n <= capacity; n++ {
		q, _ := NewQueue(capacity)
		sch := newFakeScheduler(1)

		msg := make([]byte, n)
		for i := range msg {
			msg[i] = byte('A' + i)
		}

		if st, err := q.Enqueue(sch, msg, NonBlocking); st != Success || err != nil {
			t.Fatalf("n=%d: Enqueue status=%v err=%v", n, st, err)
		}
		got := make([]byte, n)
		if st, err := q.Dequeue(sch, got, NonBlocking); st != Success || err != nil {
			t.Fatalf("n=%d: Dequeue status=%v err=%v", n, st, err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("n=%d: got %v, want %v", n, got, msg)
		}
	}
}

// TestEnqueueNonBlockingFullCapacityThenFull is §8's seed test 4: a
// queue of capacity 8 admits two 4-byte messages, then a third 4-byte
// NonBlocking enqueue reports Full, and once both messages are drained
// a third NonBlocking dequeue reports Empty.
func TestEnqueueNonBlockingFullCapacityThenFull(t *testing.T) {
	q, _ := NewQueue(8)
	sch := newFakeScheduler(1)

	first := []byte{1, 2, 3, 4}
	second := []byte{5, 6, 7, 8}

	if st, _ := q.Enqueue(sch, first, NonBlocking); st != Success {
		t.Fatalf("first Enqueue: %v", st)
	}
	if st, _ := q.Enqueue(sch, second, NonBlocking); st != Success {
		t.Fatalf("second Enqueue: %v", st)
	}
	if st, _ := q.Enqueue(sch, []byte{9, 10, 11, 12}, NonBlocking); st != Full {
		t.Fatalf("third Enqueue: got %v, want Full", st)
	}

	buf := make([]byte, 4)
	if st, _ := q.Dequeue(sch, buf, NonBlocking); st != Success || !bytes.Equal(buf, first) {
		t.Fatalf("first Dequeue: status=%v data=%v", st, buf)
	}
	if st, _ := q.Dequeue(sch, buf, NonBlocking); st != Success || !bytes.Equal(buf, second) {
		t.Fatalf("second Dequeue: status=%v data=%v", st, buf)
	}
	if st, _ := q.Dequeue(sch, buf, NonBlocking); st != Empty {
		t.Fatalf("third Dequeue: got %v, want Empty", st)
	}
}

func TestDequeueNonBlockingReportsEmpty(t *testing.T) {
	q, _ := NewQueue(2)
	sch := newFakeScheduler(1)

	if st, _ := q.Dequeue(sch, make([]byte, 1), NonBlocking); st != Empty {
		t.Fatalf("Dequeue on empty queue: got %v, want Empty", st)
	}
}

// TestDequeueWraparound is §8's seed test 5: a 6-byte queue receives a
// 4-byte message, drains it, then receives and drains a second 4-byte
// message that straddles the wraparound, reading back exactly the
// bytes that were sent and in order.
func TestDequeueWraparound(t *testing.T) {
	q, _ := NewQueue(6)
	sch := newFakeScheduler(1)

	if st, _ := q.Enqueue(sch, []byte{1, 2, 3, 4}, NonBlocking); st != Success {
		t.Fatalf("first Enqueue: %v", st)
	}
	buf := make([]byte, 4)
	if st, _ := q.Dequeue(sch, buf, NonBlocking); st != Success {
		t.Fatalf("first Dequeue: %v", st)
	}

	second := []byte{5, 6, 7, 8}
	if st, _ := q.Enqueue(sch, second, NonBlocking); st != Success {
		t.Fatalf("second Enqueue: %v", st)
	}
	if st, _ := q.Dequeue(sch, buf, NonBlocking); st != Success || !bytes.Equal(buf, second) {
		t.Fatalf("second Dequeue: status=%v data=%v, want %v", st, buf, second)
	}
}

// TestBlockingEnqueueBackpressure is §8's seed test 3: a 4-byte queue
// fills one byte at a time until a fifth Blocking enqueue suspends the
// producer; a single-byte dequeue frees exactly enough room for that
// suspended enqueue to complete, leaving 5 sent, 1 received, and a full
// queue again.
func TestBlockingEnqueueBackpressure(t *testing.T) {
	q, _ := NewQueue(4)
	producer := newFakeScheduler(1)
	consumer := newFakeScheduler(2)

	for i := byte(0); i < 4; i++ {
		if st, err := q.Enqueue(producer, []byte{i}, Blocking); st != Success || err != nil {
			t.Fatalf("enqueue %d: status=%v err=%v", i, st, err)
		}
	}

	fifthDone := make(chan Status, 1)
	go func() {
		st, _ := q.Enqueue(producer, []byte{4}, Blocking)
		fifthDone <- st
	}()

	time.Sleep(10 * time.Millisecond)
	select {
	case <-fifthDone:
		t.Fatal("fifth Enqueue completed before any room was freed")
	default:
	}

	got := make([]byte, 1)
	if st, err := q.Dequeue(consumer, got, NonBlocking); st != Success || err != nil {
		t.Fatalf("Dequeue: status=%v err=%v", st, err)
	}
	if got[0] != 0 {
		t.Fatalf("Dequeue: got %d, want 0", got[0])
	}

	select {
	case st := <-fifthDone:
		if st != Success {
			t.Fatalf("fifth Enqueue: got %v, want Success", st)
		}
	case <-time.After(time.Second):
		t.Fatal("fifth Enqueue never unblocked after a slot freed")
	}

	if n := q.Len(producer); n != 4 {
		t.Fatalf("Len after backpressure round: %d, want 4 (freeBytes == 0)", n)
	}
}

func TestBlockingDequeueWaitsForWriter(t *testing.T) {
	q, _ := NewQueue(1)
	reader := newFakeScheduler(1)
	writer := newFakeScheduler(2)

	result := make(chan byte, 1)
	go func() {
		buf := make([]byte, 1)
		st, err := q.Dequeue(reader, buf, Blocking)
		if err != nil || st != Success {
			t.Errorf("blocking Dequeue: status=%v err=%v", st, err)
			return
		}
		result <- buf[0]
	}()

	time.Sleep(10 * time.Millisecond)
	if st, err := q.Enqueue(writer, []byte{42}, Blocking); st != Success || err != nil {
		t.Fatalf("Enqueue: status=%v err=%v", st, err)
	}

	select {
	case b := <-result:
		if b != 42 {
			t.Fatalf("got %d, want 42", b)
		}
	case <-time.After(time.Second):
		t.Fatal("blocking Dequeue never observed the enqueued byte")
	}
}

func TestResetClearsBufferAndWaiters(t *testing.T) {
	q, _ := NewQueue(2)
	sch := newFakeScheduler(1)
	q.Enqueue(sch, []byte{1}, NonBlocking)
	q.readers[99] = struct{}{}

	if ok := q.Reset(sch); !ok {
		t.Fatalf("Reset: got false, want true")
	}
	if got := q.Len(sch); got != 0 {
		t.Fatalf("Len after Reset: %d, want 0", got)
	}
	if len(q.readers) != 0 || len(q.writers) != 0 {
		t.Fatalf("waiter sets not cleared: readers=%v writers=%v", q.readers, q.writers)
	}
	if st, _ := q.Dequeue(sch, make([]byte, 1), NonBlocking); st != Empty {
		t.Fatalf("Dequeue after Reset: %v, want Empty", st)
	}
}

func TestResetNoopsWhileLocked(t *testing.T) {
	q, _ := NewQueue(2)
	sch := newFakeScheduler(1)
	q.writeLocked = true

	if ok := q.Reset(sch); ok {
		t.Fatalf("Reset while locked: got true, want false (silent no-op)")
	}
}
