/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

// Package queue implements the bounded in-memory byte queue described
// in §5: a fixed-capacity ring buffer that a task can put an arbitrary
// run of bytes into or take one out of, either without blocking
// (NonBlocking, reporting Full/Empty back to the caller) or by
// suspending until enough space or data becomes available (Blocking).
// Admission is atomic over the whole run — a message is never admitted
// partially — and a run that doesn't fit contiguously at the tail (or
// head, for a read) is split across the wraparound.
//
// It depends only on the narrow Scheduler interface, not on *kernel.Kernel
// directly, so it can be tested against a fake scheduler without pulling
// in the whole task table and arch.Port machinery.
package queue

import "github.com/mbarbareschi/mariosgo/kernel"

// Mode selects how Enqueue/Dequeue behave when the queue can't
// immediately satisfy the request.
type Mode int

const (
	// Blocking suspends the calling task until the operation succeeds.
	Blocking Mode = iota
	// NonBlocking returns Busy, Full or Empty immediately instead.
	NonBlocking
)

// Status is the outcome of a queue operation.
type Status int

const (
	Success Status = iota
	Busy
	Full
	Empty
)

func (s Status) String() string {
	switch s {
	case Success:
		return "Success"
	case Busy:
		return "Busy"
	case Full:
		return "Full"
	case Empty:
		return "Empty"
	}
	return "Unknown"
}

// Scheduler is the slice of *kernel.Kernel the queue package needs: who
// is currently running, a way to move a task between Suspend and Ready,
// and the same Yield/critical-section primitives task code itself uses.
// Accepting this interface rather than *kernel.Kernel keeps the queue
// package free to be tested with a fake.
type Scheduler interface {
	GetCurrentTaskID() kernel.TaskID
	SetTaskStatus(id kernel.TaskID, status kernel.Status) error
	Yield()
	EnterCritical()
	ExitCritical()
}

var _ Scheduler = (*kernel.Kernel)(nil)
