/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

// Package kernel implements the task table and scheduler of a minimal
// single-core preemptive kernel: a fixed-capacity set of cooperating
// tasks, each with its own stack and priority, scheduled round-robin or
// by priority-with-period, driven by a system tick and a pend-service
// context switch through the arch.Port boundary.
package kernel

import "github.com/mbarbareschi/mariosgo/arch"

// TaskID identifies a task. IDs are assigned densely starting at 1 and
// are stable for the life of the kernel; the idle task is always 0.
type TaskID uint16

// InvalidTaskID is the reserved sentinel task_create returns when the
// table is full.
const InvalidTaskID TaskID = 0xFFFF

// IdleTaskID is the fixed identity of the idle task.
const IdleTaskID TaskID = 0

// Status is one of the four states a task can be in.
type Status int

const (
	StatusReady Status = iota
	StatusActive
	StatusWait
	StatusSuspend
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusActive:
		return "Active"
	case StatusWait:
		return "Wait"
	case StatusSuspend:
		return "Suspend"
	}
	return "Unknown"
}

// Policy selects the scheduling algorithm scheduler_pick uses.
type Policy int

const (
	// PolicyRoundRobin scans for the next Ready non-idle task starting
	// after the current one; it ignores Priority and Period.
	PolicyRoundRobin Policy = iota

	// PolicyPriority picks the highest-priority Ready task, with a
	// period-guard tie-break against the currently running task.
	PolicyPriority
)

// TCB is a task control block. Per §9's tagged-variant note, WakeAtTick
// is only meaningful while Status == StatusWait; a task's queue
// membership while Status == StatusSuspend is tracked by the queue
// itself (the waiter bitmaps), not here, so there is no dangling
// "which queue" field to keep in sync on every status change.
type TCB struct {
	// SP is the architecture handle for this task — on real hardware
	// its saved stack pointer, in simulation an opaque goroutine key.
	// It is conceptually the first field, per §3, so that the
	// context-switch boundary can load it directly.
	SP arch.TaskHandle

	ID       TaskID
	Status   Status
	Priority uint8
	Period   uint32 // ticks; 0 means aperiodic

	LastActiveTick     uint32
	LastActivationTick uint32
	WakeAtTick         uint32
}
