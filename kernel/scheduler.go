/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

// schedulerPick is scheduler_pick: a pure selection with no side
// effects on the task table, so it can be called speculatively (Start
// uses it to choose the very first task without an outgoing one to
// demote).
func (k *Kernel) schedulerPick() TaskID {
	switch k.policy {
	case PolicyPriority:
		return k.pickPriority()
	default:
		return k.pickRoundRobin()
	}
}

// pickRoundRobin scans forward from the task after current, wrapping
// around the table, and returns the first Ready non-idle task it finds.
// If none is Ready it falls back to the idle task, which is always
// Ready and never itself scheduled out except by this fallback.
func (k *Kernel) pickRoundRobin() TaskID {
	n := len(k.tasks)
	for offset := 1; offset < n; offset++ {
		idx := (int(k.current) + offset) % n
		t := &k.tasks[idx]
		if t.ID == IdleTaskID {
			continue
		}
		if t.Status == StatusReady {
			return t.ID
		}
	}
	return IdleTaskID
}

// pickPriority picks the highest-priority Ready task, applying the
// period-guard tie-break against the currently-running task exactly as
// described: if current is among the Ready tasks at the maximum
// priority and has not exceeded its period (ticks_now -
// last_activation_tick < period), it keeps running; otherwise another
// equally highest-priority task is preferred, round-robin starting
// after current. If current is the SOLE candidate at that priority and
// has exceeded its period, the pick falls back to idle rather than
// re-selecting a task that just missed its own deadline.
//
// The comparison is deliberately unsigned, matching the spec's formula
// verbatim rather than special-casing Period == 0 (aperiodic): an
// aperiodic task's period is 0, so ticks_now - last_activation_tick is
// never less than 0 and it is always treated as having exceeded its
// period — it never gets the "keep running" protection, which is
// exactly round-robin behavior among aperiodic equal-priority tasks.
func (k *Kernel) pickPriority() TaskID {
	n := len(k.tasks)
	var maxPrio uint8
	found := false
	for i := 1; i < n; i++ {
		t := &k.tasks[i]
		if t.Status != StatusReady {
			continue
		}
		if !found || t.Priority > maxPrio {
			maxPrio = t.Priority
			found = true
		}
	}
	if !found {
		return IdleTaskID
	}

	cur := &k.tasks[k.current]
	currentIsCandidate := k.current != IdleTaskID && cur.Status == StatusReady && cur.Priority == maxPrio

	var others []TaskID
	for offset := 1; offset < n; offset++ {
		idx := TaskID((int(k.current) + offset) % n)
		t := &k.tasks[idx]
		if t.ID == IdleTaskID || t.ID == k.current {
			continue
		}
		if t.Status == StatusReady && t.Priority == maxPrio {
			others = append(others, t.ID)
		}
	}

	if currentIsCandidate {
		exceeded := (k.ticks - cur.LastActivationTick) >= cur.Period
		if !exceeded {
			return k.current
		}
		if len(others) > 0 {
			return others[0]
		}
		return IdleTaskID
	}

	if len(others) > 0 {
		return others[0]
	}
	return IdleTaskID
}

// schedulerStep is scheduler_step: it demotes the outgoing task to
// Ready only if it is still Active — a task that called Delay or that
// blocked on a queue has already set its own status to Wait or
// Suspend before reaching here, and schedulerStep must not clobber
// that — then activates whatever schedulerPick returns and reports it.
//
// last_active_tick is stamped on every activation, selection changed or
// not. last_activation_tick — the field the priority policy's period
// guard reads — is only stamped when the selection actually changed,
// per §4.2; bumping it on every tick would make a kept-running task
// look freshly activated and defeat its own period guard.
func (k *Kernel) schedulerStep() TaskID {
	out := &k.tasks[k.current]
	if out.Status == StatusActive {
		out.Status = StatusReady
	}
	prev := k.current
	next := k.schedulerPick()
	in := &k.tasks[next]
	in.Status = StatusActive
	in.LastActiveTick = k.ticks
	if next != prev {
		in.LastActivationTick = k.ticks
	}
	k.current = next
	return next
}

// yieldLocked performs scheduler_step and, if the selection changed,
// requests a context switch — the work task_yield does once it already
// holds (or doesn't need) the critical section. Yield and
// SystickHandler share it: Yield acquires the critical section itself
// before calling it; SystickHandler is already running with the table
// exclusively held (the highest-priority exception on real hardware,
// the simulated timer's owner-held section in arch/simport) and calls
// it directly.
func (k *Kernel) yieldLocked() {
	outgoing := k.current
	incoming := k.schedulerStep()
	if incoming != outgoing {
		k.port.RequestContextSwitch(k.tasks[incoming].SP)
	}
}

// Yield is task_yield: it asks the scheduler for the next task to run
// and, if it differs from the one currently running, requests a
// context switch.
//
// Unlike the original firmware, Yield always brackets the table update
// with EnterCritical/ExitCritical itself rather than trusting every
// call site to do it. On real hardware a single core makes that
// redundant — nothing else can run between two instructions anyway —
// but in arch/simport the system tick is delivered by an independent
// goroutine, so the table needs real mutual exclusion against it.
// RequestContextSwitch is called with the section still held, so the
// switch fires at the ExitCritical that closes the outermost section:
// for an unwrapped, cooperative call to Yield that is Yield's own
// ExitCritical, so it switches before returning; a caller that wraps
// Yield in its own outer critical section (Delay, the queue package)
// gets the deferred-switch behavior, since EnterCritical/ExitCritical
// nest.
func (k *Kernel) Yield() {
	k.port.EnterCritical()
	k.yieldLocked()
	k.port.ExitCritical()
}
