/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "testing"

func TestRoundRobinSkipsIdleWhileOthersReady(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyRoundRobin)
	a, _ := k.CreateTask(func() {}, 8, 0, 0)
	b, _ := k.CreateTask(func() {}, 8, 0, 0)
	k.current = IdleTaskID

	if got := k.schedulerPick(); got != a {
		t.Fatalf("schedulerPick: got %v, want %v", got, a)
	}

	k.tasks[a].Status = StatusWait
	if got := k.schedulerPick(); got != b {
		t.Fatalf("schedulerPick after a blocks: got %v, want %v", got, b)
	}
}

func TestRoundRobinFallsBackToIdle(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyRoundRobin)
	a, _ := k.CreateTask(func() {}, 8, 0, 0)
	k.tasks[a].Status = StatusWait
	k.current = IdleTaskID

	if got := k.schedulerPick(); got != IdleTaskID {
		t.Fatalf("schedulerPick with nothing Ready: got %v, want idle", got)
	}
}

func TestPriorityPicksHighest(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyPriority)
	low, _ := k.CreateTask(func() {}, 8, 1, 0)
	high, _ := k.CreateTask(func() {}, 8, 9, 0)
	_ = low
	k.current = IdleTaskID

	if got := k.schedulerPick(); got != high {
		t.Fatalf("schedulerPick: got %v, want the high-priority task %v", got, high)
	}
}

func TestPriorityTieBreaksRoundRobin(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyPriority)
	a, _ := k.CreateTask(func() {}, 8, 5, 0)
	b, _ := k.CreateTask(func() {}, 8, 5, 0)
	k.current = a

	if got := k.schedulerPick(); got != b {
		t.Fatalf("tie-break from current=%v: got %v, want %v", a, got, b)
	}

	k.current = b
	if got := k.schedulerPick(); got != a {
		t.Fatalf("tie-break from current=%v: got %v, want %v", b, got, a)
	}
}

func TestPriorityKeepsCurrentWithinPeriod(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyPriority)
	h, _ := k.CreateTask(func() {}, 8, 9, 50)
	k.current = h
	k.tasks[h].LastActivationTick = 0
	k.ticks = 10 // within the 50-tick period

	if got := k.schedulerPick(); got != h {
		t.Fatalf("schedulerPick: got %v, want %v kept (still within its period)", got, h)
	}
}

// TestPriorityFallsBackToIdleWhenSoleCandidateExceedsPeriod is scenario
// 6's starvation-avoidance branch: the only Ready task at the highest
// priority is the one currently running, and it has exceeded its own
// period, so the policy falls back to idle rather than re-selecting it.
func TestPriorityFallsBackToIdleWhenSoleCandidateExceedsPeriod(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyPriority)
	h, _ := k.CreateTask(func() {}, 8, 9, 50)
	k.current = h
	k.tasks[h].LastActivationTick = 0
	k.ticks = 50 // 50 - 0 >= period(50): exceeded

	if got := k.schedulerPick(); got != IdleTaskID {
		t.Fatalf("schedulerPick: got %v, want idle (sole candidate exceeded its period)", got)
	}
}

// TestPriorityPreemptsNonYieldingLowerPriorityAfterDeadline is
// scenario 6 end to end: a low-priority aperiodic task is Ready
// alongside a higher-priority periodic one. Once the higher-priority
// task's own period has elapsed while it was not current, it still
// wins on priority alone; the period guard only ever protects the
// task that is currently running, never gates a task that isn't.
func TestPriorityPreemptsNonYieldingLowerPriorityAfterDeadline(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyPriority)
	low, _ := k.CreateTask(func() {}, 8, 1, 0)
	high, _ := k.CreateTask(func() {}, 8, 99, 50)
	k.current = low
	k.ticks = 1000

	if got := k.schedulerPick(); got != high {
		t.Fatalf("schedulerPick: got %v, want the higher-priority task %v", got, high)
	}
}

func TestSchedulerStepPreservesWaitStatus(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyRoundRobin)
	a, _ := k.CreateTask(func() {}, 8, 0, 0)
	k.current = a
	k.tasks[a].Status = StatusWait // as if Delay had already set this

	k.schedulerStep()

	if k.tasks[a].Status != StatusWait {
		t.Fatalf("schedulerStep clobbered a Wait status: got %v", k.tasks[a].Status)
	}
}
