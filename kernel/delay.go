/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

// Delay is delay: it parks the calling task in Wait until at least
// ticks system ticks have elapsed, then yields. A ticks of 0 is a
// no-op, matching the original's short-circuit rather than yielding
// for zero time.
func (k *Kernel) Delay(ticks uint32) {
	if ticks == 0 {
		return
	}
	k.port.EnterCritical()
	t := &k.tasks[k.current]
	t.Status = StatusWait
	t.WakeAtTick = k.ticks + ticks
	k.Yield()
	k.port.ExitCritical()
}

// DelayMS is delay_ms. It converts milliseconds to ticks using the
// TickHz of the KernelConfig the kernel was created with rather than
// assuming a fixed 1ms tick. Start's SysTick reload argument is not
// taken into account: if Start programs a tick rate other than TickHz,
// the conversion does not follow it.
func (k *Kernel) DelayMS(ms uint32) {
	ticks := (ms * k.cfg.TickHz) / 1000
	if ticks == 0 && ms > 0 {
		ticks = 1
	}
	k.Delay(ticks)
}

// SystickHandler is systick_handler: advance the tick count and wake
// any task whose deadline has passed. It assumes the caller already
// holds exclusive access to the task table — true on real hardware
// because SysTick is the highest-priority exception, and true in
// arch/simport because the simulated timer takes the critical section
// itself (as the synthetic tick owner) before invoking this callback.
//
// Per the REDESIGN note, wakeups use a signed tick-difference
// comparison instead of raw equality: a task is woken once its
// deadline has passed, not only on the exact tick it was due, so a
// coalesced or delayed tick can never strand it forever.
//
// Step 3 of §4.3 is task_yield: after waking due tasks, SystickHandler
// calls yieldLocked rather than Yield, since it is already running with
// the table exclusively held and must not try to take the critical
// section a second time. This is what actually arms
// RequestContextSwitch — the system timer interrupt is the sole source
// of involuntary preemption, and without this call a running task that
// never itself calls Yield/Delay/a blocking queue op could never be
// switched out no matter what the wake loop above just made Ready.
//
// On real hardware (arch/cortexm) this is unconditionally correct:
// RequestContextSwitch only pends PendSV, a genuine hardware exception
// that preempts whatever is running regardless of its cooperation, and
// the actual register swap happens on PendSV's own turn. arch/simport
// cannot borrow a busy task goroutine's stack the way a real core
// borrows its registers, so there it can only signal a switch to a task
// goroutine that is itself blocked waiting to be resumed (idle, or any
// task parked in Yield/Delay/a blocking queue call) — a simulated task
// that is mid-computation when the tick fires keeps running on its host
// goroutine until it next calls into the kernel, at which point it
// picks up the switch that was requested under it.
func (k *Kernel) SystickHandler() {
	k.ticks++
	k.idle.onTick(k.tasks[k.current].ID == IdleTaskID)

	for i := range k.tasks {
		t := &k.tasks[i]
		if t.Status != StatusWait {
			continue
		}
		if int32(k.ticks-t.WakeAtTick) >= 0 {
			t.Status = StatusReady
		}
	}

	k.yieldLocked()
}
