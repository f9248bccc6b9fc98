/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

// idleWindowTicks is the sample window get_idle_percentage's figure is
// computed over: long enough to smooth out a single task's burst, short
// enough to react within a couple of seconds at the default 1kHz tick.
const idleWindowTicks = 1000

// idleStats tracks how many of the last idleWindowTicks ticks found the
// idle task active, recomputing a percentage once per window rather
// than on every tick.
type idleStats struct {
	windowTicks uint32
	idleTicks   uint32
	percent     uint32
}

func (s *idleStats) onTick(wasIdle bool) {
	s.windowTicks++
	if wasIdle {
		s.idleTicks++
	}
	if s.windowTicks >= idleWindowTicks {
		s.percent = (s.idleTicks * 100) / s.windowTicks
		s.windowTicks = 0
		s.idleTicks = 0
	}
}

// idleEntry is the idle task's body. It runs at the lowest effective
// priority by construction (scheduler_pick only ever falls back to it
// when no other task is Ready) and does nothing but yield, wrapped in
// its own critical section so the switch away from idle is deferred
// until the section closes, exactly like any other yield site.
func (k *Kernel) idleEntry() {
	for {
		k.port.EnterCritical()
		k.Yield()
		k.port.ExitCritical()
	}
}
