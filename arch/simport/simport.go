/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

// Package simport is a host-simulated arch.Port. It has no registers to
// save: each task is backed by a parked goroutine, and "context switch"
// is a handoff between two channels that guarantees exactly one of them
// is ever runnable at a time. It exists so the scheduler, delay, and
// queue packages can be exercised end-to-end by `go test` without real
// Cortex-M hardware, and so the mariosim command can demonstrate the
// kernel's behavior on a developer's machine.
//
// ConfigureSystick's reloadTicks argument is interpreted as a period in
// microseconds here, standing in for the cycle-count reload register a
// real SysTick would use.
//
// The one thing real hardware gives for free that a goroutine-based
// simulation does not is that "interrupts disabled" genuinely serializes
// everything, including the timer ISR. Here the timer is an independent
// goroutine, so EnterCritical/ExitCritical are backed by a real
// exclusive lock (excl) that the timer goroutine also has to take before
// running its registered callback — see enterAs/exitAs.
package simport

import (
	"errors"
	"sync"

	"github.com/mbarbareschi/mariosgo/arch"
	"github.com/mbarbareschi/mariosgo/klog"
)

var ErrAlreadyConfigured = errors.New("simport: systick already configured")

var _ arch.Port = (*Port)(nil)

// tickOwner is a synthetic handle identifying the simulated timer
// interrupt as the holder of the critical section. Real task handles
// start at 1, so 0 can never collide with one.
const tickOwner arch.TaskHandle = 0

type taskCtl struct {
	resume chan struct{}
}

// Port is the simulated architecture port. The zero value is not usable;
// create one with New.
type Port struct {
	log *klog.Logger

	mu       sync.Mutex
	handles  map[arch.TaskHandle]*taskCtl
	nextID   arch.TaskHandle
	current  arch.TaskHandle
	pending  bool
	pendNext arch.TaskHandle

	excl      sync.Mutex
	ownerSet  bool
	owner     arch.TaskHandle
	critDepth int

	tickStop chan struct{}
	tickDone chan struct{}
}

// New creates a simulated port. lg may be nil, in which case logging is
// silently skipped.
func New(lg *klog.Logger) *Port {
	return &Port{
		log:     lg,
		handles: make(map[arch.TaskHandle]*taskCtl),
		nextID:  1, // 0 is reserved for tickOwner
	}
}

func (p *Port) NewTaskStack(stackWords []uint32, entry func()) arch.TaskHandle {
	p.mu.Lock()
	h := p.nextID
	p.nextID++
	ctl := &taskCtl{resume: make(chan struct{}, 1)}
	p.handles[h] = ctl
	p.mu.Unlock()

	go func() {
		<-ctl.resume
		entry()
		// task_completion: entry functions must never return. We park
		// the goroutine forever rather than busy-loop, which is the
		// one deliberate deviation from the real trap's spin loop.
		if p.log != nil {
			p.log.Error("task entry returned, trapping", klog.KV("handle", h))
		}
		select {}
	}()
	return h
}

func (p *Port) LoadFirstTask(h arch.TaskHandle) {
	p.mu.Lock()
	p.current = h
	ctl := p.handles[h]
	p.mu.Unlock()
	ctl.resume <- struct{}{}
	select {} // kernel_start never returns
}

// RequestContextSwitch arms a switch to next. If nobody currently holds
// the critical section it fires immediately, from the calling
// goroutine's own stack; otherwise it is deferred to the matching
// exitAs that brings the critical section depth back to zero.
func (p *Port) RequestContextSwitch(next arch.TaskHandle) {
	p.mu.Lock()
	p.pending = true
	p.pendNext = next
	p.mu.Unlock()

	if !p.held() {
		// Nobody holds the section, so this call is itself the outgoing
		// task's own goroutine requesting its own switch-away — block it
		// on its resume channel exactly as a deferred switch would.
		p.fireSwitch(true)
	}
}

func (p *Port) held() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ownerSet
}

func (p *Port) EnterCritical() {
	p.mu.Lock()
	owner := p.current
	p.mu.Unlock()
	p.enterAs(owner)
}

func (p *Port) ExitCritical() {
	p.mu.Lock()
	owner := p.current
	p.mu.Unlock()
	p.exitAs(owner)
}

// enterAs/exitAs implement a critical section that is reentrant for its
// current owner (one task's goroutine nesting calls into itself, e.g.
// Delay calling Yield) but a real mutual-exclusion lock against any
// other goroutine — in practice, the one other goroutine in this
// simulation: the timer ISR.
func (p *Port) enterAs(owner arch.TaskHandle) {
	p.mu.Lock()
	if p.ownerSet && p.owner == owner {
		p.critDepth++
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.excl.Lock()

	p.mu.Lock()
	p.ownerSet = true
	p.owner = owner
	p.critDepth = 1
	p.mu.Unlock()
}

func (p *Port) exitAs(owner arch.TaskHandle) {
	p.mu.Lock()
	if !p.ownerSet || p.owner != owner {
		// Unbalanced call from a non-owner: ignore defensively rather
		// than releasing a lock this goroutine doesn't hold.
		p.mu.Unlock()
		return
	}
	p.critDepth--
	last := p.critDepth <= 0
	var fire bool
	if last {
		p.ownerSet = false
		fire = p.pending
	}
	current := p.current
	p.mu.Unlock()

	if last {
		p.excl.Unlock()
	}
	if fire {
		// selfBlock is true only when the goroutine unwinding this
		// critical section is the same one whose task is about to be
		// switched away — i.e. a task yielding on its own behalf, the
		// same case RequestContextSwitch's immediate-fire path handles.
		// It is false when the section belonged to the simulated timer
		// (owner == tickOwner): the outgoing task's goroutine isn't the
		// one running this code and never parked itself, so there is
		// nothing of its own to block on — blocking here would hang the
		// timer goroutine forever waiting for a check-in that will
		// never come.
		p.fireSwitch(owner == current)
	}
}

// fireSwitch performs the handoff: nextCtl is always woken so the
// incoming task's goroutine runs. Whether the call also blocks on
// curCtl.resume depends on selfBlock: true when the goroutine calling
// fireSwitch IS the outgoing task's own goroutine yielding away from
// itself, in which case blocking here correctly models "this task
// doesn't execute past this point until it is scheduled again"; false
// when fireSwitch is running on the timer goroutine's behalf, since
// that goroutine was never the outgoing task and must return to keep
// ticking. In that case the outgoing task's goroutine simply keeps
// running on the host until it next calls into the kernel. Before
// LoadFirstTask there is no outgoing task, so nothing blocks.
func (p *Port) fireSwitch(selfBlock bool) {
	p.mu.Lock()
	if !p.pending {
		p.mu.Unlock()
		return
	}
	next := p.pendNext
	cur := p.current
	p.pending = false
	if next == cur {
		p.mu.Unlock()
		return
	}
	p.current = next
	nextCtl := p.handles[next]
	curCtl := p.handles[cur]
	p.mu.Unlock()

	nextCtl.resume <- struct{}{}
	if selfBlock && curCtl != nil {
		<-curCtl.resume
	}
}

// runTick is invoked by the systick goroutine (see systick_linux.go /
// systick_other.go) once per simulated period. It takes the critical
// section as tickOwner around the callback, matching SysTick being
// configured as the highest-priority exception: real task code, and
// real critical sections, cannot run while it executes.
func (p *Port) runTick(onTick func()) {
	p.enterAs(tickOwner)
	onTick()
	p.exitAs(tickOwner)
}
