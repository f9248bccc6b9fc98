/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

//go:build tinygo && arm

// Package cortexm is the real arch.Port for a single-core ARM Cortex-M3/
// M4 target, built with TinyGo. It is the only package in this module
// that touches CPU registers, the NVIC, and SysTick directly, the same
// way device-level TinyGo runtime code reaches for device/arm and
// runtime/volatile instead of modeling peripherals as plain structs.
//
// It is guarded out of ordinary `go build`/`go test`: outside a TinyGo
// ARM build there is neither a device/arm package nor real peripheral
// addresses to poke at. It is exercised by flashing it to hardware, not
// by the test suite — arch/simport stands in for it in every test and
// in the mariosim demo harness.
package cortexm

import (
	"device/arm"
	"errors"
	"runtime/volatile"
	"unsafe"

	"github.com/mbarbareschi/mariosgo/arch"
)

var _ arch.Port = (*Port)(nil)

// Memory-mapped System Control Block / SysTick registers, per the
// ARMv7-M architecture reference manual.
var (
	scbSHPR3   = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED20)))
	scbICSR    = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED04)))
	systickCSR = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000E010)))
	systickRVR = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000E014)))
	systickCVR = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000E018)))
)

const (
	icsrPendSV = 1 << 28

	systickEN   = 1 << 0
	systickTICK = 1 << 1
	systickCLK  = 1 << 2

	initialXPSR = 0x01000000 // Thumb bit set, no flags

	frameWords = 16 // 8 callee-saved + 8 exception-stacked registers
)

var ErrSystickUnavailable = errors.New("cortexm: systick already configured")

// Port is the Cortex-M3/M4 arch.Port. The zero value is ready to use;
// there is exactly one per image since there is exactly one core.
type Port struct {
	systickArmed bool
	critDepth    uint32
}

// New returns the single Cortex-M port for this image.
func New() *Port {
	return &Port{}
}

// NewTaskStack seeds the initial exception return frame described in
// §4.1: XPSR, PC (entry), LR (the trap) at the top of the stack, with
// the callee-saved register slots below them left zeroed, and returns a
// stack pointer 16 words below top-of-stack so the first context
// restore pops exactly what the exception-return sequence expects.
func (p *Port) NewTaskStack(stackWords []uint32, entry func()) taskHandle {
	n := len(stackWords)
	if n < frameWords {
		panic("cortexm: stack too small for initial frame")
	}
	stackWords[n-1] = initialXPSR
	stackWords[n-2] = funcToPC(entry)
	stackWords[n-3] = funcToPC(taskCompletionTrap)
	for i := n - frameWords; i < n-3; i++ {
		stackWords[i] = 0
	}
	return taskHandle(unsafe.Pointer(&stackWords[n-frameWords]))
}

// taskCompletionTrap is task_completion: if a task's entry function
// ever returns, execution lands here and never leaves.
func taskCompletionTrap() {
	for {
		arm.Asm("wfi")
	}
}

// funcToPC recovers a callable code address from a Go func value. This
// relies on the first machine word of a non-nil func value being its
// code pointer, true of the calling convention TinyGo emits for
// Cortex-M.
func funcToPC(f func()) uint32 {
	type funcval struct{ fn uintptr }
	return uint32((*funcval)(unsafe.Pointer(&f)).fn)
}

// LoadFirstTask resets the process stack pointer to h and issues SVC #0
// to drop into thread mode running off that stack. It never returns.
func (p *Port) LoadFirstTask(h taskHandle) {
	setPSP(uintptr(h))
	arm.Asm("cpsie i")
	arm.Asm("svc #0")
	for {
		arm.Asm("wfi")
	}
}

// RequestContextSwitch publishes next as the stack pointer the pending
// PendSV exception should restore, then sets ICSR.PENDSVSET. On real
// hardware that only arms the exception: the register save/restore
// itself runs once interrupts are unmasked and no higher-priority
// exception is active, per §6.3.
func (p *Port) RequestContextSwitch(next taskHandle) {
	publishNextSP(uintptr(next))
	scbICSR.Set(icsrPendSV)
	arm.Asm("dsb")
	arm.Asm("isb")
}

// EnterCritical / ExitCritical set and clear PRIMASK via CPSID/CPSIE,
// nested with a depth counter so the caller can balance nested
// disable/enable pairs exactly as real firmware must.
func (p *Port) EnterCritical() {
	arm.Asm("cpsid i")
	p.critDepth++
}

func (p *Port) ExitCritical() {
	if p.critDepth > 0 {
		p.critDepth--
	}
	if p.critDepth == 0 {
		arm.Asm("cpsie i")
	}
}

// ConfigureSystick programs the SysTick reload register and exception
// priorities: PendSV at the lowest priority (0xFF) so it never preempts
// another ISR mid-switch, SysTick at the highest (0x00) so a tick always
// preempts task code. onTick is invoked from the SysTick handler
// registered via registerTickHandler.
func (p *Port) ConfigureSystick(reloadTicks uint32, onTick func()) error {
	if p.systickArmed {
		return ErrSystickUnavailable
	}
	registerTickHandler(onTick)

	shpr3 := scbSHPR3.Get()
	shpr3 = (shpr3 &^ (0xFF << 16)) | (0xFF << 16) // PendSV = lowest
	shpr3 = (shpr3 &^ (0xFF << 24)) | (0x00 << 24) // SysTick = highest
	scbSHPR3.Set(shpr3)

	systickRVR.Set(reloadTicks & 0x00FFFFFF)
	systickCVR.Set(0)
	systickCSR.Set(systickEN | systickTICK | systickCLK)
	p.systickArmed = true
	return nil
}
