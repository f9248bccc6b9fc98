/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

//go:build tinygo && arm

package cortexm

import (
	"device/arm"

	"github.com/mbarbareschi/mariosgo/arch"
)

// taskHandle is a saved process stack pointer. It is the one thing the
// exception handlers below are allowed to dereference; nothing above
// the arch.Port boundary ever sees the raw value.
type taskHandle = arch.TaskHandle

var (
	currentSP     uintptr
	nextSP        uintptr
	registeredISR func()
)

func registerTickHandler(f func()) { registeredISR = f }

func publishNextSP(sp uintptr) { nextSP = sp }

// setPSP points the process stack pointer at sp and switches thread
// mode onto it (CONTROL.SPSEL=1), used once at boot by LoadFirstTask.
func setPSP(sp uintptr) {
	currentSP = sp
	arm.AsmFull(
		"msr psp, {sp}\n"+
			"movs r0, #2\n"+
			"msr control, r0\n"+
			"isb\n",
		map[string]interface{}{"sp": sp},
	)
}

// SVC_Handler backs the SVC #0 instruction LoadFirstTask issues: it
// loads the first task's saved process stack pointer, pops the eight
// callee-saved registers, and returns into thread mode on the process
// stack. TinyGo wires this in as the SVCall vector entry.
//
//export SVC_Handler
func SVC_Handler() {
	arm.AsmFull(
		"ldr r0, {sp}\n"+
			"ldmia r0!, {r4-r11}\n"+
			"msr psp, r0\n",
		map[string]interface{}{"sp": &currentSP},
	)
}

// PendSV_Handler is the context-switch exception described in §6.3: it
// saves the outgoing task's callee-saved registers onto its own stack,
// records the resulting stack pointer, loads the incoming task's saved
// stack pointer, and pops its callee-saved registers before returning.
//
//export PendSV_Handler
func PendSV_Handler() {
	arm.AsmFull(
		"mrs r0, psp\n"+
			"stmdb r0!, {r4-r11}\n"+
			"str r0, {out}\n"+
			"ldr r0, {in}\n"+
			"ldmia r0!, {r4-r11}\n"+
			"msr psp, r0\n",
		map[string]interface{}{"out": &currentSP, "in": &nextSP},
	)
	currentSP = nextSP
}

// SysTick_Handler is the system-tick ISR: it is kept to the minimum
// work required by §4.1 (SysTick is configured as the highest-priority
// exception, so it must be short) and simply trampolines into whatever
// closure ConfigureSystick registered.
//
//export SysTick_Handler
func SysTick_Handler() {
	if registeredISR != nil {
		registeredISR()
	}
}
