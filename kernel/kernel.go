/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "github.com/mbarbareschi/mariosgo/klog"

// Start is kernel_start: it programs the system timer and launches the
// first task. It never returns on success — control passes to
// port.LoadFirstTask, which itself never returns.
//
// The original firmware's mariOS_start loads whatever task happens to
// occupy current_active_task at boot, which its own zero-initialized
// value always makes the idle task, contradicting the intent its
// comments describe ("start the first non-idle task"). Start fixes
// that by running schedulerPick once before the first launch, so the
// very first task to actually execute is chosen by the configured
// policy like any other, rather than unconditionally being idle.
func (k *Kernel) Start(systickReloadTicks uint32) error {
	if k.started {
		return ErrAlreadyStarted
	}
	if err := k.port.ConfigureSystick(systickReloadTicks, k.SystickHandler); err != nil {
		return err
	}
	k.started = true

	first := k.schedulerPick()
	t := &k.tasks[first]
	t.Status = StatusActive
	t.LastActiveTick = k.ticks
	t.LastActivationTick = k.ticks
	k.current = first

	k.log.Info("kernel starting",
		klog.KV("first_task", first),
		klog.KV("task_count", len(k.tasks)),
		klog.KV("tick_reload", systickReloadTicks),
	)
	k.port.LoadFirstTask(t.SP)
	return nil
}
