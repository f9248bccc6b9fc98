/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

// GetCurrentTaskID returns the ID of the task currently running.
func (k *Kernel) GetCurrentTaskID() TaskID {
	return k.current
}

// GetTaskStatus returns id's current status.
func (k *Kernel) GetTaskStatus(id TaskID) (Status, error) {
	t, err := k.taskByID(id)
	if err != nil {
		return 0, err
	}
	return t.Status, nil
}

// SetTaskStatus forces id's status. It exists for the queue package,
// which needs to move a task between Suspend and Ready as it blocks
// and unblocks on a full or empty queue, without the queue package
// reaching into kernel internals directly — see queue.Scheduler.
func (k *Kernel) SetTaskStatus(id TaskID, status Status) error {
	t, err := k.taskByID(id)
	if err != nil {
		return err
	}
	t.Status = status
	return nil
}

// GetCurrentTaskPeriod returns the period, in ticks, the currently
// running task was created with. 0 means aperiodic.
func (k *Kernel) GetCurrentTaskPeriod() uint32 {
	return k.tasks[k.current].Period
}

// GetIdlePercentage returns the most recently computed fraction of
// ticks, 0-100, spent in the idle task over the last sampling window.
// It is 0 until the first full window has elapsed after Start.
func (k *Kernel) GetIdlePercentage() uint32 {
	return k.idle.percent
}

// EnterCritical and ExitCritical expose the underlying port's critical
// section to callers that need to bracket a multi-step operation —
// most notably the queue package — without holding a reference to the
// port themselves.
func (k *Kernel) EnterCritical() { k.port.EnterCritical() }
func (k *Kernel) ExitCritical()  { k.port.ExitCritical() }
