/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

import (
	"github.com/mbarbareschi/mariosgo/arch"
	"github.com/mbarbareschi/mariosgo/kconfig"
	"github.com/mbarbareschi/mariosgo/klog"
)

// Kernel is kernel_init's struct equivalent: the task table plus
// whatever the scheduler and timing code need to carry between calls.
// A Kernel is not safe for concurrent use by application code beyond
// what the arch.Port's own critical section already serializes — it is
// meant to be driven by task code running under that Port, not called
// directly from arbitrary goroutines.
type Kernel struct {
	cfg    kconfig.KernelConfig
	port   arch.Port
	log    *klog.Logger
	policy Policy

	tasks   []TCB
	current TaskID

	ticks   uint32
	started bool

	idle idleStats
}

// New installs the idle task at index 0 and returns a Kernel ready for
// CreateTask calls. policy selects the scheduling algorithm Start will
// use; it cannot be changed once Start has run.
func New(cfg kconfig.KernelConfig, port arch.Port, lg *klog.Logger, policy Policy) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lg == nil {
		lg = klog.NewDiscard()
	}
	k := &Kernel{
		cfg:    cfg,
		port:   port,
		log:    lg,
		policy: policy,
		tasks:  make([]TCB, 0, cfg.MaxTasks),
	}

	idleStack := make([]uint32, cfg.IdleStackWords)
	h := port.NewTaskStack(idleStack, k.idleEntry)
	k.tasks = append(k.tasks, TCB{
		SP:       h,
		ID:       IdleTaskID,
		Status:   StatusReady,
		Priority: 0,
	})
	return k, nil
}

// CreateTask installs a new task in the table. It mirrors task_create's
// capacity check exactly: the table is considered full, and
// ErrCapacityExceeded returned, once MaxTasks-1 entries are occupied —
// one slot is always reserved below MaxTasks, matching the original
// firmware's `size >= MAX_TASKS - 1` guard rather than `size >=
// MAX_TASKS`. stackWords below the configured minimum is rejected
// outright rather than silently clamped up, per §7's error taxonomy.
func (k *Kernel) CreateTask(entry func(), stackWords int, priority uint8, periodTicks uint32) (TaskID, error) {
	if len(k.tasks) >= k.cfg.MaxTasks-1 {
		return InvalidTaskID, ErrCapacityExceeded
	}
	if stackWords < k.cfg.MinStackWords {
		return InvalidTaskID, ErrStackTooSmall
	}

	stack := make([]uint32, stackWords)
	h := k.port.NewTaskStack(stack, entry)
	id := TaskID(len(k.tasks))
	k.tasks = append(k.tasks, TCB{
		SP:       h,
		ID:       id,
		Status:   StatusReady,
		Priority: priority,
		Period:   periodTicks,
	})
	k.log.Debug("task created", klog.KV("id", id), klog.KV("priority", priority), klog.KV("period", periodTicks))
	return id, nil
}

func (k *Kernel) taskByID(id TaskID) (*TCB, error) {
	if int(id) < 0 || int(id) >= len(k.tasks) {
		return nil, ErrUnknownTask
	}
	return &k.tasks[id], nil
}
