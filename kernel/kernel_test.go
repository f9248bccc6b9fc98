/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

import (
	"testing"

	"github.com/mbarbareschi/mariosgo/arch/simport"
	"github.com/mbarbareschi/mariosgo/kconfig"
)

func newTestKernel(t *testing.T, maxTasks int, policy Policy) (*Kernel, *simport.Port) {
	t.Helper()
	cfg := kconfig.Default()
	cfg.MaxTasks = maxTasks
	cfg.MinStackWords = 8
	cfg.IdleStackWords = 8
	port := simport.New(nil)
	k, err := New(cfg, port, nil, policy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return k, port
}

func TestNewInstallsIdleAtSlotZero(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyRoundRobin)
	if len(k.tasks) != 1 {
		t.Fatalf("expected exactly the idle task after New, got %d", len(k.tasks))
	}
	if k.tasks[0].ID != IdleTaskID {
		t.Fatalf("expected idle task at index 0, got ID %v", k.tasks[0].ID)
	}
	if k.tasks[0].Status != StatusReady {
		t.Fatalf("expected idle task Ready before Start, got %v", k.tasks[0].Status)
	}
}

func TestCreateTaskRespectsCapacity(t *testing.T) {
	// MaxTasks=3 reserves one slot below MaxTasks: idle occupies slot 0,
	// so exactly one user task fits before CreateTask reports
	// ErrCapacityExceeded.
	k, _ := newTestKernel(t, 3, PolicyRoundRobin)
	if _, err := k.CreateTask(func() {}, 8, 1, 0); err != nil {
		t.Fatalf("first CreateTask: %v", err)
	}
	if id, err := k.CreateTask(func() {}, 8, 1, 0); err != ErrCapacityExceeded {
		t.Fatalf("second CreateTask: id=%v err=%v, want ErrCapacityExceeded", id, err)
	}
}

func TestCreateTaskRejectsSmallStack(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyRoundRobin)
	if _, err := k.CreateTask(func() {}, 1, 1, 0); err != ErrStackTooSmall {
		t.Fatalf("CreateTask with undersized stack: err=%v, want ErrStackTooSmall", err)
	}
}

func TestGetTaskStatusUnknownID(t *testing.T) {
	k, _ := newTestKernel(t, 5, PolicyRoundRobin)
	if _, err := k.GetTaskStatus(TaskID(99)); err != ErrUnknownTask {
		t.Fatalf("GetTaskStatus(99): err=%v, want ErrUnknownTask", err)
	}
}
