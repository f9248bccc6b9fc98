/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

// Package kconfig carries the compile-time tunables that the original
// mariOS firmware keeps in marios_config.h. On the bare-metal target
// these are just constants baked into the firmware image; on the host,
// the simulation harness may override them from a small INI file via
// LoadFile, the same way gravwell ingesters load their [Global] section.
package kconfig

import (
	"errors"
)

const (
	// DefaultMaxTasks mirrors MARIOS_CONFIG_MAX_TASKS.
	DefaultMaxTasks = 10

	// DefaultMinStackWords mirrors MARIOS_MINIMUM_TASK_STACK_SIZE, in
	// 32-bit words (not bytes): the smallest stack task_create accepts.
	DefaultMinStackWords = 64

	// DefaultIdleStackWords mirrors MARIOS_IDLE_TASK_STACK.
	DefaultIdleStackWords = 32

	// DefaultTickHz is the tick frequency delay_ms converts with. The
	// reload value passed to kernel_start does not change it; a different
	// tick rate has to be set through KernelConfig.TickHz.
	DefaultTickHz = 1000

	DefaultLogLevel = `INFO`
)

var (
	ErrInvalidMaxTasks   = errors.New("kconfig: MaxTasks must be >= 3 (idle task, the reserved slot, and at least one user task)")
	ErrInvalidStackWords = errors.New("kconfig: stack word counts must be positive")
	ErrInvalidTickHz     = errors.New("kconfig: TickHz must be positive")
)

// KernelConfig holds everything task_create/kernel_start need that the
// original firmware would have pulled from marios_config.h.
type KernelConfig struct {
	MaxTasks       int
	MinStackWords  int
	IdleStackWords int
	TickHz         uint32
	LogLevel       string
}

// Default returns the configuration the bare-metal build compiles in.
func Default() KernelConfig {
	return KernelConfig{
		MaxTasks:       DefaultMaxTasks,
		MinStackWords:  DefaultMinStackWords,
		IdleStackWords: DefaultIdleStackWords,
		TickHz:         DefaultTickHz,
		LogLevel:       DefaultLogLevel,
	}
}

// Validate checks the tunables for internal consistency. It does not
// reach out to the filesystem or any external resource.
func (c KernelConfig) Validate() error {
	if c.MaxTasks < 3 {
		return ErrInvalidMaxTasks
	}
	if c.MinStackWords <= 0 || c.IdleStackWords <= 0 {
		return ErrInvalidStackWords
	}
	if c.TickHz == 0 {
		return ErrInvalidTickHz
	}
	return nil
}
