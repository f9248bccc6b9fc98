/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kconfig

import (
	"errors"
	"os"

	"github.com/gravwell/gcfg"
)

const maxConfigSize int64 = 64 * 1024 // scenario files are tiny; this is generous

var ErrConfigFileTooLarge = errors.New("kconfig: config file is too large")

type iniFile struct {
	Global struct {
		Max_Tasks        int
		Min_Stack_Words  int
		Idle_Stack_Words int
		Tick_Hz          uint32
		Log_Level        string
	}
}

// LoadFile reads a gcfg INI file (a single [Global] section) and overlays
// it on top of Default(), returning the merged configuration. This is a
// host-side/simulation-only convenience — the bare-metal target has no
// filesystem and always runs with Default().
func LoadFile(path string) (KernelConfig, error) {
	cfg := Default()

	fi, err := os.Stat(path)
	if err != nil {
		return cfg, err
	}
	if fi.Size() > maxConfigSize {
		return cfg, ErrConfigFileTooLarge
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var f iniFile
	if err := gcfg.ReadStringInto(&f, string(b)); err != nil {
		return cfg, err
	}

	if f.Global.Max_Tasks != 0 {
		cfg.MaxTasks = f.Global.Max_Tasks
	}
	if f.Global.Min_Stack_Words != 0 {
		cfg.MinStackWords = f.Global.Min_Stack_Words
	}
	if f.Global.Idle_Stack_Words != 0 {
		cfg.IdleStackWords = f.Global.Idle_Stack_Words
	}
	if f.Global.Tick_Hz != 0 {
		cfg.TickHz = f.Global.Tick_Hz
	}
	if f.Global.Log_Level != `` {
		cfg.LogLevel = f.Global.Log_Level
	}

	return cfg, cfg.Validate()
}
