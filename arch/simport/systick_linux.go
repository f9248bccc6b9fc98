/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

//go:build linux

package simport

import (
	"time"

	"golang.org/x/sys/unix"
)

// ConfigureSystick drives the simulated SysTick with unix.Nanosleep
// rather than a time.Ticker, the same way the real port would rather
// trust the NVIC than the Go scheduler's own timer wheel: it gives a
// steadier period under load, at the cost of one goroutine spinning a
// raw syscall for the life of the kernel.
func (p *Port) ConfigureSystick(reloadTicks uint32, onTick func()) error {
	p.mu.Lock()
	if p.tickStop != nil {
		p.mu.Unlock()
		return ErrAlreadyConfigured
	}
	p.tickStop = make(chan struct{})
	p.tickDone = make(chan struct{})
	stop := p.tickStop
	done := p.tickDone
	p.mu.Unlock()

	period := time.Duration(reloadTicks) * time.Microsecond
	ts := unix.NsecToTimespec(period.Nanoseconds())

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			rem := ts
			for {
				if err := unix.Nanosleep(&rem, &rem); err != nil {
					if err == unix.EINTR {
						continue
					}
					break
				}
				break
			}
			select {
			case <-stop:
				return
			default:
				p.runTick(onTick)
			}
		}
	}()
	return nil
}

// Stop halts the simulated SysTick. It is not part of arch.Port: real
// hardware has no equivalent (the timer runs until reset), but the
// simulation needs a clean way to end a scenario in tests.
func (p *Port) Stop() {
	p.mu.Lock()
	stop := p.tickStop
	done := p.tickDone
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	if done != nil {
		<-done
	}
}
