/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

//go:build !linux

package simport

import "time"

// ConfigureSystick drives the simulated SysTick with a time.Ticker on
// platforms where we don't have unix.Nanosleep to fall back on.
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

	go func() {
		defer close(done)
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				p.runTick(onTick)
			}
		}
	}()
	return nil
}

// Stop halts the simulated SysTick.
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
