/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package klog

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

const DefaultID = `mariosgo@1`

var (
	ErrNotOpen = errors.New("klog: logger is not open")
)

// Logger is a minimal, mutex-guarded structured logger. It is safe to
// share across goroutines, but the kernel's own critical section is a
// separate concept; a Logger call made from inside a critical section
// must not itself block on I/O for long, so writers used in production
// builds should be buffered or discarding.
type Logger struct {
	wtrs []io.WriteCloser
	mtx  sync.Mutex
	lvl  Level
	hot  bool
}

// New creates a Logger writing to wtr at level INFO.
func New(wtr io.WriteCloser) *Logger {
	return &Logger{
		wtrs: []io.WriteCloser{wtr},
		lvl:  INFO,
		hot:  true,
	}
}

type discardCloser struct{}

func (discardCloser) Write(b []byte) (int, error) { return len(b), nil }
func (discardCloser) Close() error                { return nil }

// NewDiscard returns a Logger that drops everything. It is the default
// for bare-metal builds, which have no filesystem to log to.
func NewDiscard() *Logger {
	return New(discardCloser{})
}

func (l *Logger) ready() error {
	if l == nil || !l.hot || len(l.wtrs) == 0 {
		return ErrNotOpen
	}
	return nil
}

// SetLevel sets the minimum level that will be emitted.
func (l *Logger) SetLevel(lvl Level) error {
	if l == nil {
		return ErrNotOpen
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if !lvl.Valid() {
		return ErrInvalidLevel
	}
	l.lvl = lvl
	return nil
}

// AddWriter adds an additional writer that receives every logged line.
func (l *Logger) AddWriter(wtr io.WriteCloser) error {
	if wtr == nil {
		return errors.New("klog: nil writer")
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.wtrs = append(l.wtrs, wtr)
	return nil
}

// Close closes the logger and every writer it owns.
func (l *Logger) Close() (err error) {
	if l == nil {
		return nil
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if rerr := l.ready(); rerr != nil {
		return rerr
	}
	l.hot = false
	for _, w := range l.wtrs {
		if cerr := w.Close(); cerr != nil {
			err = cerr
		}
	}
	return
}

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) { l.output(DEBUG, msg, sds...) }
func (l *Logger) Info(msg string, sds ...rfc5424.SDParam)  { l.output(INFO, msg, sds...) }
func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam)  { l.output(WARN, msg, sds...) }
func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) { l.output(ERROR, msg, sds...) }

func (l *Logger) output(lvl Level, msg string, sds ...rfc5424.SDParam) {
	if l == nil {
		return
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.ready() != nil || lvl < l.lvl || lvl == OFF {
		return
	}
	m := rfc5424.Message{
		Priority:  lvl.priority(),
		Timestamp: time.Now(),
		Hostname:  `mariosgo`,
		AppName:   `kernel`,
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{
			{ID: DefaultID, Parameters: sds},
		}
	}
	b, err := m.MarshalBinary()
	if err != nil {
		b = []byte(fmt.Sprintf("[%s] %s\n", lvl, msg))
	} else {
		b = append(b, '\n')
	}
	for _, w := range l.wtrs {
		w.Write(b)
	}
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	}
	return rfc5424.User | rfc5424.Info
}

// KV is a small helper mirroring the structured-field helper used
// elsewhere in this codebase: wraps a name/value pair as an SDParam.
func KV(name string, value interface{}) rfc5424.SDParam {
	return rfc5424.SDParam{Name: name, Value: fmt.Sprintf("%v", value)}
}
