/*************************************************************************
 * Copyright 2026 Mario Barbareschi. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * GNU Affero General Public License. See the LICENSE file for details.
 **************************************************************************/

package kernel

import "errors"

var (
	// ErrCapacityExceeded is the Capacity-kind error from §7: the task
	// table is full. task_create also signals this by returning
	// InvalidTaskID; the error is for callers that want an explicit
	// reason rather than just the sentinel ID.
	ErrCapacityExceeded = errors.New("kernel: task table is full")

	// ErrStackTooSmall is returned when stackWords is below the
	// configured minimum.
	ErrStackTooSmall = errors.New("kernel: requested stack is smaller than the configured minimum")

	// ErrAlreadyStarted is returned by Start if called more than once.
	ErrAlreadyStarted = errors.New("kernel: already started")

	// ErrUnknownTask is returned by the status accessors for an ID that
	// was never allocated by CreateTask.
	ErrUnknownTask = errors.New("kernel: unknown task id")
)
