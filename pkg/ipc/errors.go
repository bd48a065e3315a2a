// SPDX-License-Identifier: BSD-3-Clause

package ipc

import "errors"

var (
	// ErrConnectionFailed indicates that a connection could not be established.
	ErrConnectionFailed = errors.New("failed to establish IPC connection")
	// ErrConnectionUnavailable indicates that no connection is available.
	ErrConnectionUnavailable = errors.New("IPC connection not available")

	// ErrRequestFailed indicates that a request operation failed.
	ErrRequestFailed = errors.New("IPC request failed")
	// ErrResponseFailed indicates that a response operation failed.
	ErrResponseFailed = errors.New("IPC response failed")

	// ErrInvalidRequest indicates that the request format is invalid.
	ErrInvalidRequest = errors.New("invalid IPC request format")
	// ErrInvalidResponse indicates that the response format is invalid.
	ErrInvalidResponse = errors.New("invalid IPC response format")
)
