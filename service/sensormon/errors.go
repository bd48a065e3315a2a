// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import "errors"

var (
	// ErrServiceAlreadyStarted indicates that Run was called on an instance already running.
	ErrServiceAlreadyStarted = errors.New("sensormon service already started")
	// ErrInvalidConfiguration indicates that the supplied configuration failed validation.
	ErrInvalidConfiguration = errors.New("invalid sensormon configuration")
	// ErrNATSConnectionFailed indicates that connecting to the embedded NATS server failed.
	ErrNATSConnectionFailed = errors.New("sensormon NATS connection failed")
	// ErrMicroServiceCreationFailed indicates that the NATS micro service could not be created.
	ErrMicroServiceCreationFailed = errors.New("sensormon micro service creation failed")
	// ErrEndpointRegistrationFailed indicates that a micro endpoint failed to register.
	ErrEndpointRegistrationFailed = errors.New("sensormon endpoint registration failed")
	// ErrSensorDiscoveryFailed indicates that walking the hwmon tree failed.
	ErrSensorDiscoveryFailed = errors.New("sensormon sensor discovery failed")
)
