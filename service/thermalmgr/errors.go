// SPDX-License-Identifier: BSD-3-Clause

package thermalmgr

import "errors"

var (
	// ErrServiceAlreadyStarted indicates that the thermal manager service is already running.
	ErrServiceAlreadyStarted = errors.New("thermal manager service already started")
	// ErrInvalidConfiguration indicates that the thermal manager configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid thermal manager configuration")
	// ErrNATSConnectionFailed indicates that the NATS connection failed.
	ErrNATSConnectionFailed = errors.New("NATS connection failed")
	// ErrJetStreamInitFailed indicates that JetStream initialization failed.
	ErrJetStreamInitFailed = errors.New("JetStream initialization failed")
	// ErrMicroServiceCreationFailed indicates that micro service creation failed.
	ErrMicroServiceCreationFailed = errors.New("micro service creation failed")
	// ErrEndpointRegistrationFailed indicates that endpoint registration failed.
	ErrEndpointRegistrationFailed = errors.New("endpoint registration failed")
	// ErrStreamCreationFailed indicates that JetStream stream creation failed.
	ErrStreamCreationFailed = errors.New("stream creation failed")
	// ErrConfigLoadFailed indicates that the thermal configuration document could not be read or parsed.
	ErrConfigLoadFailed = errors.New("thermal configuration load failed")
	// ErrThermalSystemBuildFailed indicates that thermal.Build rejected the loaded configuration.
	ErrThermalSystemBuildFailed = errors.New("thermal system build failed")
	// ErrThermalZoneNotConfigured indicates that the requested thermal zone is not configured.
	ErrThermalZoneNotConfigured = errors.New("thermal zone not configured")
	// ErrInvalidThermalRequest indicates that the thermal management request is invalid.
	ErrInvalidThermalRequest = errors.New("invalid thermal request")
	// ErrReloadFailed indicates that a configuration reload was requested but could not be applied.
	ErrReloadFailed = errors.New("thermal configuration reload failed")
)
