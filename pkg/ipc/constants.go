// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/micro"
)

// IPC Subject Constants for NATS Micro Services
// These constants define the subjects used for inter-process communication.
// Services should use these constants rather than constructing subjects dynamically.

// Thermal Management Service Subjects
const (
	SubjectThermalZoneInfo       = "thermal_zone.info"
	SubjectThermalZoneSet        = "thermal_zone.set"
	SubjectThermalZoneList       = "thermal_zone.list"
	SubjectThermalZoneManualMode = "thermal_zone.manual_mode"
	SubjectThermalReload         = "thermalmgr.reload"
)

// Sensor Monitoring Service Subjects
const (
	SubjectSensorInfo = "sensor.info"
	SubjectSensorList = "sensor.list"
)

// Internal IPC Subjects (for service-to-service communication)
const (
	// Pushed sensor readings for passive/external thermal sensors, subject
	// to "internal.sensor.push.<sensor-name>"
	InternalSensorPush = "internal.sensor.push"
)

// Queue Groups for Load Balancing
const (
	QueueGroupSensorMonitor  = "sensormon"
	QueueGroupThermalManager = "thermalmgr"
)

// Default Timeouts (in milliseconds)
const (
	DefaultRequestTimeout  = 30000 // 30 seconds
	DefaultCommandTimeout  = 60000 // 60 seconds
	DefaultStreamTimeout   = 5000  // 5 seconds
	DefaultResponseTimeout = 10000 // 10 seconds
)

// IPCError represents a structured IPC error.
type IPCError struct {
	Code    string
	Message string
}

func (e *IPCError) Error() string {
	return e.Message
}

// NewIPCError creates a new IPC error.
func NewIPCError(code, message string) *IPCError {
	return &IPCError{
		Code:    code,
		Message: message,
	}
}

// ParseSubject splits a subject into group and endpoint components for NATS micro registration.
// For subjects like "thermal_zone.info", it returns group="thermal_zone" and endpoint="info".
// Returns an error if the subject doesn't contain exactly one dot or if components are empty.
func ParseSubject(subject string) (group, endpoint string, err error) {
	if subject == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "subject cannot be empty")
	}

	parts := strings.Split(subject, ".")
	if len(parts) != 2 {
		return "", "", NewIPCError("INVALID_SUBJECT", fmt.Sprintf("subject %s must contain exactly one dot", subject))
	}

	group = strings.TrimSpace(parts[0])
	endpoint = strings.TrimSpace(parts[1])

	if group == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "group component cannot be empty")
	}

	if endpoint == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "endpoint component cannot be empty")
	}

	return group, endpoint, nil
}

// RegisterEndpointWithGroupCache registers an endpoint by parsing the IPC subject and managing group creation.
// This helper reduces boilerplate by automatically creating and caching groups as needed.
//
// Example usage:
//
//	groups := make(map[string]micro.Group)
//	err := ipc.RegisterEndpointWithGroupCache(service, ipc.SubjectThermalZoneInfo, handler, groups)
func RegisterEndpointWithGroupCache(service micro.Service, subject string, handler micro.Handler, groups map[string]micro.Group) error {
	groupName, endpointName, err := ParseSubject(subject)
	if err != nil {
		return fmt.Errorf("failed to parse subject %s: %w", subject, err)
	}

	group, exists := groups[groupName]
	if !exists {
		group = service.AddGroup(groupName)
		groups[groupName] = group
	}

	if err := group.AddEndpoint(endpointName, handler); err != nil {
		return fmt.Errorf("failed to register endpoint %s in group %s: %w", endpointName, groupName, err)
	}

	return nil
}
