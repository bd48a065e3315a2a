// SPDX-License-Identifier: BSD-3-Clause

// Package operator provides a service orchestrator that manages and supervises
// the thermal control services in a fault-tolerant manner. It acts as the
// central coordinator, handling service lifecycle management, inter-process
// communication setup, and providing a supervision tree for automatic service
// recovery.
//
// # Core Features
//
//   - Service lifecycle management and orchestration
//   - Fault-tolerant supervision with automatic restart policies
//   - Inter-process communication coordination via NATS
//   - Configurable service selection
//   - System initialization and mount point management
//   - OpenTelemetry integration for observability
//   - Graceful shutdown handling
//
// # Architecture
//
// The operator follows a supervision tree pattern where services are organized
// in a hierarchical structure with well-defined restart policies. The operator
// itself acts as the root supervisor, managing child services and handling
// their failures according to configured strategies.
//
// # Service Management
//
// The operator manages the following services:
//
//   - IPC: Inter-process communication service (embedded NATS server)
//   - Sensor Monitor: hwmon sensor discovery, polling, and alerting
//   - Thermal Manager: fan curve evaluation and cooling control
//   - Telemetry: metrics and tracing collection
//
// Only the IPC service is started by default; Sensormon, Thermalmgr, and
// Telemetry are opt-in via WithSensormon, WithThermalmgr, and WithTelemetry.
//
// # Configuration
//
// The operator supports configuration through the options pattern:
//
//	op := operator.New(
//		operator.WithName("thermalctl"),
//		operator.WithTimeout(30*time.Second),
//		operator.WithIPC(
//			ipc.WithServerName("thermalctl-ipc"),
//		),
//		operator.WithSensormon(
//			sensormon.WithHwmonPath("/sys/class/hwmon"),
//		),
//		operator.WithThermalmgr(
//			thermalmgr.WithConfigPath("/etc/thermal.d/thermal.toml"),
//		),
//		operator.WithExtraServices(myCustomService),
//	)
//
// # Supervision and Fault Tolerance
//
// The operator implements a robust supervision strategy:
//
//   - Transient restart policy: services are restarted on failure
//   - Configurable timeouts for service startup and shutdown
//   - Isolation: service failures don't affect other services
//   - Logging of all service state changes
//
// # Inter-Process Communication
//
// The operator coordinates IPC setup for all services:
//
//   - Starts the IPC service first to provide communication infrastructure
//   - Provides connection providers to all other services
//   - Supports both embedded and externally supplied IPC connections
//
// # System Initialization
//
// The operator handles various system initialization tasks:
//
//   - Mount point setup for pseudo-filesystems
//   - OpenTelemetry configuration and setup
//   - Persistent ID generation and management
//   - Logo display and branding
//   - Global logger configuration
//
// # Usage Patterns
//
// ## Basic Usage
//
//	op := operator.New()
//	err := op.Run(ctx, nil)
//
// ## External IPC Integration
//
// When integrating with external IPC infrastructure:
//
//	// Use external IPC connection
//	err := op.Run(ctx, externalIPCConn)
//
// ## Adding Custom Services
//
// Custom services can be added to the supervision tree:
//
//	myService := &MyCustomService{}
//	op := operator.New(
//		operator.WithExtraServices(myService),
//	)
//
// # Example Implementation
//
//	package main
//
//	import (
//		"context"
//		"os"
//		"os/signal"
//		"syscall"
//		"time"
//
//		"github.com/u-bmc/thermalctl/service/operator"
//		"github.com/u-bmc/thermalctl/service/sensormon"
//		"github.com/u-bmc/thermalctl/service/thermalmgr"
//	)
//
//	func main() {
//		op := operator.New(
//			operator.WithName("my-thermalctl"),
//			operator.WithTimeout(20*time.Second),
//			operator.WithSensormon(sensormon.WithHwmonPath("/sys/class/hwmon")),
//			operator.WithThermalmgr(thermalmgr.WithConfigPath("/etc/thermal.d/thermal.toml")),
//		)
//
//		ctx, cancel := context.WithCancel(context.Background())
//		defer cancel()
//
//		sigChan := make(chan os.Signal, 1)
//		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
//
//		go func() {
//			<-sigChan
//			cancel()
//		}()
//
//		if err := op.Run(ctx, nil); err != nil {
//			if err != context.Canceled {
//				panic(err)
//			}
//		}
//	}
//
// Services can communicate with each other through the IPC infrastructure
// once all services are running and ready.
package operator
