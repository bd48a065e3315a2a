// SPDX-License-Identifier: BSD-3-Clause

// Package thermalmgr is the closed-loop thermal and fan control daemon for
// BMC systems. It reads a TOML document describing sensors, zones, and PID
// or stepwise controllers (pkg/thermal), builds the runtime from it, and
// runs one periodic control loop per zone for the life of the process.
//
// # Overview
//
// Each zone owns a set of fan and thermal sensors and the controllers that
// read them. Thermal and stepwise controllers aggregate into a zone-wide
// setpoint; fan controllers drive that setpoint (or the zone's failsafe
// floor, if any sensor has failed) out to PWM outputs. See pkg/thermal for
// the control algorithms themselves — this package is the service wrapper:
// configuration loading, lifecycle, and IPC.
//
// # Service Architecture
//
//   - NATS-based IPC for inter-service communication, via the same
//     micro.Service pattern every other BMC service uses.
//   - One goroutine per configured zone, started at Run and replaced
//     wholesale on a reload.
//   - Structured logging with slog, OpenTelemetry spans around the handler
//     and the build step.
//
// # NATS IPC Endpoints
//
//   - thermal_zone.list - list every configured zone's failsafe/setpoint summary
//   - thermal_zone.info - fetch one zone's summary by ID
//   - thermal_zone.manual_mode - toggle a zone into or out of manual override
//   - thermalmgr.reload - reload the TOML document and rebuild every zone
//
// Passive and external sensors (those with no read_path of their own) are
// fed over a plain NATS subscription rather than a micro endpoint, since
// pushed readings are high frequency and need no response:
// internal.sensor.push.<sensor-name>, body the raw int64 reading as decimal
// text.
//
// # Configuration
//
// The TOML document path is set via WithConfigPath (default
// /etc/thermal.d/thermal.toml); its schema is pkg/thermal.Config. Per-zone
// diagnostic logs (WithDiagnosticLogDir) are optional. WithJetStreamPersistence
// optionally creates a JetStream stream at startup; nothing in this package
// publishes to it.
package thermalmgr
