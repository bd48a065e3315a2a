// SPDX-License-Identifier: BSD-3-Clause

// Package thermal implements a closed-loop thermal and fan control engine:
// sensors, PID and stepwise controllers, failsafe aggregation, and the
// periodic control loop that drives them.
//
// # Overview
//
// A Config (decoded from TOML by the caller) describes Sensors, Zones, and
// the PID/stepwise Controllers each zone runs. Build materializes that
// config into an Engine: one Zone per configured zone, one Sensor per
// configured sensor, and — for sensors fed from outside the process rather
// than a sysfs path — a push function the caller wires to its own transport.
//
// # Sensors
//
// A Sensor wraps a Backend (how a raw reading or fan-tach value is
// obtained) and an optional Writer (how a PWM or similar output is driven).
// NewFilesystemBackend reads and writes sysfs-style files directly;
// NewExternalBackend and NewPassiveBackend are fed by a push function
// instead, for sensors whose value arrives from elsewhere in the system
// (a pushed host-side reading, another service's poll loop). Sensor scales
// readings into its min/max range and reports itself failed on an
// unavailable read (when UnavailableAsFailed is set), on a configured streak
// of zero or non-finite readings, or on a critical/warning threshold trip;
// staleness is checked by the Zone, which puts a stale sensor into failsafe.
//
// # Controllers
//
// ThermalController aggregates one or more sensor inputs into a single
// setpoint or ceiling value using a PID (PidInfo/StepPID) law;
// StepwiseController does the same from a single input with a stepwise
// (StepwiseInfo/StepStepwise) table. FanController consumes the zone's
// aggregated request and drives one or more fan outputs, holding to the
// zone's failsafe floor whenever the zone is in failsafe.
//
// # Zones and the control loop
//
// Zone owns a set of thermal and fan controllers, the sensors they read
// and write, and the failsafe/manual-mode state that gates them. Zone.Run
// ticks at CycleIntervalTimeMS, polling fan inputs and running fan
// controllers every tick, re-reading thermal inputs and running thermal
// controllers at the (typically coarser) UpdateThermalsTimeMS cadence, and
// writing outputs with RedundantWrite forcing every write regardless of
// whether the computed value changed. SetManualMode takes external control
// of a zone's fan outputs away from its controllers without stopping the
// loop — fan sensor reads and their failsafe tracking continue underneath
// the override, while the thermal pass, the fan controllers, and the
// diagnostic log row are skipped.
//
// # Failsafe
//
// Any input sensor of a zone failing (stale read, threshold trip,
// unavailable read when UnavailableAsFailed is set) pushes its zone into
// failsafe: every fan output is raised to at least FailsafePercent (set to
// exactly FailsafePercent under the strict policy) until every failed
// sensor recovers. An input's MissingIsAcceptable flag is carried on
// InputSpec, but failsafe tracking does not consult it.
// failsafeLogger rate-limits the diagnostic line for each (location,
// reason) pair so a stuck sensor doesn't flood the log once per tick.
//
// # Diagnostics
//
// diag.go writes a per-zone CSV trace of each tick's aggregated setpoint,
// failsafe state, and per-controller output when a log directory is
// configured; LoopOptions.CheckFanFailuresCycles controls how often the
// loop re-validates fan staleness independent of a normal read.
package thermal
