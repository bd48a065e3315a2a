// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// SensorType identifies the physical quantity a Sensor carries and how the
// Zone aggregation and combination rules treat its readings.
type SensorType int

const (
	SensorFan SensorType = iota
	SensorTemp
	SensorMargin
	SensorPower
	SensorPowerSum
	SensorStepwiseTemp
)

func (t SensorType) String() string {
	switch t {
	case SensorFan:
		return "fan"
	case SensorTemp:
		return "temp"
	case SensorMargin:
		return "margin"
	case SensorPower:
		return "power"
	case SensorPowerSum:
		return "powersum"
	case SensorStepwiseTemp:
		return "stepwise-temp"
	default:
		return "unknown"
	}
}

// DefaultTimeout returns the type-default staleness timeout used when a
// sensor's configuration omits one: zero (disabled) for fan sensors, two
// seconds for everything else.
func (t SensorType) DefaultTimeout() time.Duration {
	if t == SensorFan {
		return 0
	}
	return 2 * time.Second
}

// Reading is a single sample taken from a sensor's backend.
type Reading struct {
	Value     float64 // scaled value, in the sensor's declared unit
	Unscaled  float64 // raw backend value, used by fan controllers to recover RPM
	UpdatedAt time.Time
}

// Backend is the transport a Sensor reads from and optionally writes to.
// The four reader shapes (passive, active, filesystem, external) are all
// implementations of this one interface, and the filesystem backend is the
// only one that also implements Writer; the Sensor and Zone never know
// which concrete transport backs a given name.
type Backend interface {
	// Read returns the most recent value available, the backend's raw
	// (unscaled) representation, and whether the backend considers itself
	// currently available. ok=false without err means "no data yet", not
	// a hard failure.
	Read(ctx context.Context) (value float64, raw int64, ok bool, err error)
}

// Writer is implemented by backends that accept commanded output, in
// addition to Backend.
type Writer interface {
	// Write commands a fraction in [0,1]; force requests the write even if
	// the backend would otherwise dedupe an unchanged value. It returns the
	// raw integer value actually written (e.g. the PWM duty cycle), for
	// inclusion in the diagnostic log.
	Write(ctx context.Context, fraction float64, force bool) (raw int64, err error)
}

// Thresholds are optional absolute limits on a sensor's scaled value; when
// asserted the sensor is treated as a failsafe input regardless of staleness.
type Thresholds struct {
	HasCriticalHigh bool
	CriticalHigh    float64
	HasCriticalLow  bool
	CriticalLow     float64
	HasWarningHigh  bool
	WarningHigh     float64
}

func (t Thresholds) asserted(value float64) (bool, string) {
	if t.HasCriticalHigh && value >= t.CriticalHigh {
		return true, "critical-high"
	}
	if t.HasCriticalLow && value <= t.CriticalLow {
		return true, "critical-low"
	}
	if t.HasWarningHigh && value >= t.WarningHigh {
		return true, "warning-high"
	}
	return false, ""
}

// SensorConfig is the declarative shape of a Sensor, materialized once at
// wiring time by a Builder and never mutated afterward.
type SensorConfig struct {
	Name                 string
	Type                 SensorType
	Min, Max             float64 // raw units, fan scaling only
	Timeout              time.Duration
	IgnoreMinMax         bool
	UnavailableAsFailed  bool
	IgnoreFailIfHostOff  bool
	ZeroStrikesTolerance int // marked failed on this many consecutive zero/non-finite readings; 0 = never mark failed from this alone
	Thresholds           Thresholds
}

// Sensor is a named input, an optional write endpoint, and the staleness and
// failure bookkeeping the Zone needs to drive the failsafe set. A Sensor is
// created once at wiring and lives until shutdown; only its backend mutates
// its value, the Sensor itself only tracks bookkeeping derived from reads.
type Sensor struct {
	cfg     SensorConfig
	backend Backend
	writer  Writer

	mu           sync.Mutex
	last         Reading
	hasReading   bool
	failed       bool
	failReason   string
	zeroStrikes  int
	hostOffCheck func() bool
}

// NewSensor constructs a Sensor bound to the given backend. writer may be
// nil for read-only sensors (e.g. thermal/power inputs with no commanded
// output). hostOffCheck may be nil; when non-nil it backs
// ignore_fail_if_host_off.
func NewSensor(cfg SensorConfig, backend Backend, writer Writer, hostOffCheck func() bool) *Sensor {
	if cfg.Timeout == 0 && cfg.Type != SensorFan {
		cfg.Timeout = cfg.Type.DefaultTimeout()
	}
	return &Sensor{
		cfg:          cfg,
		backend:      backend,
		writer:       writer,
		hostOffCheck: hostOffCheck,
	}
}

// Name returns the sensor's declared name.
func (s *Sensor) Name() string { return s.cfg.Name }

// Type returns the sensor's declared type.
func (s *Sensor) Type() SensorType { return s.cfg.Type }

// Poll pulls a fresh value from the backend, updates the cached reading and
// failure bookkeeping, and returns the current Reading and failed state. It
// is the only place a Sensor's internal state changes.
func (s *Sensor) Poll(ctx context.Context, now time.Time) (Reading, bool, string) {
	value, raw, ok, err := s.backend.Read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || !ok {
		if s.cfg.UnavailableAsFailed {
			s.failed, s.failReason = true, "unavailable"
		}
		s.applyHostOff()
		return s.last, s.failed, s.failReason
	}

	scaled := value
	if !s.cfg.IgnoreMinMax && s.cfg.Max != 0 {
		scaled = normalize(value, s.cfg.Min, s.cfg.Max)
	}

	if !isFinite(scaled) || (s.cfg.Type == SensorFan && scaled == 0) {
		s.zeroStrikes++
		if s.cfg.ZeroStrikesTolerance > 0 && s.zeroStrikes >= s.cfg.ZeroStrikesTolerance {
			s.failed, s.failReason = true, "zero-or-invalid-streak"
		}
		s.applyHostOff()
		return s.last, s.failed, s.failReason
	}
	s.zeroStrikes = 0

	s.last = Reading{Value: scaled, Unscaled: float64(raw), UpdatedAt: now}
	s.hasReading = true
	s.failed, s.failReason = false, ""

	if asserted, reason := s.cfg.Thresholds.asserted(scaled); asserted {
		s.failed, s.failReason = true, reason
	}

	s.applyHostOff()
	return s.last, s.failed, s.failReason
}

func (s *Sensor) applyHostOff() {
	if s.cfg.IgnoreFailIfHostOff && s.hostOffCheck != nil && s.hostOffCheck() {
		s.failed, s.failReason = false, ""
	}
}

// Stale reports whether the cached reading is older than the sensor's
// configured timeout. A zero timeout disables staleness checks.
func (s *Sensor) Stale(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Timeout == 0 {
		return false
	}
	if !s.hasReading {
		return true
	}
	return now.Sub(s.last.UpdatedAt) >= s.cfg.Timeout
}

// Cached returns the most recently polled reading without triggering a new
// backend read.
func (s *Sensor) Cached() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Write commands the sensor's writer, if any.
func (s *Sensor) Write(ctx context.Context, fraction float64, force bool) (int64, error) {
	if s.writer == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoWriteBackend, s.cfg.Name)
	}
	raw, err := s.writer.Write(ctx, fraction, force)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrSensorWriteFailure, s.cfg.Name, err)
	}
	return raw, nil
}

func normalize(raw, min, max float64) float64 {
	if max == min {
		return raw
	}
	return (raw - min) / (max - min)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
