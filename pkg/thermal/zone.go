// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var _ ZoneContext = (*Zone)(nil)

type outputCacheEntry struct {
	Value, Raw float64
}

// Zone is a coordinated group of controllers sharing inputs, outputs, and
// failsafe state. All of its mutable state (caches, aggregation vectors,
// failsafe set) is zone-private; only the periodic loop goroutine running
// this Zone ever
// mutates it, so no locking is needed on the hot path — the mutex below
// exists only to let external mode-interface calls (manual mode, reload)
// serialize onto it safely.
type Zone struct {
	id                string
	minThermalOutput  float64
	failsafePercent   float64
	cycleInterval     time.Duration
	updateThermalsInt time.Duration
	redundantWrite    bool

	tuningEnabled bool
	tuningPath    string

	fanInputs     []*Sensor
	thermalInputs []*Sensor
	sensorsByName map[string]*Sensor

	fanControllers     []Controller
	thermalControllers []Controller

	mu              sync.Mutex
	manualMode      bool
	failsafeSensors map[string]string

	setpoints []float64
	ceilings  []float64
	maxSetpt  float64

	outputCache map[string]outputCacheEntry

	logger *slog.Logger
	diag   *diagnosticLog
	fsLog  *failsafeLogger
}

// ZoneConfig is the immutable shape a Zone is built from; a Builder is the
// only component that ever sees this together with the full sensor set.
type ZoneConfig struct {
	ID                string
	MinThermalOutput  float64
	FailsafePercent   float64
	CycleInterval     time.Duration // default 100ms
	UpdateThermalsInt time.Duration // default 1000ms
	RedundantWrite    bool
	TuningEnabled     bool
	TuningPath        string // default /etc/thermal.d/setpoint
}

// NewZone constructs a Zone. Controllers and sensors are attached afterward
// via AddFanInput/AddThermalInput/AddFanController/AddThermalController so a
// Builder can wire sensors shared by name without a forward-reference
// problem.
func NewZone(cfg ZoneConfig, logger *slog.Logger) *Zone {
	if cfg.CycleInterval == 0 {
		cfg.CycleInterval = 100 * time.Millisecond
	}
	if cfg.UpdateThermalsInt == 0 {
		cfg.UpdateThermalsInt = 1000 * time.Millisecond
	}
	if cfg.TuningPath == "" {
		cfg.TuningPath = "/etc/thermal.d/setpoint"
	}
	return &Zone{
		id:                cfg.ID,
		minThermalOutput:  cfg.MinThermalOutput,
		failsafePercent:   cfg.FailsafePercent,
		cycleInterval:     cfg.CycleInterval,
		updateThermalsInt: cfg.UpdateThermalsInt,
		redundantWrite:    cfg.RedundantWrite,
		tuningEnabled:     cfg.TuningEnabled,
		tuningPath:        cfg.TuningPath,
		sensorsByName:     make(map[string]*Sensor),
		failsafeSensors:   make(map[string]string),
		outputCache:       make(map[string]outputCacheEntry),
		logger:            logger,
		fsLog:             newFailsafeLogger(cfg.ID, 20),
	}
}

func (z *Zone) ID() string { return z.id }

// AddFanInput registers a fan-tach sensor owned by this zone.
func (z *Zone) AddFanInput(s *Sensor) error {
	if _, exists := z.sensorsByName[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrSensorAssignedTwice, s.Name())
	}
	z.fanInputs = append(z.fanInputs, s)
	z.sensorsByName[s.Name()] = s
	return nil
}

// AddThermalInput registers a thermal/power/stepwise-temp sensor owned by
// this zone.
func (z *Zone) AddThermalInput(s *Sensor) error {
	if _, exists := z.sensorsByName[s.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrSensorAssignedTwice, s.Name())
	}
	z.thermalInputs = append(z.thermalInputs, s)
	z.sensorsByName[s.Name()] = s
	return nil
}

// RegisterOutputOnly adds a sensor to the zone's name lookup without
// tracking it for failsafe bookkeeping — used for PWM-only write endpoints
// that a fan controller writes to but never reads as a tach input. A
// no-op if the name is already registered (e.g. the same sensor doubles as
// both tach input and PWM output).
func (z *Zone) RegisterOutputOnly(s *Sensor) {
	if _, exists := z.sensorsByName[s.Name()]; exists {
		return
	}
	z.sensorsByName[s.Name()] = s
}

// AddFanController attaches a controller that runs during ProcessFans.
func (z *Zone) AddFanController(c Controller) { z.fanControllers = append(z.fanControllers, c) }

// AddThermalController attaches a controller that runs during
// ProcessThermals (thermal PID or stepwise bindings).
func (z *Zone) AddThermalController(c Controller) {
	z.thermalControllers = append(z.thermalControllers, c)
}

// AttachDiagnostics opens the zone's CSV cycle log under dir (a no-op if
// dir is empty) and writes its header. Called once by the periodic loop on
// first fire, after every input sensor has been registered.
func (z *Zone) AttachDiagnostics(dir string) error {
	fanNames := make([]string, len(z.fanInputs))
	for i, s := range z.fanInputs {
		fanNames[i] = s.Name()
	}
	thermalNames := make([]string, len(z.thermalInputs))
	for i, s := range z.thermalInputs {
		thermalNames[i] = s.Name()
	}

	d, err := newDiagnosticLog(dir, z.id, fanNames, thermalNames)
	if err != nil {
		return err
	}
	z.diag = d
	return z.diag.Initialize()
}

// WriteDiagnosticCycle appends one row to the zone's cycle log, if attached.
func (z *Zone) WriteDiagnosticCycle(now time.Time) error {
	return z.diag.WriteCycle(z, now, z.MaxSetpointRequest())
}

// InitializeCache seeds the value/output caches with zeros and pre-inserts
// every declared input into the failsafe set, putting the Zone in the INIT
// state: failsafe until at least one valid reading per input has arrived.
func (z *Zone) InitializeCache() {
	z.mu.Lock()
	defer z.mu.Unlock()
	for _, s := range z.fanInputs {
		z.failsafeSensors[s.Name()] = "init"
	}
	for _, s := range z.thermalInputs {
		z.failsafeSensors[s.Name()] = "init"
	}
}

// UpdateFanTelemetry polls every fan input, refreshes its cached reading,
// and mutates the failsafe set accordingly. Runs every loop tick regardless
// of manual mode, for observability.
func (z *Zone) UpdateFanTelemetry(ctx context.Context, now time.Time) {
	for _, s := range z.fanInputs {
		z.updateOneSensor(ctx, s, now)
	}
}

// UpdateThermalSensors mirrors UpdateFanTelemetry for thermal/power/stepwise
// inputs; runs once per UpdateThermalsInt.
func (z *Zone) UpdateThermalSensors(ctx context.Context, now time.Time) {
	for _, s := range z.thermalInputs {
		z.updateOneSensor(ctx, s, now)
	}
}

func (z *Zone) updateOneSensor(ctx context.Context, s *Sensor, now time.Time) {
	_, failed, reason := s.Poll(ctx, now)

	stale := s.Stale(now)

	z.mu.Lock()
	defer z.mu.Unlock()

	switch {
	case failed:
		z.enterFailsafe(s.Name(), reason)
	case stale:
		z.enterFailsafe(s.Name(), "timeout")
	default:
		z.exitFailsafe(s.Name())
	}
}

func (z *Zone) enterFailsafe(name, reason string) {
	wasEmpty := len(z.failsafeSensors) == 0
	z.failsafeSensors[name] = reason
	if wasEmpty {
		z.fsLog.transition(true)
	}
	z.fsLog.record(z.id, name, reason, true)
}

func (z *Zone) exitFailsafe(name string) {
	if _, ok := z.failsafeSensors[name]; !ok {
		return
	}
	delete(z.failsafeSensors, name)
	if len(z.failsafeSensors) == 0 {
		z.fsLog.transition(false)
	}
	z.fsLog.record(z.id, name, "recovered", false)
}

// ClearSetpoints resets the thermal setpoint contribution vector ahead of a
// thermal pass.
func (z *Zone) ClearSetpoints() {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.setpoints = z.setpoints[:0]
}

// ClearCeilings resets the ceiling vector ahead of a thermal pass.
func (z *Zone) ClearCeilings() {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.ceilings = z.ceilings[:0]
}

// AddSetpoint posts a thermal contribution to the setpoint vector.
func (z *Zone) AddSetpoint(v float64) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.setpoints = append(z.setpoints, v)
}

// AddCeiling posts an upper bound to the ceiling vector.
func (z *Zone) AddCeiling(v float64) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.ceilings = append(z.ceilings, v)
}

// ProcessThermals runs every thermal and stepwise controller in order.
func (z *Zone) ProcessThermals(ctx context.Context) error {
	for _, c := range z.thermalControllers {
		if err := c.Process(ctx, z); err != nil {
			z.logger.WarnContext(ctx, "thermal controller process failed", "zone", z.id, "controller", c.Name(), "error", err)
		}
	}
	return nil
}

// ProcessFans runs every fan controller in order.
func (z *Zone) ProcessFans(ctx context.Context) error {
	for _, c := range z.fanControllers {
		if err := c.Process(ctx, z); err != nil {
			z.logger.WarnContext(ctx, "fan controller process failed", "zone", z.id, "controller", c.Name(), "error", err)
		}
	}
	return nil
}

// DetermineMaximumSetpoint runs the zone's setpoint aggregation rule: the
// maximum of every posted thermal setpoint (and MinThermalOutput), clamped
// above by the minimum posted ceiling if any was posted, then overridden
// by a best-effort tuning-file read when tuning is enabled.
func (z *Zone) DetermineMaximumSetpoint() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()

	max := 0.0
	for i, v := range z.setpoints {
		if i == 0 || v > max {
			max = v
		}
	}
	if len(z.setpoints) == 0 {
		max = 0
	}

	if max < z.minThermalOutput {
		max = z.minThermalOutput
	}

	if len(z.ceilings) > 0 {
		min := z.ceilings[0]
		for _, v := range z.ceilings[1:] {
			if v < min {
				min = v
			}
		}
		if max > min {
			max = min
		}
	}

	if z.tuningEnabled {
		if v, ok := readTuningOverride(z.tuningPath); ok {
			max = v
		}
	}

	z.maxSetpt = max
	return max
}

func readTuningOverride(path string) (float64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CachedValue returns the scaled value cached for name, or 0 if unknown.
func (z *Zone) CachedValue(name string) float64 {
	if s, ok := z.sensorsByName[name]; ok {
		return s.Cached().Value
	}
	return 0
}

// CachedPair returns the full Reading (scaled + unscaled) cached for name.
func (z *Zone) CachedPair(name string) Reading {
	if s, ok := z.sensorsByName[name]; ok {
		return s.Cached()
	}
	return Reading{}
}

// MaxSetpointRequest returns the zone's current aggregated maximum setpoint.
func (z *Zone) MaxSetpointRequest() float64 {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.maxSetpt
}

// FailsafeMode reports whether the zone's failsafe set is non-empty.
func (z *Zone) FailsafeMode() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return len(z.failsafeSensors) > 0
}

// FailsafePercent returns the configured failsafe floor/override percent.
func (z *Zone) FailsafePercent() float64 { return z.failsafePercent }

// FailsafeSensors returns a snapshot copy of the current failsafe set.
func (z *Zone) FailsafeSensors() map[string]string {
	z.mu.Lock()
	defer z.mu.Unlock()
	out := make(map[string]string, len(z.failsafeSensors))
	for k, v := range z.failsafeSensors {
		out[k] = v
	}
	return out
}

// Sensor returns the named sensor, which must belong to this zone.
func (z *Zone) Sensor(name string) (*Sensor, error) {
	if s, ok := z.sensorsByName[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSensorNotFound, name)
}

// SetOutputCache records the last commanded value for a written sensor, for
// inclusion in the diagnostic cycle log.
func (z *Zone) SetOutputCache(name string, value, raw float64) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.outputCache[name] = outputCacheEntry{Value: value, Raw: raw}
}

func (z *Zone) outputCacheFor(name string) outputCacheEntry {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.outputCache[name]
}

// RedundantWrite reports whether every output write is forced, even when the
// commanded value is unchanged since the last write.
func (z *Zone) RedundantWrite() bool { return z.redundantWrite }

// ManualMode reports whether the zone is currently under external override.
func (z *Zone) ManualMode() bool {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.manualMode
}

// SetManualMode toggles the zone between automatic control and external
// override. Under manual mode the loop still runs UpdateFanTelemetry for
// observability but skips ProcessFans/ProcessThermals.
func (z *Zone) SetManualMode(v bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.manualMode = v
}

// MinThermalOutput returns the configured floor for the aggregated setpoint.
func (z *Zone) MinThermalOutput() float64 { return z.minThermalOutput }

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
