// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Engine is the fully wired runtime produced by Build: every Zone, every
// Sensor, and — for sensors with no filesystem path — the push functions an
// external transport (a NATS listener, a host-push handler) uses to feed
// passive/external backends. Build is the only component that ever sees the
// complete Config; nothing downstream re-reads it.
type Engine struct {
	Zones   map[string]*Zone
	Sensors map[string]*Sensor
	Pushers map[string]func(int64) // sensor name -> passive/external value setter
}

// Build validates cfg and materializes every Sensor, Zone, and Controller
// it describes. It is a pure function of its inputs: no global state, no
// file I/O beyond what the caller's Config already resolved.
func Build(cfg Config, logger *slog.Logger, hostOffCheck func() bool) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Sensors) == 0 || len(cfg.Zones) == 0 {
		return nil, ErrEmptyConfiguration
	}

	eng := &Engine{
		Zones:   make(map[string]*Zone),
		Sensors: make(map[string]*Sensor),
		Pushers: make(map[string]func(int64)),
	}

	for _, sc := range cfg.Sensors {
		if _, exists := eng.Sensors[sc.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrSensorAlreadyExists, sc.Name)
		}
		sensor, pusher, err := buildSensor(sc, hostOffCheck)
		if err != nil {
			return nil, fmt.Errorf("sensor %s: %w", sc.Name, err)
		}
		eng.Sensors[sc.Name] = sensor
		if pusher != nil {
			eng.Pushers[sc.Name] = pusher
		}
	}

	assigned := make(map[string]string) // sensor name -> zone ID it was first assigned to

	for _, zc := range cfg.Zones {
		if _, exists := eng.Zones[zc.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrZoneAlreadyExists, zc.ID)
		}
		if len(zc.PIDs) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrZoneHasNoControllers, zc.ID)
		}

		zone := NewZone(ZoneConfig{
			ID:                zc.ID,
			MinThermalOutput:  zc.MinThermalOutput,
			FailsafePercent:   zc.FailsafePercent,
			CycleInterval:     time.Duration(zc.CycleIntervalTimeMS) * time.Millisecond,
			UpdateThermalsInt: time.Duration(zc.UpdateThermalsTimeMS) * time.Millisecond,
			RedundantWrite:    zc.RedundantWrite,
			TuningEnabled:     zc.TuningEnabled,
			TuningPath:        zc.TuningPath,
		}, logger)

		for _, pid := range zc.PIDs {
			if err := wireController(eng, zone, zc, pid, assigned); err != nil {
				return nil, fmt.Errorf("zone %s controller %s: %w", zc.ID, pid.Name, err)
			}
		}

		eng.Zones[zc.ID] = zone
	}

	return eng, nil
}

func wireController(eng *Engine, zone *Zone, zc ZoneSpec, pid PIDSpec, assigned map[string]string) error {
	if len(pid.Inputs) == 0 {
		return fmt.Errorf("%w: %s", ErrControllerHasNoInputs, pid.Name)
	}

	inputs := make([]InputSpec, len(pid.Inputs))
	for i, name := range pid.Inputs {
		spec := InputSpec{Name: name}
		if i < len(pid.TempToMargin) {
			spec.TempToMarginZero = pid.TempToMargin[i]
			spec.HasTempToMargin = true
		}
		if i < len(pid.MissingIsAcceptable) {
			spec.MissingIsAcceptable = pid.MissingIsAcceptable[i]
		}
		inputs[i] = spec
	}

	switch pid.Type {
	case "fan":
		for _, in := range inputs {
			if err := assignSensor(eng, zone, zc.ID, in.Name, assigned, true); err != nil {
				return err
			}
		}
		for _, out := range pid.Outputs {
			sensor, ok := eng.Sensors[out]
			if !ok {
				return fmt.Errorf("%w: %s", ErrSensorNotFound, out)
			}
			zone.RegisterOutputOnly(sensor)
		}

		info, err := pidInfoFromSpec(pid.PID)
		if err != nil {
			return err
		}
		ctrl, err := NewFanController(pid.Name, inputs, pid.Outputs, info, zc.StrictFailsafe)
		if err != nil {
			return err
		}
		zone.AddFanController(ctrl)

	case "temp", "margin", "power", "powersum":
		for _, in := range inputs {
			if err := assignSensor(eng, zone, zc.ID, in.Name, assigned, false); err != nil {
				return err
			}
		}
		info, err := pidInfoFromSpec(pid.PID)
		if err != nil {
			return err
		}
		combine := CombineAbsolute
		if pid.Combine == "summation" {
			combine = CombineSummation
		}
		ctrl, err := NewThermalController(pid.Name, inputs, pid.Setpoint, combine, pid.IsCeiling, info)
		if err != nil {
			return err
		}
		zone.AddThermalController(ctrl)

	case "stepwise":
		for _, in := range inputs {
			if err := assignSensor(eng, zone, zc.ID, in.Name, assigned, false); err != nil {
				return err
			}
		}
		stepInfo, err := stepwiseInfoFromSpec(pid.Stepwise, pid.IsCeiling)
		if err != nil {
			return err
		}
		ctrl, err := NewStepwiseController(pid.Name, inputs, stepInfo)
		if err != nil {
			return err
		}
		zone.AddThermalController(ctrl)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedControllerType, pid.Type)
	}

	return nil
}

func assignSensor(eng *Engine, zone *Zone, zoneID, name string, assigned map[string]string, isFan bool) error {
	sensor, ok := eng.Sensors[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSensorNotFound, name)
	}
	if owner, exists := assigned[name]; exists && owner != zoneID {
		return fmt.Errorf("%w: %s", ErrSensorAssignedTwice, name)
	}
	if _, exists := assigned[name]; exists {
		return nil // already attached to this zone by an earlier controller
	}
	assigned[name] = zoneID

	if isFan {
		return zone.AddFanInput(sensor)
	}
	return zone.AddThermalInput(sensor)
}

func buildSensor(sc SensorSpec, hostOffCheck func() bool) (*Sensor, func(int64), error) {
	typ, err := parseSensorType(sc.Type)
	if err != nil {
		return nil, nil, err
	}

	unavailableAsFailed := true
	if sc.UnavailableAsFailed != nil {
		unavailableAsFailed = *sc.UnavailableAsFailed
	}

	timeout := typ.DefaultTimeout()
	if sc.TimeoutSeconds != nil {
		timeout = durationFromSeconds(*sc.TimeoutSeconds)
	}

	cfg := SensorConfig{
		Name:                 sc.Name,
		Type:                 typ,
		Min:                  sc.Min,
		Max:                  sc.Max,
		Timeout:              timeout,
		IgnoreMinMax:         sc.IgnoreDbusMinMax,
		UnavailableAsFailed:  unavailableAsFailed,
		IgnoreFailIfHostOff:  sc.IgnoreFailIfHostOff,
		ZeroStrikesTolerance: sc.ZeroStrikesTolerance,
	}
	if sc.CriticalHigh != nil {
		cfg.Thresholds.HasCriticalHigh = true
		cfg.Thresholds.CriticalHigh = *sc.CriticalHigh
	}
	if sc.CriticalLow != nil {
		cfg.Thresholds.HasCriticalLow = true
		cfg.Thresholds.CriticalLow = *sc.CriticalLow
	}
	if sc.WarningHigh != nil {
		cfg.Thresholds.HasWarningHigh = true
		cfg.Thresholds.WarningHigh = *sc.WarningHigh
	}

	var backend Backend
	var writer Writer
	var pusher func(int64)

	switch {
	case sc.ReadPath != "":
		fsBackend := NewFilesystemBackend(sc.ReadPath, sc.WritePath, int64(sc.Min), int64(sc.Max))
		backend = fsBackend
		if sc.WritePath != "" {
			writer = fsBackend
		}
	case typ == SensorStepwiseTemp || typ == SensorTemp:
		eb, set := NewExternalBackend()
		backend = eb
		pusher = set
	default:
		pb, set := NewPassiveBackend(0)
		backend = pb
		pusher = set
	}

	return NewSensor(cfg, backend, writer, hostOffCheck), pusher, nil
}

func parseSensorType(s string) (SensorType, error) {
	switch s {
	case "fan":
		return SensorFan, nil
	case "temp":
		return SensorTemp, nil
	case "margin":
		return SensorMargin, nil
	case "power":
		return SensorPower, nil
	case "powersum":
		return SensorPowerSum, nil
	case "stepwise-temp":
		return SensorStepwiseTemp, nil
	default:
		return 0, fmt.Errorf("%w: unknown sensor type %q", ErrInvalidConfiguration, s)
	}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func pidInfoFromSpec(s *PIDCoeffSpec) (PidInfo, error) {
	if s == nil {
		return PidInfo{}, ErrInvalidPIDConfig
	}
	variant := PIDGoogle
	if s.Variant == "standard" {
		variant = PIDStandard
	}
	info := PidInfo{
		Variant:                     variant,
		P:                           s.ProportionalCoeff,
		I:                           s.IntegralCoeff,
		D:                           s.DerivativeCoeff,
		FFOffset:                    s.FeedFwdOffsetCoeff,
		FFGain:                      s.FeedFwdGainCoeff,
		Ts:                          s.SamplePeriod,
		IntegralLimit:               Limits{Min: s.IntegralLimitMin, Max: s.IntegralLimitMax},
		OutputLimit:                 Limits{Min: s.OutLimMin, Max: s.OutLimMax},
		SlewNeg:                     s.SlewNeg,
		SlewPos:                     s.SlewPos,
		PositiveHysteresis:          s.PositiveHysteresis,
		NegativeHysteresis:          s.NegativeHysteresis,
		CheckHysteresisWithSetpoint: s.CheckHysteresisWithSetpoint,
		HysteresisBeforeSlew:        true,
	}
	if err := info.Validate(); err != nil {
		return PidInfo{}, err
	}
	return info, nil
}

func stepwiseInfoFromSpec(s *StepwiseSpec, isCeiling bool) (StepwiseInfo, error) {
	if s == nil {
		return StepwiseInfo{}, ErrInvalidStepwiseConfig
	}
	if len(s.Reading) == 0 || len(s.Reading) != len(s.Output) {
		return StepwiseInfo{}, ErrInvalidStepwiseConfig
	}
	if len(s.Reading) > MaxStepwisePoints {
		return StepwiseInfo{}, ErrTooManyStepwisePoints
	}

	var info StepwiseInfo
	for i := range info.Reading {
		info.Reading[i] = math.NaN()
	}
	copy(info.Reading[:], s.Reading)
	copy(info.Output[:], s.Output)
	info.IsCeiling = isCeiling
	info.PositiveHysteresis = s.PositiveHysteresis
	info.NegativeHysteresis = s.NegativeHysteresis

	if err := info.Validate(); err != nil {
		return StepwiseInfo{}, err
	}
	return info, nil
}
