// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"fmt"
	"math"
)

// ZoneContext is the upward-facing capability set a Controller needs from
// its owning Zone: cache lookup, setpoint/ceiling posting, and failsafe
// state. Controllers hold this narrow interface rather than a full *Zone
// reference or a cycle of owning handles, per the package's design note on
// cross-component references.
type ZoneContext interface {
	CachedValue(name string) float64
	CachedPair(name string) Reading
	AddSetpoint(v float64)
	AddCeiling(v float64)
	MaxSetpointRequest() float64
	FailsafeMode() bool
	FailsafePercent() float64
	FailsafeSensors() map[string]string
	Sensor(name string) (*Sensor, error)
	SetOutputCache(name string, value, raw float64)
	RedundantWrite() bool
	ID() string
}

// CombineMode selects how a multi-input thermal controller folds several
// raw inputs into one value before the PID or stepwise kernel sees it.
type CombineMode int

const (
	// CombineAbsolute picks the worst single input (highest temperature;
	// lowest margin for inputs converted with a temp-to-margin zero) — the
	// default. Inputs without a conversion zero compare highest-first.
	CombineAbsolute CombineMode = iota
	// CombineSummation adds every input's contribution.
	CombineSummation
)

// ControllerType tags the concrete shape a Controller was built as.
type ControllerType int

const (
	ControllerFanPID ControllerType = iota
	ControllerThermalPID
	ControllerStepwise
)

// InputSpec is one entry in a controller's ordered input list: a sensor
// name, an optional temp-to-margin conversion zero (whose presence also
// makes CombineAbsolute treat the input as a margin, lowest worst), and
// whether its absence is tolerated.
type InputSpec struct {
	Name               string
	TempToMarginZero   float64
	HasTempToMargin    bool
	MissingIsAcceptable bool
}

// Controller is the shared capability set every controller kind implements:
// gather its input(s) from the cache, compute or fetch its setpoint, and
// emit an output. process() runs the three steps in order.
type Controller interface {
	Name() string
	Type() ControllerType
	Inputs() []InputSpec
	InputGather(zc ZoneContext) float64
	SetpointCompute(zc ZoneContext) float64
	OutputEmit(ctx context.Context, zc ZoneContext, value float64) error
	Process(ctx context.Context, zc ZoneContext) error
}

func gatherWithCombine(zc ZoneContext, inputs []InputSpec, mode CombineMode) float64 {
	var result float64
	first := true
	for _, in := range inputs {
		v := zc.CachedValue(in.Name)
		if in.HasTempToMargin {
			v = in.TempToMarginZero - v
		}
		switch mode {
		case CombineSummation:
			result += v
		default: // CombineAbsolute
			sign := 1.0
			if in.HasTempToMargin {
				sign = -1
			}
			if first || sign*v > sign*result {
				result = v
			}
		}
		first = false
	}
	return result
}

// ThermalController drives a single PID from one or more thermal inputs,
// combined per CombineMode. Stepwise tables are driven by
// StepwiseController instead.
type ThermalController struct {
	name    string
	inputs  []InputSpec
	setpt   float64
	combine CombineMode
	ceiling bool

	info  PidInfo
	state PidState
}

// NewThermalController constructs a PID-backed thermal controller.
func NewThermalController(name string, inputs []InputSpec, setpoint float64, combine CombineMode, isCeiling bool, info PidInfo) (*ThermalController, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrControllerHasNoInputs, name)
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPIDConfig, name, err)
	}
	return &ThermalController{name: name, inputs: inputs, setpt: setpoint, combine: combine, ceiling: isCeiling, info: info}, nil
}

func (c *ThermalController) Name() string          { return c.name }
func (c *ThermalController) Type() ControllerType   { return ControllerThermalPID }
func (c *ThermalController) Inputs() []InputSpec    { return c.inputs }

func (c *ThermalController) InputGather(zc ZoneContext) float64 {
	return gatherWithCombine(zc, c.inputs, c.combine)
}

func (c *ThermalController) SetpointCompute(_ ZoneContext) float64 {
	return c.setpt
}

func (c *ThermalController) OutputEmit(_ context.Context, zc ZoneContext, value float64) error {
	if c.ceiling {
		zc.AddCeiling(value)
	} else {
		zc.AddSetpoint(value)
	}
	return nil
}

func (c *ThermalController) Process(ctx context.Context, zc ZoneContext) error {
	input := c.InputGather(zc)
	setpoint := c.SetpointCompute(zc)
	out := StepPID(c.info, &c.state, input, setpoint)
	return c.OutputEmit(ctx, zc, out)
}

// StepwiseController drives a stepwise lookup table from a single input.
// Per spec this is a single-input controller; the upstream implementation
// rejects configurations with any other input count and so does this one.
type StepwiseController struct {
	name   string
	inputs []InputSpec

	info  StepwiseInfo
	state StepwiseState
}

// NewStepwiseController constructs a stepwise-backed controller. isCeiling
// is carried on info.IsCeiling and read by OutputEmit to choose whether to
// post to the Zone's setpoint or ceiling vector.
func NewStepwiseController(name string, inputs []InputSpec, info StepwiseInfo) (*StepwiseController, error) {
	if len(inputs) != 1 {
		return nil, fmt.Errorf("%w: %s", ErrControllerHasNoInputs, name)
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidStepwiseConfig, name, err)
	}
	return &StepwiseController{name: name, inputs: inputs, info: info}, nil
}

func (c *StepwiseController) Name() string        { return c.name }
func (c *StepwiseController) Type() ControllerType { return ControllerStepwise }
func (c *StepwiseController) Inputs() []InputSpec  { return c.inputs }

func (c *StepwiseController) InputGather(zc ZoneContext) float64 {
	return zc.CachedValue(c.inputs[0].Name)
}

func (c *StepwiseController) SetpointCompute(_ ZoneContext) float64 { return 0 }

func (c *StepwiseController) OutputEmit(_ context.Context, zc ZoneContext, value float64) error {
	if c.info.IsCeiling {
		zc.AddCeiling(value)
	} else {
		zc.AddSetpoint(value)
	}
	return nil
}

func (c *StepwiseController) Process(ctx context.Context, zc ZoneContext) error {
	input := c.InputGather(zc)
	out := StepStepwise(c.info, &c.state, input)
	return c.OutputEmit(ctx, zc, out)
}

// FanController drives one or more PWM outputs from fan-tach inputs. Its
// strict flag (ZoneSpec.StrictFailsafe) selects the fan failsafe-PWM
// policy: true replaces the commanded PWM unconditionally while in
// failsafe; false (the default) only raises it to the floor. This mirrors the upstream STRICT_FAILSAFE_PWM
// build-time toggle as a runtime field instead, since this tree has no
// build-tag story for per-deployment policy switches.
type FanController struct {
	name    string
	inputs  []InputSpec
	outputs []string // sensor names with write backends

	info  PidInfo
	state PidState

	strict bool

	lastSetpoint float64
	direction    FanDirection
}

// FanDirection records whether a fan controller's last computed setpoint
// rose, fell, or held, for diagnostic purposes.
type FanDirection int

const (
	FanNeutral FanDirection = iota
	FanUp
	FanDown
)

// NewFanController constructs a PID-backed fan controller with one or more
// tach inputs and one or more PWM output sensors.
func NewFanController(name string, inputs []InputSpec, outputs []string, info PidInfo, strictFailsafe bool) (*FanController, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrControllerHasNoInputs, name)
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPIDConfig, name, err)
	}
	return &FanController{name: name, inputs: inputs, outputs: outputs, info: info, strict: strictFailsafe}, nil
}

func (c *FanController) Name() string        { return c.name }
func (c *FanController) Type() ControllerType { return ControllerFanPID }
func (c *FanController) Inputs() []InputSpec  { return c.inputs }
func (c *FanController) Direction() FanDirection { return c.direction }

// InputGather returns the minimum of the valid (finite, positive) unscaled
// fan readings; non-finite and non-positive values are discarded. The
// unscaled value is used deliberately, to correctly recover the RPM rather
// than a percentage.
func (c *FanController) InputGather(zc ZoneContext) float64 {
	var min float64
	found := false
	for _, in := range c.inputs {
		r := zc.CachedPair(in.Name)
		v := r.Unscaled
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		if !found || v < min {
			min = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return min
}

func (c *FanController) SetpointCompute(zc ZoneContext) float64 {
	maxRPM := zc.MaxSetpointRequest()
	switch {
	case maxRPM > c.lastSetpoint:
		c.direction = FanUp
	case maxRPM < c.lastSetpoint:
		c.direction = FanDown
	default:
		c.direction = FanNeutral
	}
	c.lastSetpoint = maxRPM
	return maxRPM
}

// OutputEmit applies the failsafe-PWM policy, converts the 0-100 percent
// scale to a [0,1] fraction, and writes every output sensor, recording the
// commanded value in the Zone's output cache for the diagnostic log.
func (c *FanController) OutputEmit(ctx context.Context, zc ZoneContext, value float64) error {
	percent := value

	if zc.FailsafeMode() {
		failsafePercent := zc.FailsafePercent()
		if c.strict {
			percent = failsafePercent
		} else if percent < failsafePercent {
			percent = failsafePercent
		}
	}

	fraction := percent / 100.0
	redundant := zc.RedundantWrite()

	var firstErr error
	for _, name := range c.outputs {
		sensor, err := zc.Sensor(name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		raw, err := sensor.Write(ctx, fraction, redundant)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		zc.SetOutputCache(name, fraction, float64(raw))
	}
	return firstErr
}

func (c *FanController) Process(ctx context.Context, zc ZoneContext) error {
	input := c.InputGather(zc)
	setpoint := c.SetpointCompute(zc)
	out := StepPID(c.info, &c.state, input, setpoint)
	return c.OutputEmit(ctx, zc, out)
}
