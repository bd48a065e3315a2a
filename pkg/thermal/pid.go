// SPDX-License-Identifier: BSD-3-Clause

package thermal

// PIDVariant selects the derivative-term convention and slew/feed-forward
// coupling a PID kernel uses.
type PIDVariant int

const (
	// PIDGoogle is the "Google variant": feed-forward, slew-rate clamping
	// with integral back-solve, and D computed against the current error.
	PIDGoogle PIDVariant = iota
	// PIDStandard uses a reversed derivative sign and has no slew/FF
	// coupling; selectable per controller when declared.
	PIDStandard
)

// Limits is a generic [min, max] clamp pair.
type Limits struct {
	Min, Max float64
}

func (l Limits) clamp(v float64) float64 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// PidInfo is the immutable coefficient set for a PID controller, materialized
// once at wiring time.
type PidInfo struct {
	Variant PIDVariant

	P, I, D       float64
	FFOffset      float64
	FFGain        float64
	Ts            float64 // sample period, seconds
	IntegralLimit Limits
	OutputLimit   Limits
	SlewNeg       float64
	SlewPos       float64

	// PositiveHysteresis, NegativeHysteresis, and CheckHysteresisWithSetpoint
	// are carried for config-schema parity with the stepwise table (and with
	// upstream's pid_info_t, which declares the same three fields) but are
	// not read by StepPID: upstream's own PID kernel never branches on them
	// either, despite accepting them in configuration. HysteresisBeforeSlew
	// is set to true by Build and is likewise not read by StepPID.
	PositiveHysteresis          float64
	NegativeHysteresis          float64
	CheckHysteresisWithSetpoint bool
	HysteresisBeforeSlew        bool
}

// Validate checks the static invariants a PidInfo must satisfy before it can
// ever be stepped; ts=0 is a fatal configuration error per spec.
func (p PidInfo) Validate() error {
	if p.Ts <= 0 {
		return ErrInvalidSampleTime
	}
	if p.IntegralLimit.Min > p.IntegralLimit.Max {
		return ErrOutputLimitsInvalid
	}
	if p.OutputLimit.Min > p.OutputLimit.Max {
		return ErrOutputLimitsInvalid
	}
	return nil
}

// PidState is the mutable runtime companion to a PidInfo, advanced once per
// StepPID call.
type PidState struct {
	Initialized bool
	Integral    float64
	LastOutput  float64
	LastError   float64
}

// StepPID advances a PID controller by one sample and returns the new
// output, mutating state in place. The algorithm mirrors the upstream
// "Google variant" exactly for PIDGoogle, and a reversed-derivative,
// no-slew variant for PIDStandard.
func StepPID(info PidInfo, state *PidState, input, setpoint float64) float64 {
	errVal := setpoint - input
	p := info.P * errVal

	var i float64
	if info.I != 0 {
		i = info.IntegralLimit.clamp(state.Integral + errVal*info.I*info.Ts)
	}

	var d float64
	switch info.Variant {
	case PIDStandard:
		d = info.D * (state.LastError - errVal)
	default:
		d = info.D * (errVal - state.LastError) / info.Ts
	}

	var ff float64
	if info.Variant == PIDGoogle {
		ff = (setpoint + info.FFOffset) * info.FFGain
	}

	out := info.OutputLimit.clamp(p + i + d + ff)

	if info.Variant == PIDGoogle && state.Initialized && (info.SlewNeg != 0 || info.SlewPos != 0) {
		slewLimits := Limits{
			Min: state.LastOutput + info.SlewNeg*info.Ts,
			Max: state.LastOutput + info.SlewPos*info.Ts,
		}
		clamped := slewLimits.clamp(out)
		if clamped != out {
			out = clamped
			if info.I != 0 {
				i = info.IntegralLimit.clamp(out - p)
			}
		}
	}

	state.Integral = i
	state.LastError = errVal
	state.LastOutput = out
	state.Initialized = true

	return out
}
