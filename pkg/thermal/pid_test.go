// SPDX-License-Identifier: BSD-3-Clause

package thermal

import "testing"

func TestPidInfoValidate(t *testing.T) {
	cases := []struct {
		name    string
		info    PidInfo
		wantErr error
	}{
		{
			name:    "zero sample time",
			info:    PidInfo{Ts: 0},
			wantErr: ErrInvalidSampleTime,
		},
		{
			name:    "negative sample time",
			info:    PidInfo{Ts: -1},
			wantErr: ErrInvalidSampleTime,
		},
		{
			name:    "inverted output limits",
			info:    PidInfo{Ts: 1, OutputLimit: Limits{Min: 100, Max: 0}},
			wantErr: ErrOutputLimitsInvalid,
		},
		{
			name:    "inverted integral limits",
			info:    PidInfo{Ts: 1, IntegralLimit: Limits{Min: 100, Max: 0}},
			wantErr: ErrOutputLimitsInvalid,
		},
		{
			name: "valid",
			info: PidInfo{Ts: 1, OutputLimit: Limits{Min: 0, Max: 100}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.info.Validate()
			if err != c.wantErr {
				t.Fatalf("Validate() = %v, want %v", err, c.wantErr)
			}
		})
	}
}

func TestStepPIDProportional(t *testing.T) {
	info := PidInfo{
		Ts:          1,
		P:           2,
		OutputLimit: Limits{Min: -1000, Max: 1000},
	}
	var state PidState

	out := StepPID(info, &state, 10, 15) // error = 5
	if out != 10 {
		t.Fatalf("StepPID() = %v, want 10", out)
	}
	if state.LastError != 5 {
		t.Fatalf("state.LastError = %v, want 5", state.LastError)
	}
}

func TestStepPIDOutputClamped(t *testing.T) {
	info := PidInfo{
		Ts:          1,
		P:           10,
		OutputLimit: Limits{Min: 0, Max: 100},
	}
	var state PidState

	out := StepPID(info, &state, 0, 50) // raw output would be 500
	if out != 100 {
		t.Fatalf("StepPID() = %v, want clamped 100", out)
	}
}

func TestStepPIDIntegralAccumulates(t *testing.T) {
	info := PidInfo{
		Ts:            1,
		I:             1,
		IntegralLimit: Limits{Min: -1000, Max: 1000},
		OutputLimit:   Limits{Min: -1000, Max: 1000},
	}
	var state PidState

	StepPID(info, &state, 0, 1) // error 1, integral -> 1
	StepPID(info, &state, 0, 1) // error 1, integral -> 2

	if state.Integral != 2 {
		t.Fatalf("state.Integral = %v, want 2", state.Integral)
	}
}

func TestStepPIDSlewLimitsGoogleVariant(t *testing.T) {
	info := PidInfo{
		Variant:     PIDGoogle,
		Ts:          1,
		P:           100,
		OutputLimit: Limits{Min: -1000, Max: 1000},
		SlewPos:     5,
		SlewNeg:     -5,
	}
	var state PidState

	// First call establishes LastOutput with no prior slew reference.
	first := StepPID(info, &state, 0, 0)
	if first != 0 {
		t.Fatalf("first StepPID() = %v, want 0", first)
	}

	// Second call would jump hugely (error=10 * P=100 = 1000) but slew
	// limits it to LastOutput + SlewPos*Ts = 0 + 5 = 5.
	second := StepPID(info, &state, 0, 10)
	if second != 5 {
		t.Fatalf("second StepPID() = %v, want slew-limited 5", second)
	}
}

func TestStepPIDStandardVariantReversedDerivative(t *testing.T) {
	info := PidInfo{
		Variant:     PIDStandard,
		Ts:          1,
		D:           1,
		OutputLimit: Limits{Min: -1000, Max: 1000},
	}
	var state PidState

	StepPID(info, &state, 10, 10) // error 0
	out := StepPID(info, &state, 5, 10) // error 5, D = LastError(0) - 5 = -5

	if out != -5 {
		t.Fatalf("StepPID() = %v, want -5", out)
	}
}
