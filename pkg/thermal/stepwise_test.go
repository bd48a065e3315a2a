// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"math"
	"testing"
)

func newStepwiseInfo(readings, outputs []float64) StepwiseInfo {
	var info StepwiseInfo
	for i := range info.Reading {
		info.Reading[i] = math.NaN()
	}
	for i, r := range readings {
		info.Reading[i] = r
		info.Output[i] = outputs[i]
	}
	return info
}

func TestStepwiseInfoValidate(t *testing.T) {
	sorted := newStepwiseInfo([]float64{10, 20, 30}, []float64{20, 50, 100})
	if err := sorted.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	unsorted := newStepwiseInfo([]float64{30, 20, 10}, []float64{20, 50, 100})
	if err := unsorted.Validate(); err != ErrStepwiseReadingsNotSorted {
		t.Fatalf("Validate() = %v, want ErrStepwiseReadingsNotSorted", err)
	}
}

func TestStepStepwiseBelowFirstPoint(t *testing.T) {
	info := newStepwiseInfo([]float64{10, 20, 30}, []float64{20, 50, 100})
	var state StepwiseState

	out := StepStepwise(info, &state, 5)
	if out != 20 {
		t.Fatalf("StepStepwise() = %v, want 20", out)
	}
}

func TestStepStepwiseSelectsHighestMatchingBin(t *testing.T) {
	info := newStepwiseInfo([]float64{10, 20, 30}, []float64{20, 50, 100})
	var state StepwiseState

	out := StepStepwise(info, &state, 25)
	if out != 50 {
		t.Fatalf("StepStepwise() = %v, want 50", out)
	}

	out = StepStepwise(info, &state, 30)
	if out != 100 {
		t.Fatalf("StepStepwise() = %v, want 100", out)
	}
}

func TestStepStepwiseHysteresisSuppressesFlapping(t *testing.T) {
	info := newStepwiseInfo([]float64{10, 20, 30}, []float64{20, 50, 100})
	info.PositiveHysteresis = 5
	info.NegativeHysteresis = 5
	var state StepwiseState

	// Establish state at the 20 bin (output 50).
	out := StepStepwise(info, &state, 28)
	if out != 50 {
		t.Fatalf("StepStepwise() = %v, want 50", out)
	}

	// A small rise within the positive hysteresis band should not move
	// the output even though input now crosses into the next bin's reach.
	out = StepStepwise(info, &state, 31)
	if out != 50 {
		t.Fatalf("StepStepwise() with small rise = %v, want suppressed 50", out)
	}

	// A rise past the hysteresis band re-evaluates.
	out = StepStepwise(info, &state, 36)
	if out != 100 {
		t.Fatalf("StepStepwise() past hysteresis band = %v, want 100", out)
	}
}
