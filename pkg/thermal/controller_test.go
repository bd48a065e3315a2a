// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"errors"
	"testing"
)

// fakeZoneContext is a minimal in-memory ZoneContext for exercising
// controllers without a full Zone.
type fakeZoneContext struct {
	values    map[string]float64
	unscaled  map[string]float64
	setpoints []float64
	ceilings  []float64
	maxSetpt  float64
	failsafe  bool
	failPct   float64
	sensors   map[string]*Sensor
	written   map[string]float64
}

func newFakeZoneContext() *fakeZoneContext {
	return &fakeZoneContext{
		values:   make(map[string]float64),
		unscaled: make(map[string]float64),
		sensors:  make(map[string]*Sensor),
		written:  make(map[string]float64),
	}
}

func (f *fakeZoneContext) CachedValue(name string) float64 { return f.values[name] }
func (f *fakeZoneContext) CachedPair(name string) Reading {
	return Reading{Value: f.values[name], Unscaled: f.unscaled[name]}
}
func (f *fakeZoneContext) AddSetpoint(v float64)       { f.setpoints = append(f.setpoints, v) }
func (f *fakeZoneContext) AddCeiling(v float64)        { f.ceilings = append(f.ceilings, v) }
func (f *fakeZoneContext) MaxSetpointRequest() float64 { return f.maxSetpt }
func (f *fakeZoneContext) FailsafeMode() bool          { return f.failsafe }
func (f *fakeZoneContext) FailsafePercent() float64    { return f.failPct }
func (f *fakeZoneContext) FailsafeSensors() map[string]string { return nil }
func (f *fakeZoneContext) Sensor(name string) (*Sensor, error) {
	s, ok := f.sensors[name]
	if !ok {
		return nil, ErrSensorNotFound
	}
	return s, nil
}
func (f *fakeZoneContext) SetOutputCache(name string, value, raw float64) {
	f.written[name] = value
}
func (f *fakeZoneContext) RedundantWrite() bool { return false }
func (f *fakeZoneContext) ID() string           { return "test-zone" }

func TestGatherWithCombineAbsolutePicksWorst(t *testing.T) {
	zc := newFakeZoneContext()
	zc.values["a"] = 40
	zc.values["b"] = 70
	zc.values["c"] = 55

	inputs := []InputSpec{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	got := gatherWithCombine(zc, inputs, CombineAbsolute)
	if got != 70 {
		t.Fatalf("gatherWithCombine(absolute) = %v, want 70", got)
	}
}

func TestGatherWithCombineSummation(t *testing.T) {
	zc := newFakeZoneContext()
	zc.values["a"] = 10
	zc.values["b"] = 20

	inputs := []InputSpec{{Name: "a"}, {Name: "b"}}
	got := gatherWithCombine(zc, inputs, CombineSummation)
	if got != 30 {
		t.Fatalf("gatherWithCombine(summation) = %v, want 30", got)
	}
}

func TestGatherWithCombineTempToMargin(t *testing.T) {
	zc := newFakeZoneContext()
	zc.values["cpu"] = 30

	inputs := []InputSpec{{Name: "cpu", HasTempToMargin: true, TempToMarginZero: 100}}
	got := gatherWithCombine(zc, inputs, CombineAbsolute)
	if got != 70 {
		t.Fatalf("gatherWithCombine(margin) = %v, want 70", got)
	}
}

func TestThermalControllerProcessPostsSetpoint(t *testing.T) {
	zc := newFakeZoneContext()
	zc.values["temp"] = 50

	info := PidInfo{Ts: 1, P: 1, OutputLimit: Limits{Min: 0, Max: 100}}
	ctl, err := NewThermalController("temp-ctl", []InputSpec{{Name: "temp"}}, 60, CombineAbsolute, false, info)
	if err != nil {
		t.Fatalf("NewThermalController() error = %v", err)
	}

	if err := ctl.Process(context.Background(), zc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(zc.setpoints) != 1 {
		t.Fatalf("setpoints = %v, want exactly one entry", zc.setpoints)
	}
	if len(zc.ceilings) != 0 {
		t.Fatalf("ceilings = %v, want none for a non-ceiling controller", zc.ceilings)
	}
}

func TestThermalControllerCeilingPostsCeiling(t *testing.T) {
	zc := newFakeZoneContext()
	zc.values["temp"] = 50

	info := PidInfo{Ts: 1, P: 1, OutputLimit: Limits{Min: 0, Max: 100}}
	ctl, err := NewThermalController("temp-ceiling", []InputSpec{{Name: "temp"}}, 60, CombineAbsolute, true, info)
	if err != nil {
		t.Fatalf("NewThermalController() error = %v", err)
	}

	if err := ctl.Process(context.Background(), zc); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(zc.ceilings) != 1 {
		t.Fatalf("ceilings = %v, want exactly one entry", zc.ceilings)
	}
}

func TestNewThermalControllerRejectsEmptyInputs(t *testing.T) {
	info := PidInfo{Ts: 1, OutputLimit: Limits{Min: 0, Max: 100}}
	if _, err := NewThermalController("no-inputs", nil, 0, CombineAbsolute, false, info); !errors.Is(err, ErrControllerHasNoInputs) {
		t.Fatalf("NewThermalController() error = %v, want ErrControllerHasNoInputs", err)
	}
}

func TestFanControllerInputGatherIgnoresZeroAndNegative(t *testing.T) {
	zc := newFakeZoneContext()
	zc.unscaled["fan1"] = 0
	zc.unscaled["fan2"] = 1500
	zc.unscaled["fan3"] = 1200

	info := PidInfo{Ts: 1, OutputLimit: Limits{Min: 0, Max: 100}}
	ctl, err := NewFanController("fan-ctl", []InputSpec{{Name: "fan1"}, {Name: "fan2"}, {Name: "fan3"}}, nil, info, false)
	if err != nil {
		t.Fatalf("NewFanController() error = %v", err)
	}

	got := ctl.InputGather(zc)
	if got != 1200 {
		t.Fatalf("InputGather() = %v, want minimum valid reading 1200", got)
	}
}

func TestFanControllerOutputEmitFailsafeFloor(t *testing.T) {
	zc := newFakeZoneContext()
	zc.failsafe = true
	zc.failPct = 80
	zc.sensors["fan1"] = &Sensor{backend: &fakeWriteBackend{}, writer: &fakeWriteBackend{}}

	info := PidInfo{Ts: 1, OutputLimit: Limits{Min: 0, Max: 100}}
	ctl, err := NewFanController("fan-ctl", []InputSpec{{Name: "fan1"}}, []string{"fan1"}, info, false)
	if err != nil {
		t.Fatalf("NewFanController() error = %v", err)
	}

	// Commanded 30% while failsafe floor is 80%: non-strict policy raises
	// it to the floor rather than replacing it outright.
	if err := ctl.OutputEmit(context.Background(), zc, 30); err != nil {
		t.Fatalf("OutputEmit() error = %v", err)
	}
	if got := zc.written["fan1"]; got != 0.8 {
		t.Fatalf("written fraction = %v, want 0.8 (failsafe floor)", got)
	}
}

func TestFanControllerOutputEmitStrictReplacesCommand(t *testing.T) {
	zc := newFakeZoneContext()
	zc.failsafe = true
	zc.failPct = 80
	zc.sensors["fan1"] = &Sensor{backend: &fakeWriteBackend{}, writer: &fakeWriteBackend{}}

	info := PidInfo{Ts: 1, OutputLimit: Limits{Min: 0, Max: 100}}
	ctl, err := NewFanController("fan-ctl", []InputSpec{{Name: "fan1"}}, []string{"fan1"}, info, true)
	if err != nil {
		t.Fatalf("NewFanController() error = %v", err)
	}

	// Commanded 95%, above the floor: strict policy still forces the floor.
	if err := ctl.OutputEmit(context.Background(), zc, 95); err != nil {
		t.Fatalf("OutputEmit() error = %v", err)
	}
	if got := zc.written["fan1"]; got != 0.8 {
		t.Fatalf("written fraction = %v, want 0.8 (strict floor)", got)
	}
}

// fakeWriteBackend is a no-op Backend/Writer pair for exercising
// FanController.OutputEmit without a real sysfs file.
type fakeWriteBackend struct{}

func (fakeWriteBackend) Read(ctx context.Context) (float64, int64, bool, error) {
	return 0, 0, true, nil
}

func (fakeWriteBackend) Write(ctx context.Context, fraction float64, force bool) (int64, error) {
	return int64(fraction * 255), nil
}
