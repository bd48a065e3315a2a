// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"testing"
	"time"
)

func validPID() *PIDCoeffSpec {
	return &PIDCoeffSpec{
		SamplePeriod:      1,
		ProportionalCoeff: 1,
		OutLimMin:         0,
		OutLimMax:         100,
	}
}

func TestBuildRejectsEmptyConfiguration(t *testing.T) {
	if _, err := Build(Config{}, nil, nil); err != ErrEmptyConfiguration {
		t.Fatalf("Build() error = %v, want ErrEmptyConfiguration", err)
	}
}

func TestBuildWiresFilesystemSensorWithoutPusher(t *testing.T) {
	cfg := Config{
		Sensors: []SensorSpec{
			{Name: "fan1", Type: "fan", ReadPath: "/tmp/does-not-matter", Min: 0, Max: 255},
		},
		Zones: []ZoneSpec{
			{
				ID:                  "z1",
				FailsafePercent:     100,
				CycleIntervalTimeMS: 1000,
				PIDs: []PIDSpec{
					{Name: "fan-ctl", Type: "fan", Inputs: []string{"fan1"}, Outputs: []string{"fan1"}, PID: validPID()},
				},
			},
		},
	}

	eng, err := Build(cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, ok := eng.Pushers["fan1"]; ok {
		t.Fatalf("expected no pusher registered for a filesystem-backed sensor")
	}
	if _, ok := eng.Sensors["fan1"]; !ok {
		t.Fatalf("expected sensor fan1 to be wired")
	}
}

func TestBuildWiresExternalTempSensorWithPusher(t *testing.T) {
	cfg := Config{
		Sensors: []SensorSpec{
			{Name: "cpu_temp", Type: "temp"},
			{Name: "fan1", Type: "fan", ReadPath: "/tmp/fan1"},
		},
		Zones: []ZoneSpec{
			{
				ID:                  "z1",
				FailsafePercent:     100,
				CycleIntervalTimeMS: 1000,
				PIDs: []PIDSpec{
					{Name: "temp-ctl", Type: "temp", Inputs: []string{"cpu_temp"}, Setpoint: 60, PID: validPID()},
					{Name: "fan-ctl", Type: "fan", Inputs: []string{"fan1"}, Outputs: []string{"fan1"}, PID: validPID()},
				},
			},
		},
	}

	eng, err := Build(cfg, nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	push, ok := eng.Pushers["cpu_temp"]
	if !ok {
		t.Fatalf("expected a pusher registered for the pathless temp sensor")
	}
	push(55)
	reading, failed, _ := eng.Sensors["cpu_temp"].Poll(context.Background(), time.Now())
	if failed {
		t.Fatalf("expected sensor to be healthy after a push, got failed")
	}
	if reading.Value != 55 {
		t.Fatalf("reading.Value = %v, want 55", reading.Value)
	}
}

func TestBuildRejectsSensorAssignedToTwoZones(t *testing.T) {
	cfg := Config{
		Sensors: []SensorSpec{
			{Name: "shared_temp", Type: "temp"},
		},
		Zones: []ZoneSpec{
			{
				ID: "z1", FailsafePercent: 100, CycleIntervalTimeMS: 1000,
				PIDs: []PIDSpec{{Name: "c1", Type: "temp", Inputs: []string{"shared_temp"}, PID: validPID()}},
			},
			{
				ID: "z2", FailsafePercent: 100, CycleIntervalTimeMS: 1000,
				PIDs: []PIDSpec{{Name: "c2", Type: "temp", Inputs: []string{"shared_temp"}, PID: validPID()}},
			},
		},
	}

	if _, err := Build(cfg, nil, nil); err == nil {
		t.Fatalf("Build() error = nil, want ErrSensorAssignedTwice")
	}
}

func TestBuildRejectsUnknownControllerType(t *testing.T) {
	cfg := Config{
		Sensors: []SensorSpec{{Name: "s1", Type: "temp"}},
		Zones: []ZoneSpec{
			{
				ID: "z1", FailsafePercent: 100, CycleIntervalTimeMS: 1000,
				PIDs: []PIDSpec{{Name: "c1", Type: "bogus", Inputs: []string{"s1"}}},
			},
		},
	}

	if _, err := Build(cfg, nil, nil); err == nil {
		t.Fatalf("Build() error = nil, want ErrUnsupportedControllerType")
	}
}

func TestBuildRejectsZoneWithNoControllers(t *testing.T) {
	cfg := Config{
		Sensors: []SensorSpec{{Name: "s1", Type: "temp"}},
		Zones:   []ZoneSpec{{ID: "z1", FailsafePercent: 100, CycleIntervalTimeMS: 1000}},
	}

	if _, err := Build(cfg, nil, nil); err == nil {
		t.Fatalf("Build() error = nil, want ErrZoneHasNoControllers")
	}
}
