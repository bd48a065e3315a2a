// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func newTestZone(id string) *Zone {
	return NewZone(ZoneConfig{ID: id, FailsafePercent: 100}, slog.Default())
}

func TestZoneInitializeCacheEntersInitFailsafe(t *testing.T) {
	z := newTestZone("z1")
	s := NewSensor(SensorConfig{Name: "cpu_temp", Type: SensorTemp}, &fakeWriteBackend{}, nil, nil)
	if err := z.AddThermalInput(s); err != nil {
		t.Fatalf("AddThermalInput() error = %v", err)
	}

	if z.FailsafeMode() {
		t.Fatalf("zone should not be in failsafe before InitializeCache")
	}
	z.InitializeCache()
	if !z.FailsafeMode() {
		t.Fatalf("zone should be in failsafe immediately after InitializeCache")
	}
	if reason := z.FailsafeSensors()["cpu_temp"]; reason != "init" {
		t.Fatalf("FailsafeSensors()[cpu_temp] = %q, want init", reason)
	}
}

func TestZoneExitsFailsafeAfterHealthyPoll(t *testing.T) {
	z := newTestZone("z1")
	backend, set := NewExternalBackend()
	set(50)
	s := NewSensor(SensorConfig{Name: "cpu_temp", Type: SensorTemp}, backend, nil, nil)
	if err := z.AddThermalInput(s); err != nil {
		t.Fatalf("AddThermalInput() error = %v", err)
	}
	z.InitializeCache()
	if !z.FailsafeMode() {
		t.Fatalf("zone should start in init-failsafe before any poll")
	}

	z.UpdateThermalSensors(context.Background(), time.Now())

	if z.FailsafeMode() {
		t.Fatalf("zone should have exited failsafe after a healthy poll, failsafe set = %v", z.FailsafeSensors())
	}
}

func TestDetermineMaximumSetpointTakesMaxOfSetpointsClampedByCeiling(t *testing.T) {
	z := newTestZone("z1")
	z.AddSetpoint(40)
	z.AddSetpoint(70)
	z.AddCeiling(55)

	got := z.DetermineMaximumSetpoint()
	if got != 55 {
		t.Fatalf("DetermineMaximumSetpoint() = %v, want 55 (clamped by ceiling)", got)
	}
}

func TestDetermineMaximumSetpointFloorsAtMinThermalOutput(t *testing.T) {
	z := NewZone(ZoneConfig{ID: "z1", FailsafePercent: 100, MinThermalOutput: 30}, slog.Default())
	z.AddSetpoint(10)

	got := z.DetermineMaximumSetpoint()
	if got != 30 {
		t.Fatalf("DetermineMaximumSetpoint() = %v, want floor 30", got)
	}
}

func TestDetermineMaximumSetpointWithNoSetpointsIsZeroOrFloor(t *testing.T) {
	z := newTestZone("z1")
	got := z.DetermineMaximumSetpoint()
	if got != 0 {
		t.Fatalf("DetermineMaximumSetpoint() = %v, want 0 with no posted setpoints", got)
	}
}

func TestZoneManualModeToggle(t *testing.T) {
	z := newTestZone("z1")
	if z.ManualMode() {
		t.Fatalf("zone should not start in manual mode")
	}
	z.SetManualMode(true)
	if !z.ManualMode() {
		t.Fatalf("zone should report manual mode after SetManualMode(true)")
	}
	z.SetManualMode(false)
	if z.ManualMode() {
		t.Fatalf("zone should report automatic mode after SetManualMode(false)")
	}
}

func TestAddThermalInputRejectsDuplicateName(t *testing.T) {
	z := newTestZone("z1")
	s1 := NewSensor(SensorConfig{Name: "dup", Type: SensorTemp}, &fakeWriteBackend{}, nil, nil)
	s2 := NewSensor(SensorConfig{Name: "dup", Type: SensorTemp}, &fakeWriteBackend{}, nil, nil)

	if err := z.AddThermalInput(s1); err != nil {
		t.Fatalf("first AddThermalInput() error = %v", err)
	}
	if err := z.AddThermalInput(s2); !errors.Is(err, ErrSensorAssignedTwice) {
		t.Fatalf("second AddThermalInput() error = %v, want ErrSensorAssignedTwice", err)
	}
}
