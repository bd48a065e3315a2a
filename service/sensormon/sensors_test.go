// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTrimInputSuffix(t *testing.T) {
	cases := map[string]string{
		"temp1_input": "temp1",
		"fan2_input":  "fan2",
		"name":        "name",
	}
	for in, want := range cases {
		if got := trimInputSuffix(in); got != want {
			t.Fatalf("trimInputSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCelsiusConvertsMillidegrees(t *testing.T) {
	if got := celsius(55000); got != 55.0 {
		t.Fatalf("celsius(55000) = %v, want 55.0", got)
	}
}

func TestDiscoverSensorsFindsTempAndFanAttributes(t *testing.T) {
	root := t.TempDir()
	device := filepath.Join(root, "hwmon0")
	if err := os.MkdirAll(device, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(device, "name"), []byte("k10temp"), 0o644); err != nil {
		t.Fatalf("WriteFile(name) error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(device, "temp1_input"), []byte("45000"), 0o644); err != nil {
		t.Fatalf("WriteFile(temp1_input) error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(device, "fan1_input"), []byte("1200"), 0o644); err != nil {
		t.Fatalf("WriteFile(fan1_input) error = %v", err)
	}
	// Non-sensor attribute files should be ignored.
	if err := os.WriteFile(filepath.Join(device, "in0_input"), []byte("12000"), 0o644); err != nil {
		t.Fatalf("WriteFile(in0_input) error = %v", err)
	}

	sensors, err := discoverSensors(context.Background(), root)
	if err != nil {
		t.Fatalf("discoverSensors() error = %v", err)
	}
	if len(sensors) != 2 {
		t.Fatalf("len(sensors) = %d, want 2", len(sensors))
	}

	byName := make(map[string]sensor, len(sensors))
	for _, s := range sensors {
		byName[s.name] = s
	}

	temp, ok := byName["k10temp_temp1"]
	if !ok || temp.kind != sensorKindTemp {
		t.Fatalf("expected k10temp_temp1 temp sensor, got %+v", byName)
	}
	fan, ok := byName["k10temp_fan1"]
	if !ok || fan.kind != sensorKindFan {
		t.Fatalf("expected k10temp_fan1 fan sensor, got %+v", byName)
	}

	raw, err := readRaw(context.Background(), temp)
	if err != nil {
		t.Fatalf("readRaw() error = %v", err)
	}
	if raw != 45000 {
		t.Fatalf("readRaw() = %d, want 45000", raw)
	}
}
