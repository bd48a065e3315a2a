// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/u-bmc/thermalctl/pkg/hwmon"
)

// sensorKind distinguishes how a discovered hwmon attribute's raw value is
// interpreted and whether it participates in threshold alerting.
type sensorKind string

const (
	sensorKindTemp sensorKind = "temp"
	sensorKindFan  sensorKind = "fan"
)

// sensor is a single discovered hwmon attribute file: a millidegree-Celsius
// temp*_input or an RPM fan*_input, named after its owning device.
type sensor struct {
	name string
	kind sensorKind
	path string
}

var (
	tempAttrPattern = regexp.MustCompile(`^temp(\d+)_input$`)
	fanAttrPattern  = regexp.MustCompile(`^fan(\d+)_input$`)
)

// discoverSensors walks every hwmon device directory under hwmonPath and
// returns one sensor per temp*_input and fan*_input attribute it finds. The
// sensor name is "<device-name-or-hwmonN>_<attribute>" so readings pushed to
// thermalmgr resolve unambiguously against the TOML document's sensor names.
func discoverSensors(ctx context.Context, hwmonPath string) ([]sensor, error) {
	devices, err := hwmon.ListDevicesInPathCtx(ctx, hwmonPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSensorDiscoveryFailed, err)
	}

	var sensors []sensor
	for _, device := range devices {
		deviceName := filepath.Base(device)
		if name, err := hwmon.ReadStringCtx(ctx, filepath.Join(device, "name")); err == nil && name != "" {
			deviceName = name
		}

		attrs, err := hwmon.ListAttributesCtx(ctx, device, "")
		if err != nil {
			continue
		}

		for _, attr := range attrs {
			switch {
			case tempAttrPattern.MatchString(attr):
				sensors = append(sensors, sensor{
					name: fmt.Sprintf("%s_%s", deviceName, trimInputSuffix(attr)),
					kind: sensorKindTemp,
					path: filepath.Join(device, attr),
				})
			case fanAttrPattern.MatchString(attr):
				sensors = append(sensors, sensor{
					name: fmt.Sprintf("%s_%s", deviceName, trimInputSuffix(attr)),
					kind: sensorKindFan,
					path: filepath.Join(device, attr),
				})
			}
		}
	}

	return sensors, nil
}

func trimInputSuffix(attr string) string {
	const suffix = "_input"
	if len(attr) > len(suffix) && attr[len(attr)-len(suffix):] == suffix {
		return attr[:len(attr)-len(suffix)]
	}
	return attr
}

// readRaw reads the sensor's current raw integer value: millidegree Celsius
// for a temp sensor, RPM for a fan sensor.
func readRaw(ctx context.Context, s sensor) (int, error) {
	return hwmon.ReadIntCtx(ctx, s.path)
}

// celsius converts a temp sensor's raw millidegree reading to Celsius.
func celsius(raw int) float64 {
	return float64(raw) / 1000.0
}

func formatRaw(raw int) string {
	return strconv.Itoa(raw)
}
