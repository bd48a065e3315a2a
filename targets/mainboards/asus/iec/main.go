// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/u-bmc/thermalctl/service/operator"
	"github.com/u-bmc/thermalctl/service/sensormon"
	"github.com/u-bmc/thermalctl/service/thermalmgr"
)

func main() {
	// The device has only 512MB of RAM; limit memory usage to 256MB
	debug.SetMemoryLimit(256 * 1024 * 1024)

	// Configure sensor monitoring for AST2600 IPMI expansion card
	// TODO: Verify hwmon path for AST2600 sensors
	// TODO: Confirm thresholds against actual hardware specifications
	sensorConfig := []sensormon.Option{
		sensormon.WithServiceName("asus-sensormon"),
		sensormon.WithServiceDescription("ASUS IPMI Card Sensor Monitoring Service"),
		sensormon.WithHwmonPath("/sys/class/hwmon"), // TODO: Verify AST2600 hwmon path
		sensormon.WithMonitoringInterval(2 * time.Second),
		sensormon.WithTemperatureThresholds(75.0, 85.0), // TODO: Set proper thresholds for this hardware
		sensormon.WithAlertSubjectPrefix("asus.thermalmgr.alerts"),
	}

	// Configure thermal management for the AST2600 IPMI expansion card's fan
	// and temperature sensors. Sensors, zones, and PID/stepwise controllers
	// are declared in thermal.toml alongside this entrypoint.
	thermalConfig := []thermalmgr.Option{
		thermalmgr.WithServiceName("asus-thermalmgr"),
		thermalmgr.WithServiceDescription("ASUS IPMI Card Thermal Management Service"),
		thermalmgr.WithConfigPath("/etc/thermal.d/asus-iec/thermal.toml"),
		thermalmgr.WithDiagnosticLogDir("/var/log/thermalmgr/asus-iec"),
		thermalmgr.WithCheckFanFailuresCycles(10),
		thermalmgr.WithJetStreamPersistence("ASUS_THERMALMGR", []string{"asus.thermalmgr.diag.>"}, 72*time.Hour),
	}

	if err := operator.New(
		operator.WithName("asus-ipmi-expansion-card-operator"),
		operator.WithSensormon(sensorConfig...),
		operator.WithThermalmgr(thermalConfig...),
	).Run(context.Background(), nil); err != nil {
		panic(err)
	}
}
