// SPDX-License-Identifier: BSD-3-Clause

// Command mock runs the thermal control stack against a synthetic hwmon
// tree for local development and testing. It does not require any real
// hardware: fan tach/PWM files live under /run/thermalctl-mock/hwmon and are
// expected to be created by the test harness before startup, and the
// pushed temp/power sensors declared in thermal.toml (cpu0_temp, cpu1_temp,
// dimm_temp, system_power) are expected to be fed by publishing their raw
// readings on "internal.sensor.push.<name>" over the operator's IPC
// connection, exactly as a real sensormon instance would.
package main

import (
	"context"
	"time"

	"github.com/u-bmc/thermalctl/service/operator"
	"github.com/u-bmc/thermalctl/service/sensormon"
	"github.com/u-bmc/thermalctl/service/thermalmgr"
)

func main() {
	// Sensor monitor walks the mock hwmon tree for fan tach readings; the
	// pushed temp/power sensors in thermal.toml are fed externally, not
	// discovered here.
	sensorConfig := []sensormon.Option{
		sensormon.WithServiceName("mock-sensormon"),
		sensormon.WithServiceDescription("Mock Sensor Monitoring Service"),
		sensormon.WithHwmonPath("/run/thermalctl-mock/hwmon"),
		sensormon.WithMonitoringInterval(1 * time.Second),
		sensormon.WithAlertSubjectPrefix("mock.thermalmgr.alerts"),
	}

	thermalConfig := []thermalmgr.Option{
		thermalmgr.WithServiceName("mock-thermalmgr"),
		thermalmgr.WithServiceDescription("Mock Thermal Management Service"),
		thermalmgr.WithConfigPath("/etc/thermal.d/mock/thermal.toml"),
		thermalmgr.WithDiagnosticLogDir("/var/log/thermalmgr/mock"),
		thermalmgr.WithCheckFanFailuresCycles(5),
	}

	if err := operator.New(
		operator.WithName("mock-operator"),
		operator.WithSensormon(sensorConfig...),
		operator.WithThermalmgr(thermalConfig...),
	).Run(context.Background(), nil); err != nil {
		panic(err)
	}
}
