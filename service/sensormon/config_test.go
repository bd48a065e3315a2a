// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import "testing"

func newConfigFromOptions(opts ...Option) *config {
	c := &config{
		serviceName:         DefaultServiceName,
		hwmonPath:           DefaultHwmonPath,
		monitoringInterval:  DefaultMonitoringInterval,
		warningTempCelsius:  DefaultWarningTempCelsius,
		criticalTempCelsius: DefaultCriticalTempCelsius,
		alertSubjectPrefix:  DefaultAlertSubjectPrefix,
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

func TestConfigValidateDefaults(t *testing.T) {
	c := newConfigFromOptions()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestConfigValidateRejectsEmptyServiceName(t *testing.T) {
	c := newConfigFromOptions()
	c.serviceName = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() error = nil, want error for empty service name")
	}
}

func TestConfigValidateRejectsEmptyHwmonPath(t *testing.T) {
	c := newConfigFromOptions(WithHwmonPath(""))
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() error = nil, want error for empty hwmon path")
	}
}

func TestConfigValidateRejectsNonPositiveInterval(t *testing.T) {
	c := newConfigFromOptions(WithMonitoringInterval(0))
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() error = nil, want error for non-positive interval")
	}
}

func TestConfigValidateRejectsCriticalBelowWarning(t *testing.T) {
	c := newConfigFromOptions(WithTemperatureThresholds(80, 70))
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() error = nil, want error when critical < warning")
	}
}

func TestWithTemperatureThresholdsOverridesDefaults(t *testing.T) {
	c := newConfigFromOptions(WithTemperatureThresholds(60, 70))
	if c.warningTempCelsius != 60 || c.criticalTempCelsius != 70 {
		t.Fatalf("thresholds = (%v, %v), want (60, 70)", c.warningTempCelsius, c.criticalTempCelsius)
	}
}
