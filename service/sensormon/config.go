// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"fmt"
	"time"

	"github.com/u-bmc/thermalctl/pkg/hwmon"
)

const (
	DefaultServiceName         = "sensormon"
	DefaultServiceDescription  = "Hwmon temperature and fan sensor bridge for thermalmgr"
	DefaultServiceVersion      = "1.0.0"
	DefaultHwmonPath           = hwmon.DefaultHwmonPath
	DefaultMonitoringInterval  = 2 * time.Second
	DefaultWarningTempCelsius  = 75.0
	DefaultCriticalTempCelsius = 85.0
	DefaultAlertSubjectPrefix  = "thermalmgr.alerts"
	SeverityWarning            = "warning"
	SeverityCritical           = "critical"
)

type config struct {
	serviceName         string
	serviceDescription  string
	serviceVersion      string
	hwmonPath           string
	monitoringInterval  time.Duration
	warningTempCelsius  float64
	criticalTempCelsius float64
	alertSubjectPrefix  string
}

type Option interface {
	apply(*config)
}

type serviceNameOption struct{ name string }

func (o *serviceNameOption) apply(c *config) { c.serviceName = o.name }

// WithServiceName overrides the registered NATS micro service name.
func WithServiceName(name string) Option { return &serviceNameOption{name: name} }

type serviceDescriptionOption struct{ description string }

func (o *serviceDescriptionOption) apply(c *config) { c.serviceDescription = o.description }

func WithServiceDescription(description string) Option {
	return &serviceDescriptionOption{description: description}
}

type serviceVersionOption struct{ version string }

func (o *serviceVersionOption) apply(c *config) { c.serviceVersion = o.version }

func WithServiceVersion(version string) Option { return &serviceVersionOption{version: version} }

type hwmonPathOption struct{ path string }

func (o *hwmonPathOption) apply(c *config) { c.hwmonPath = o.path }

// WithHwmonPath overrides the sysfs root sensor discovery walks, primarily
// for pointing at a fake hwmon tree in tests or local development.
func WithHwmonPath(path string) Option { return &hwmonPathOption{path: path} }

type monitoringIntervalOption struct{ interval time.Duration }

func (o *monitoringIntervalOption) apply(c *config) { c.monitoringInterval = o.interval }

// WithMonitoringInterval sets how often discovered sensors are polled and
// pushed to thermalmgr.
func WithMonitoringInterval(interval time.Duration) Option {
	return &monitoringIntervalOption{interval: interval}
}

type temperatureThresholdsOption struct {
	warning, critical float64
}

func (o *temperatureThresholdsOption) apply(c *config) {
	c.warningTempCelsius = o.warning
	c.criticalTempCelsius = o.critical
}

// WithTemperatureThresholds sets the Celsius thresholds above which a
// discovered temperature sensor's reading is published as a warning or
// critical alert on the configured alert subject prefix. These thresholds
// are independent of any failsafe thresholds thermalmgr's own zones track.
func WithTemperatureThresholds(warning, critical float64) Option {
	return &temperatureThresholdsOption{warning: warning, critical: critical}
}

type alertSubjectPrefixOption struct{ prefix string }

func (o *alertSubjectPrefixOption) apply(c *config) { c.alertSubjectPrefix = o.prefix }

// WithAlertSubjectPrefix overrides the subject prefix threshold alerts are
// published under; the severity is appended as the final token (e.g.
// "thermalmgr.alerts.warning").
func WithAlertSubjectPrefix(prefix string) Option {
	return &alertSubjectPrefixOption{prefix: prefix}
}

func (c *config) Validate() error {
	if c.serviceName == "" {
		return fmt.Errorf("%w: service name cannot be empty", ErrInvalidConfiguration)
	}
	if c.hwmonPath == "" {
		return fmt.Errorf("%w: hwmon path cannot be empty", ErrInvalidConfiguration)
	}
	if c.monitoringInterval <= 0 {
		return fmt.Errorf("%w: monitoring interval must be positive", ErrInvalidConfiguration)
	}
	if c.criticalTempCelsius < c.warningTempCelsius {
		return fmt.Errorf("%w: critical threshold must be >= warning threshold", ErrInvalidConfiguration)
	}
	if c.alertSubjectPrefix == "" {
		return fmt.Errorf("%w: alert subject prefix cannot be empty", ErrInvalidConfiguration)
	}
	return nil
}
