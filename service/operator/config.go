// SPDX-License-Identifier: BSD-3-Clause

package operator

import (
	"log/slog"
	"time"

	"github.com/u-bmc/thermalctl/service"
	"github.com/u-bmc/thermalctl/service/ipc"
	"github.com/u-bmc/thermalctl/service/sensormon"
	"github.com/u-bmc/thermalctl/service/telemetry"
	"github.com/u-bmc/thermalctl/service/thermalmgr"
)

type config struct {
	name        string
	id          string
	disableLogo bool
	customLogo  string
	otelSetup   func()
	logger      *slog.Logger
	timeout     time.Duration
	// IPC service needs special handling
	ipc *ipc.IPC
	// Everything of type service.Service needs to be exported
	Sensormon  service.Service
	Telemetry  service.Service
	Thermalmgr service.Service

	extraServices []service.Service
}

type Option interface {
	apply(*config)
}

type nameOption struct {
	name string
}

func (o *nameOption) apply(c *config) {
	c.name = o.name
}

// WithName sets the name for the operator configuration.
func WithName(name string) Option {
	return &nameOption{
		name: name,
	}
}

type idOption struct {
	id string
}

func (o *idOption) apply(c *config) {
	c.id = o.id
}

// WithID sets the unique identifier for the operator configuration.
func WithID(id string) Option {
	return &idOption{
		id: id,
	}
}

type disableLogoOption struct {
	disableLogo bool
}

func (o *disableLogoOption) apply(c *config) {
	c.disableLogo = o.disableLogo
}

// WithDisableLogo controls whether the logo display is disabled.
// When set to true, the logo will not be shown during startup.
func WithDisableLogo(disableLogo bool) Option {
	return &disableLogoOption{
		disableLogo: disableLogo,
	}
}

type customLogoOption struct {
	customLogo string
}

func (o *customLogoOption) apply(c *config) {
	c.customLogo = o.customLogo
}

// WithCustomLogo sets a custom logo to be displayed instead of the default logo.
// The customLogo parameter should be the path to the logo file or logo content.
func WithCustomLogo(customLogo string) Option {
	return &customLogoOption{
		customLogo: customLogo,
	}
}

type otelSetupOption struct {
	otelSetup func()
}

func (o *otelSetupOption) apply(c *config) {
	c.otelSetup = o.otelSetup
}

// WithOtelSetup sets up OpenTelemetry configuration by providing a setup function.
// The function will be called during operator initialization to configure telemetry.
func WithOtelSetup(otelSetup func()) Option {
	return &otelSetupOption{
		otelSetup: otelSetup,
	}
}

type loggerOption struct {
	logger *slog.Logger
}

func (o *loggerOption) apply(c *config) {
	c.logger = o.logger
}

// WithLogger sets a custom structured logger for the operator.
// If not provided, a default logger will be used.
func WithLogger(logger *slog.Logger) Option {
	return &loggerOption{
		logger: logger,
	}
}

type timeoutOption struct {
	timeout time.Duration
}

func (o *timeoutOption) apply(c *config) {
	c.timeout = o.timeout
}

// WithTimeout sets the timeout duration for operator operations.
// This controls how long the operator will wait for operations to complete.
func WithTimeout(timeout time.Duration) Option {
	return &timeoutOption{
		timeout: timeout,
	}
}

type ipcOption struct {
	ipc *ipc.IPC
}

func (o *ipcOption) apply(c *config) {
	c.ipc = o.ipc
}

// WithIPC configures the Inter-Process Communication service with the provided options.
// This service handles communication between different BMC processes.
func WithIPC(opts ...ipc.Option) Option {
	return &ipcOption{
		ipc: ipc.New(opts...),
	}
}

type telemetryOption struct {
	telemetry service.Service
}

func (o *telemetryOption) apply(c *config) {
	c.Telemetry = o.telemetry
}

// WithTelemetry configures the telemetry service with the provided options.
// This service collects and reports metrics and observability data.
func WithTelemetry(opts ...telemetry.Option) Option {
	return &telemetryOption{
		telemetry: telemetry.New(opts...),
	}
}

type sensormonOption struct {
	sensormon service.Service
}

func (o *sensormonOption) apply(c *config) {
	c.Sensormon = o.sensormon
}

// WithSensormon configures the sensor monitoring service with the provided options.
// This service monitors hwmon temperature and fan sensors and bridges them to thermalmgr.
func WithSensormon(opts ...sensormon.Option) Option {
	return &sensormonOption{
		sensormon: sensormon.New(opts...),
	}
}

type thermalmgrOption struct {
	thermalmgr service.Service
}

func (o *thermalmgrOption) apply(c *config) {
	c.Thermalmgr = o.thermalmgr
}

// WithThermalmgr configures the thermal manager service with the provided options.
// This service manages system cooling and thermal protection policies.
func WithThermalmgr(opts ...thermalmgr.Option) Option {
	return &thermalmgrOption{
		thermalmgr: thermalmgr.New(opts...),
	}
}

type servicesOption struct {
	services []service.Service
}

func (o *servicesOption) apply(c *config) {
	c.extraServices = o.services
}

// WithExtraServices adds additional custom services to the operator configuration.
// These services will be managed alongside the standard BMC services.
func WithExtraServices(services ...service.Service) Option {
	return &servicesOption{
		services: services,
	}
}
