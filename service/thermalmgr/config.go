// SPDX-License-Identifier: BSD-3-Clause

package thermalmgr

import (
	"fmt"
	"time"
)

const (
	DefaultServiceName        = "thermalmgr"
	DefaultServiceDescription = "Closed-loop thermal and fan control service for BMC platforms"
	DefaultServiceVersion     = "1.0.0"
	DefaultConfigPath         = "/etc/thermal.d/thermal.toml"
	DefaultCheckFanFailures   = 10
)

type config struct {
	serviceName         string
	serviceDescription  string
	serviceVersion      string
	configPath          string
	diagLogDir          string
	checkFanFailures    int
	hostOffCheck        func() bool
	persistDiagnostics  bool
	streamName          string
	streamSubjects      []string
	streamRetention     time.Duration
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

type configPathOption struct{ path string }

func (o *configPathOption) apply(c *config) { c.configPath = o.path }

// WithConfigPath sets the TOML document describing sensors, zones, and
// controllers that Build consumes at startup and reload.
func WithConfigPath(path string) Option { return &configPathOption{path: path} }

type diagLogDirOption struct{ dir string }

func (o *diagLogDirOption) apply(c *config) { c.diagLogDir = o.dir }

// WithDiagnosticLogDir enables the per-zone CSV diagnostic trace log,
// rooted at dir.
func WithDiagnosticLogDir(dir string) Option { return &diagLogDirOption{dir: dir} }

type checkFanFailuresOption struct{ cycles int }

func (o *checkFanFailuresOption) apply(c *config) { c.checkFanFailures = o.cycles }

// WithCheckFanFailuresCycles sets how many loop ticks elapse between the
// loop's redundant fan-staleness recheck; 0 disables it.
func WithCheckFanFailuresCycles(cycles int) Option {
	return &checkFanFailuresOption{cycles: cycles}
}

type hostOffCheckOption struct{ fn func() bool }

func (o *hostOffCheckOption) apply(c *config) { c.hostOffCheck = o.fn }

// WithHostOffCheck supplies the predicate backing ignore_fail_if_host_off.
func WithHostOffCheck(fn func() bool) Option { return &hostOffCheckOption{fn: fn} }

type persistDiagnosticsOption struct {
	enabled    bool
	streamName string
	subjects   []string
	retention  time.Duration
}

func (o *persistDiagnosticsOption) apply(c *config) {
	c.persistDiagnostics = o.enabled
	c.streamName = o.streamName
	c.streamSubjects = o.subjects
	c.streamRetention = o.retention
}

// WithJetStreamPersistence makes Run create (or update) a file-backed
// JetStream stream with the given name, subjects, and maximum message age.
// The service only sets the stream up; it publishes no diagnostic output to
// it, and the on-disk CSV log is unaffected.
func WithJetStreamPersistence(streamName string, subjects []string, retention time.Duration) Option {
	return &persistDiagnosticsOption{enabled: true, streamName: streamName, subjects: subjects, retention: retention}
}

func (c *config) Validate() error {
	if c.serviceName == "" {
		return fmt.Errorf("%w: service name cannot be empty", ErrInvalidConfiguration)
	}
	if c.configPath == "" {
		return fmt.Errorf("%w: config path cannot be empty", ErrInvalidConfiguration)
	}
	if c.persistDiagnostics {
		if c.streamName == "" {
			return fmt.Errorf("%w: stream name cannot be empty when persistence is enabled", ErrInvalidConfiguration)
		}
		if len(c.streamSubjects) == 0 {
			return fmt.Errorf("%w: at least one stream subject required when persistence is enabled", ErrInvalidConfiguration)
		}
		if c.streamRetention <= 0 {
			return fmt.Errorf("%w: stream retention must be positive when persistence is enabled", ErrInvalidConfiguration)
		}
	}
	return nil
}
