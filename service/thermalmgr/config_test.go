// SPDX-License-Identifier: BSD-3-Clause

package thermalmgr

import (
	"testing"
	"time"
)

func newConfigFromOptions(opts ...Option) *config {
	c := &config{
		serviceName:      DefaultServiceName,
		configPath:       DefaultConfigPath,
		checkFanFailures: DefaultCheckFanFailures,
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

func TestConfigValidateRejectsEmptyConfigPath(t *testing.T) {
	c := newConfigFromOptions(WithConfigPath(""))
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() error = nil, want error for empty config path")
	}
}

func TestWithJetStreamPersistenceRequiresStreamNameAndSubjects(t *testing.T) {
	cases := []struct {
		name    string
		opt     Option
		wantErr bool
	}{
		{
			name:    "missing stream name",
			opt:     WithJetStreamPersistence("", []string{"thermalmgr.diag.>"}, time.Hour),
			wantErr: true,
		},
		{
			name:    "missing subjects",
			opt:     WithJetStreamPersistence("THERMALMGR", nil, time.Hour),
			wantErr: true,
		},
		{
			name:    "non-positive retention",
			opt:     WithJetStreamPersistence("THERMALMGR", []string{"thermalmgr.diag.>"}, 0),
			wantErr: true,
		},
		{
			name:    "valid",
			opt:     WithJetStreamPersistence("THERMALMGR", []string{"thermalmgr.diag.>"}, time.Hour),
			wantErr: false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := newConfigFromOptions(c.opt)
			err := cfg.Validate()
			if c.wantErr && err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestWithCheckFanFailuresCyclesOverridesDefault(t *testing.T) {
	c := newConfigFromOptions(WithCheckFanFailuresCycles(5))
	if c.checkFanFailures != 5 {
		t.Fatalf("checkFanFailures = %d, want 5", c.checkFanFailures)
	}
}

func TestWithHostOffCheckIsStored(t *testing.T) {
	called := false
	c := newConfigFromOptions(WithHostOffCheck(func() bool {
		called = true
		return true
	}))
	if c.hostOffCheck == nil {
		t.Fatalf("hostOffCheck not stored")
	}
	if !c.hostOffCheck() || !called {
		t.Fatalf("stored hostOffCheck was not the provided function")
	}
}
