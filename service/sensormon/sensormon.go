// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/u-bmc/thermalctl/pkg/ipc"
	"github.com/u-bmc/thermalctl/pkg/log"
	"github.com/u-bmc/thermalctl/pkg/telemetry"
	"github.com/u-bmc/thermalctl/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ service.Service = (*SensorMon)(nil)

// reading is the last observed value for a discovered sensor.
type reading struct {
	raw int
	at  time.Time
}

// SensorMon discovers temperature and fan sensors on the local hwmon tree,
// polls them on a fixed interval, and bridges their readings to thermalmgr:
// every reading is pushed over ipc.InternalSensorPush so a matching
// pathless sensor in thermalmgr's TOML document picks it up, and
// temperature readings crossing a configured threshold are additionally
// published as a JSON alert for operators correlating external sensor state.
type SensorMon struct {
	config *config
	nc     *nats.Conn

	microService micro.Service

	mu       sync.RWMutex
	sensors  []sensor
	readings map[string]reading

	logger *slog.Logger
	tracer trace.Tracer
	cancel context.CancelFunc

	wg      sync.WaitGroup
	started bool
}

// New creates a new SensorMon instance with the provided options.
func New(opts ...Option) *SensorMon {
	cfg := &config{
		serviceName:         DefaultServiceName,
		serviceDescription:  DefaultServiceDescription,
		serviceVersion:      DefaultServiceVersion,
		hwmonPath:           DefaultHwmonPath,
		monitoringInterval:  DefaultMonitoringInterval,
		warningTempCelsius:  DefaultWarningTempCelsius,
		criticalTempCelsius: DefaultCriticalTempCelsius,
		alertSubjectPrefix:  DefaultAlertSubjectPrefix,
	}

	for _, opt := range opts {
		opt.apply(cfg)
	}

	return &SensorMon{config: cfg, readings: make(map[string]reading)}
}

// Name returns the service name.
func (s *SensorMon) Name() string {
	return s.config.serviceName
}

// Run starts the sensor monitoring service: it discovers hwmon sensors,
// registers NATS IPC endpoints, and polls the discovered sensors until ctx
// is canceled.
func (s *SensorMon) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.tracer = otel.Tracer(s.config.serviceName)

	ctx, span := s.tracer.Start(ctx, "sensormon.Run")
	defer span.End()

	s.logger = log.GetGlobalLogger().With("service", s.config.serviceName)

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "starting sensor monitoring service",
		"version", s.config.serviceVersion,
		"hwmon_path", s.config.hwmonPath)

	if err := s.config.Validate(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck

	sensors, err := discoverSensors(ctx, s.config.hwmonPath)
	if err != nil {
		s.logger.WarnContext(ctx, "sensor discovery failed, continuing with no sensors", "error", err)
	}
	s.mu.Lock()
	s.sensors = sensors
	s.mu.Unlock()

	s.microService, err = micro.AddService(nc, micro.Config{
		Name:        s.config.serviceName,
		Description: s.config.serviceDescription,
		Version:     s.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrMicroServiceCreationFailed, err)
	}

	if err := s.registerEndpoints(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.pollLoop(ctx)
	}()

	s.logger.InfoContext(ctx, "sensor monitoring service started successfully",
		"sensors", len(sensors))

	span.SetAttributes(
		attribute.String("service.name", s.config.serviceName),
		attribute.String("service.version", s.config.serviceVersion),
		attribute.Int("sensors.count", len(sensors)),
	)

	<-ctx.Done()

	err = ctx.Err()
	shutdownCtx := context.WithoutCancel(ctx)
	s.logger.InfoContext(shutdownCtx, "shutting down sensor monitoring service")
	s.shutdown()

	return err
}

// pollLoop reads every discovered sensor on a fixed interval, pushes its raw
// value to thermalmgr, and publishes threshold alerts for temperature
// sensors that cross the configured warning/critical Celsius thresholds.
func (s *SensorMon) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.monitoringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *SensorMon) pollOnce(ctx context.Context) {
	s.mu.RLock()
	sensors := s.sensors
	s.mu.RUnlock()

	for _, sn := range sensors {
		raw, err := readRaw(ctx, sn)
		if err != nil {
			s.logger.WarnContext(ctx, "sensor read failed", "sensor", sn.name, "error", err)
			continue
		}

		s.mu.Lock()
		s.readings[sn.name] = reading{raw: raw, at: time.Now()}
		s.mu.Unlock()

		if err := s.nc.Publish(ipc.InternalSensorPush+"."+sn.name, []byte(formatRaw(raw))); err != nil {
			s.logger.WarnContext(ctx, "failed to push sensor reading", "sensor", sn.name, "error", err)
		}

		if sn.kind == sensorKindTemp {
			s.checkTempThreshold(ctx, sn, raw)
		}
	}
}

func (s *SensorMon) checkTempThreshold(ctx context.Context, sn sensor, raw int) {
	value := celsius(raw)

	var severity string
	switch {
	case value >= s.config.criticalTempCelsius:
		severity = SeverityCritical
	case value >= s.config.warningTempCelsius:
		severity = SeverityWarning
	default:
		return
	}

	alert := thermalAlertPayload{
		SensorID:   sn.name,
		SensorName: sn.name,
		Value:      value,
		Severity:   severity,
		Message:    fmt.Sprintf("%s reading %.1f°C crossed %s threshold", sn.name, value, severity),
	}

	data, err := json.Marshal(alert)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal thermal alert", "error", err)
		return
	}

	subject := s.config.alertSubjectPrefix + "." + severity
	if err := s.nc.Publish(subject, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish thermal alert", "subject", subject, "error", err)
	}
}

// thermalAlertPayload mirrors thermalmgr.ThermalAlert's JSON shape; the two
// packages don't share a type to avoid a needless cross-service dependency
// for a five-field message.
type thermalAlertPayload struct {
	SensorID   string  `json:"sensor_id"`
	SensorName string  `json:"sensor_name"`
	Value      float64 `json:"value"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
}

func (s *SensorMon) createRequestHandler(parentCtx context.Context, handler func(context.Context, micro.Request)) micro.HandlerFunc {
	return func(req micro.Request) {
		ctx := telemetry.GetCtxFromReq(req)
		ctx = context.WithoutCancel(ctx)

		if parentCtx != nil {
			select {
			case <-parentCtx.Done():
				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				cancel()
			default:
			}
		}

		if s.tracer != nil {
			_, span := s.tracer.Start(ctx, "sensormon.handleRequest")
			span.SetAttributes(
				attribute.String("subject", req.Subject()),
				attribute.String("service", s.config.serviceName),
			)
			defer span.End()
		}

		handler(ctx, req) //nolint:contextcheck
	}
}

func (s *SensorMon) shutdown() {
	s.mu.Lock()
	cancel := s.cancel
	s.started = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
