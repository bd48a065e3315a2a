// SPDX-License-Identifier: BSD-3-Clause

package thermalmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nats.go/micro"
	"github.com/u-bmc/thermalctl/pkg/ipc"
	"github.com/u-bmc/thermalctl/pkg/log"
	"github.com/u-bmc/thermalctl/pkg/telemetry"
	"github.com/u-bmc/thermalctl/pkg/thermal"
	"github.com/u-bmc/thermalctl/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ service.Service = (*ThermalMgr)(nil)

// ThermalMgr is the BMC's closed-loop thermal and fan control daemon. It
// loads a TOML document describing sensors, zones, and controllers, builds
// the runtime (pkg/thermal.Engine) from it, runs one periodic control loop
// goroutine per zone, and exposes read/control IPC endpoints over NATS.
type ThermalMgr struct {
	config *config
	nc     *nats.Conn
	js     jetstream.JetStream

	microService micro.Service

	mu     sync.RWMutex
	engine *thermal.Engine

	logger  *slog.Logger
	tracer  trace.Tracer
	rootCtx context.Context
	cancel  context.CancelFunc

	wg      sync.WaitGroup
	started bool
}

// New creates a new ThermalMgr instance with the provided options.
func New(opts ...Option) *ThermalMgr {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		configPath:         DefaultConfigPath,
		checkFanFailures:   DefaultCheckFanFailures,
	}

	for _, opt := range opts {
		opt.apply(cfg)
	}

	return &ThermalMgr{config: cfg}
}

// Name returns the service name.
func (t *ThermalMgr) Name() string {
	return t.config.serviceName
}

// Run starts the thermal manager service, builds the control-loop runtime
// from its configured TOML document, and registers NATS IPC endpoints. It
// blocks until ctx is canceled.
func (t *ThermalMgr) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	t.tracer = otel.Tracer(t.config.serviceName)

	ctx, span := t.tracer.Start(ctx, "thermalmgr.Run")
	defer span.End()

	t.logger = log.GetGlobalLogger().With("service", t.config.serviceName)

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrServiceAlreadyStarted
	}
	t.started = true
	t.rootCtx = ctx
	var zoneCtx context.Context
	zoneCtx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "starting thermal manager service",
		"version", t.config.serviceVersion,
		"config_path", t.config.configPath)

	if err := t.config.Validate(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	t.nc = nc
	defer nc.Drain() //nolint:errcheck

	if t.config.persistDiagnostics {
		t.js, err = jetstream.New(nc)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("%w: %w", ErrJetStreamInitFailed, err)
		}
		if err := t.setupJetStream(ctx); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := t.loadAndStart(zoneCtx); err != nil {
		span.RecordError(err)
		return err
	}

	t.microService, err = micro.AddService(nc, micro.Config{
		Name:        t.config.serviceName,
		Description: t.config.serviceDescription,
		Version:     t.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrMicroServiceCreationFailed, err)
	}

	if err := t.registerEndpoints(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	sensorSub, err := nc.Subscribe(ipc.InternalSensorPush+".*", t.handleSensorPush)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}
	defer sensorSub.Unsubscribe() //nolint:errcheck

	alertSub, err := nc.Subscribe("thermalmgr.alerts.>", t.handleThermalAlert)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}
	defer alertSub.Unsubscribe() //nolint:errcheck

	t.mu.RLock()
	zoneCount := len(t.engine.Zones)
	t.mu.RUnlock()

	t.logger.InfoContext(ctx, "thermal manager service started successfully",
		"zones", zoneCount)

	span.SetAttributes(
		attribute.String("service.name", t.config.serviceName),
		attribute.String("service.version", t.config.serviceVersion),
		attribute.Int("zones.count", zoneCount),
	)

	<-ctx.Done()

	err = ctx.Err()
	shutdownCtx := context.WithoutCancel(ctx)
	t.logger.InfoContext(shutdownCtx, "shutting down thermal manager service")
	t.shutdown()

	return err
}

func (t *ThermalMgr) setupJetStream(ctx context.Context) error {
	streamConfig := jetstream.StreamConfig{
		Name:        t.config.streamName,
		Description: "Thermal manager diagnostic stream",
		Subjects:    t.config.streamSubjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      t.config.streamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		MaxMsgs:     -1,
		MaxBytes:    -1,
	}

	stream, err := t.js.CreateOrUpdateStream(ctx, streamConfig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStreamCreationFailed, err)
	}

	info, err := stream.Info(ctx)
	if err == nil {
		t.logger.InfoContext(ctx, "JetStream stream configured",
			"name", info.Config.Name,
			"subjects", info.Config.Subjects,
			"messages", info.State.Msgs)
	}

	return nil
}

// loadAndStart reads the configured TOML document, builds a new Engine, and
// launches one control-loop goroutine per zone. It is also the body of a
// reload: any zone goroutines from a previous Engine must already have been
// stopped (via stopZones) before this is called again.
func (t *ThermalMgr) loadAndStart(ctx context.Context) error {
	var doc thermal.Config
	if _, err := toml.DecodeFile(t.config.configPath, &doc); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigLoadFailed, err)
	}

	engine, err := thermal.Build(doc, t.logger, t.config.hostOffCheck)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrThermalSystemBuildFailed, err)
	}

	t.mu.Lock()
	t.engine = engine
	t.mu.Unlock()

	opts := thermal.LoopOptions{
		LogDir:                 t.config.diagLogDir,
		CheckFanFailuresCycles: t.config.checkFanFailures,
	}

	for id, zone := range engine.Zones {
		zone := zone
		id := id
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			if err := zone.Run(ctx, opts); err != nil {
				t.logger.ErrorContext(ctx, "zone control loop exited with error",
					"zone", id, "error", err)
			}
		}()
	}

	return nil
}

// reload stops every zone loop goroutine from the current generation,
// rebuilds the Engine from the configured TOML document, and starts a new
// generation of loops in its place. The microservice and NATS connection are
// untouched.
func (t *ThermalMgr) reload() error {
	t.mu.Lock()
	oldCancel := t.cancel
	root := t.rootCtx
	t.mu.Unlock()

	if oldCancel != nil {
		oldCancel()
	}
	t.wg.Wait()

	runCtx, cancel := context.WithCancel(root)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	return t.loadAndStart(runCtx)
}

func (t *ThermalMgr) registerEndpoints(ctx context.Context) error {
	groups := make(map[string]micro.Group)

	if err := ipc.RegisterEndpointWithGroupCache(t.microService, ipc.SubjectThermalZoneList,
		micro.HandlerFunc(t.createRequestHandler(ctx, t.handleListThermalZones)), groups); err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}
	if err := ipc.RegisterEndpointWithGroupCache(t.microService, ipc.SubjectThermalZoneInfo,
		micro.HandlerFunc(t.createRequestHandler(ctx, t.handleGetThermalZone)), groups); err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}
	if err := ipc.RegisterEndpointWithGroupCache(t.microService, ipc.SubjectThermalZoneManualMode,
		micro.HandlerFunc(t.createRequestHandler(ctx, t.handleSetManualMode)), groups); err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}
	if err := ipc.RegisterEndpointWithGroupCache(t.microService, ipc.SubjectThermalReload,
		micro.HandlerFunc(t.createRequestHandler(ctx, t.handleReload)), groups); err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}

	return nil
}

func (t *ThermalMgr) createRequestHandler(parentCtx context.Context, handler func(context.Context, micro.Request)) micro.HandlerFunc {
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

		if t.tracer != nil {
			_, span := t.tracer.Start(ctx, "thermalmgr.handleRequest")
			span.SetAttributes(
				attribute.String("subject", req.Subject()),
				attribute.String("service", t.config.serviceName),
			)
			defer span.End()
		}

		handler(ctx, req) //nolint:contextcheck
	}
}

func (t *ThermalMgr) shutdown() {
	t.mu.Lock()
	cancel := t.cancel
	t.started = false
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()
}

// getZone safely retrieves a thermal zone by ID.
func (t *ThermalMgr) getZone(id string) (*thermal.Zone, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.engine == nil {
		return nil, false
	}
	z, ok := t.engine.Zones[id]
	return z, ok
}

// listZoneIDs returns a snapshot of every configured zone ID.
func (t *ThermalMgr) listZoneIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.engine == nil {
		return nil
	}
	ids := make([]string, 0, len(t.engine.Zones))
	for id := range t.engine.Zones {
		ids = append(ids, id)
	}
	return ids
}
