// SPDX-License-Identifier: BSD-3-Clause

package thermalmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/u-bmc/thermalctl/pkg/ipc"
)

// ThermalAlert is the JSON payload published by sensormon on
// "thermalmgr.alerts.<severity>" when one of its own sensor thresholds is
// crossed, independent of this zone's own failsafe tracking.
type ThermalAlert struct {
	SensorID   string  `json:"sensor_id"`
	SensorName string  `json:"sensor_name"`
	Value      float64 `json:"value"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
}

// ThermalZoneSummary is the JSON shape returned for a single zone by the
// list and info endpoints: its failsafe state, aggregated setpoint, and
// manual-mode flag, without dumping every sensor's raw reading.
type ThermalZoneSummary struct {
	ID                 string   `json:"id"`
	FailsafeMode       bool     `json:"failsafe_mode"`
	FailsafeSensors    []string `json:"failsafe_sensors,omitempty"`
	MaxSetpointRequest float64  `json:"max_setpoint_request"`
	ManualMode         bool     `json:"manual_mode"`
}

// ThermalZoneListResponse is the response body of SubjectThermalZoneList.
type ThermalZoneListResponse struct {
	Zones []ThermalZoneSummary `json:"zones"`
	Count int                  `json:"count"`
}

// GetThermalZoneRequest is the request body of SubjectThermalZoneInfo.
type GetThermalZoneRequest struct {
	ID string `json:"id"`
}

// SetManualModeRequest is the request body of SubjectThermalZoneManualMode.
type SetManualModeRequest struct {
	ID     string `json:"id"`
	Manual bool   `json:"manual"`
}

func summarizeZone(id string, z zoneReader) ThermalZoneSummary {
	failsafe := z.FailsafeSensors()
	names := make([]string, 0, len(failsafe))
	for name := range failsafe {
		names = append(names, name)
	}
	return ThermalZoneSummary{
		ID:                 id,
		FailsafeMode:       z.FailsafeMode(),
		FailsafeSensors:    names,
		MaxSetpointRequest: z.MaxSetpointRequest(),
		ManualMode:         z.ManualMode(),
	}
}

// zoneReader is the read-only subset of *thermal.Zone the handlers need,
// kept narrow so handler tests can supply a fake.
type zoneReader interface {
	FailsafeMode() bool
	FailsafeSensors() map[string]string
	MaxSetpointRequest() float64
	ManualMode() bool
}

// handleListThermalZones handles requests to list every configured zone.
func (t *ThermalMgr) handleListThermalZones(ctx context.Context, req micro.Request) {
	ids := t.listZoneIDs()
	zones := make([]ThermalZoneSummary, 0, len(ids))
	for _, id := range ids {
		z, ok := t.getZone(id)
		if !ok {
			continue
		}
		zones = append(zones, summarizeZone(id, z))
	}

	t.respondJSON(ctx, req, ThermalZoneListResponse{Zones: zones, Count: len(zones)})

	t.logger.DebugContext(ctx, "listed thermal zones", "count", len(zones))
}

// handleGetThermalZone handles requests for one zone's current status.
func (t *ThermalMgr) handleGetThermalZone(ctx context.Context, req micro.Request) {
	var request GetThermalZoneRequest
	if err := json.Unmarshal(req.Data(), &request); err != nil {
		t.logger.WarnContext(ctx, "invalid get thermal zone request", "error", err)
		_ = req.Error("400", "invalid request format", nil)
		return
	}

	zone, exists := t.getZone(request.ID)
	if !exists {
		_ = req.Error("404", fmt.Sprintf("thermal zone not found: %s", request.ID), nil)
		return
	}

	t.respondJSON(ctx, req, summarizeZone(request.ID, zone))

	t.logger.DebugContext(ctx, "retrieved thermal zone", "zone", request.ID)
}

// handleSetManualMode handles requests to toggle a zone between automatic
// control and external override.
func (t *ThermalMgr) handleSetManualMode(ctx context.Context, req micro.Request) {
	var request SetManualModeRequest
	if err := json.Unmarshal(req.Data(), &request); err != nil {
		t.logger.WarnContext(ctx, "invalid set manual mode request", "error", err)
		_ = req.Error("400", "invalid request format", nil)
		return
	}

	zone, exists := t.getZone(request.ID)
	if !exists {
		_ = req.Error("404", fmt.Sprintf("thermal zone not found: %s", request.ID), nil)
		return
	}

	zone.SetManualMode(request.Manual)

	t.logger.InfoContext(ctx, "thermal zone manual mode changed",
		"zone", request.ID, "manual", request.Manual)

	t.respondJSON(ctx, req, summarizeZone(request.ID, zone))
}

// handleReload handles requests to reload the thermal configuration
// document and rebuild every zone's runtime from it.
func (t *ThermalMgr) handleReload(ctx context.Context, req micro.Request) {
	if err := t.reload(); err != nil {
		t.logger.ErrorContext(ctx, "thermal configuration reload failed", "error", err)
		_ = req.Error("500", "reload failed", nil)
		return
	}

	t.logger.InfoContext(ctx, "thermal configuration reloaded", "zones", len(t.listZoneIDs()))

	t.respondJSON(ctx, req, map[string]any{"status": "reloaded", "zones": len(t.listZoneIDs())})
}

// handleSensorPush feeds a raw reading into a passive or external sensor
// backend. It is a plain NATS subscription rather than a micro endpoint,
// since pushed readings fire far more often than request/response traffic
// warrants and don't need a response. The sensor name is the subject suffix
// after ipc.InternalSensorPush, and the body is the raw int64 value as
// decimal text.
func (t *ThermalMgr) handleSensorPush(msg *nats.Msg) {
	name := strings.TrimPrefix(msg.Subject, ipc.InternalSensorPush+".")
	if name == "" || name == msg.Subject {
		return
	}

	raw, err := strconv.ParseInt(strings.TrimSpace(string(msg.Data)), 10, 64)
	if err != nil {
		t.logger.WarnContext(context.Background(), "invalid pushed sensor value",
			"sensor", name, "error", err)
		return
	}

	t.mu.RLock()
	engine := t.engine
	t.mu.RUnlock()
	if engine == nil {
		return
	}

	push, ok := engine.Pushers[name]
	if !ok {
		t.logger.WarnContext(context.Background(), "pushed value for unknown or non-pushable sensor",
			"sensor", name)
		return
	}

	push(raw)
}

// handleThermalAlert logs threshold alerts raised by an external sensor
// source (e.g. sensormon's own warning/critical/emergency thresholds,
// independent of this zone's own failsafe logic). These never drive control
// decisions here — a zone's own Sensor.Read staleness/threshold tracking is
// authoritative for failsafe — the alert is informational context for
// operators correlating external sensor state against this zone's behavior.
func (t *ThermalMgr) handleThermalAlert(msg *nats.Msg) {
	var alert ThermalAlert
	if err := json.Unmarshal(msg.Data, &alert); err != nil {
		t.logger.WarnContext(context.Background(), "invalid thermal alert payload",
			"subject", msg.Subject, "error", err)
		return
	}

	t.logger.WarnContext(context.Background(), "external thermal alert received",
		"subject", msg.Subject,
		"sensor_id", alert.SensorID,
		"sensor_name", alert.SensorName,
		"value", alert.Value,
		"severity", alert.Severity,
		"message", alert.Message)
}

func (t *ThermalMgr) respondJSON(ctx context.Context, req micro.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		t.logger.ErrorContext(ctx, "failed to marshal response", "error", err)
		_ = req.Error("500", "failed to marshal response", nil)
		return
	}
	if err := req.Respond(data); err != nil {
		t.logger.ErrorContext(ctx, "failed to send response", "error", err)
	}
}
