// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/micro"
	"github.com/u-bmc/thermalctl/pkg/ipc"
)

// SensorSummary is the JSON shape returned for a single discovered sensor.
type SensorSummary struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	LastRawValue *int     `json:"last_raw_value,omitempty"`
	LastCelsius  *float64 `json:"last_celsius,omitempty"`
}

// SensorListResponse is the response body of ipc.SubjectSensorList.
type SensorListResponse struct {
	Sensors []SensorSummary `json:"sensors"`
	Count   int             `json:"count"`
}

// GetSensorRequest is the request body of ipc.SubjectSensorInfo.
type GetSensorRequest struct {
	Name string `json:"name"`
}

func (s *SensorMon) registerEndpoints(ctx context.Context) error {
	groups := make(map[string]micro.Group)

	if err := ipc.RegisterEndpointWithGroupCache(s.microService, ipc.SubjectSensorList,
		micro.HandlerFunc(s.createRequestHandler(ctx, s.handleListSensors)), groups); err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}
	if err := ipc.RegisterEndpointWithGroupCache(s.microService, ipc.SubjectSensorInfo,
		micro.HandlerFunc(s.createRequestHandler(ctx, s.handleGetSensor)), groups); err != nil {
		return fmt.Errorf("%w: %w", ErrEndpointRegistrationFailed, err)
	}

	return nil
}

func (s *SensorMon) summarize(sn sensor) SensorSummary {
	summary := SensorSummary{Name: sn.name, Kind: string(sn.kind)}

	s.mu.RLock()
	r, ok := s.readings[sn.name]
	s.mu.RUnlock()
	if !ok {
		return summary
	}

	raw := r.raw
	summary.LastRawValue = &raw
	if sn.kind == sensorKindTemp {
		c := celsius(raw)
		summary.LastCelsius = &c
	}
	return summary
}

func (s *SensorMon) handleListSensors(ctx context.Context, req micro.Request) {
	s.mu.RLock()
	sensors := s.sensors
	s.mu.RUnlock()

	summaries := make([]SensorSummary, 0, len(sensors))
	for _, sn := range sensors {
		summaries = append(summaries, s.summarize(sn))
	}

	s.respondJSON(ctx, req, SensorListResponse{Sensors: summaries, Count: len(summaries)})
}

func (s *SensorMon) handleGetSensor(ctx context.Context, req micro.Request) {
	var request GetSensorRequest
	if err := json.Unmarshal(req.Data(), &request); err != nil {
		s.logger.WarnContext(ctx, "invalid get sensor request", "error", err)
		_ = req.Error("400", "invalid request format", nil)
		return
	}

	s.mu.RLock()
	sensors := s.sensors
	s.mu.RUnlock()

	for _, sn := range sensors {
		if sn.name == request.Name {
			s.respondJSON(ctx, req, s.summarize(sn))
			return
		}
	}

	_ = req.Error("404", fmt.Sprintf("sensor not found: %s", request.Name), nil)
}

func (s *SensorMon) respondJSON(ctx context.Context, req micro.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to marshal response", "error", err)
		_ = req.Error("500", "failed to marshal response", nil)
		return
	}
	if err := req.Respond(data); err != nil {
		s.logger.ErrorContext(ctx, "failed to send response", "error", err)
	}
}
