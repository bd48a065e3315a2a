// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"time"
)

// LoopOptions configures a Zone's periodic control loop.
type LoopOptions struct {
	// LogDir, if non-empty, enables the per-zone CSV diagnostic log under
	// this directory.
	LogDir string
	// CheckFanFailuresCycles is how often (in ticks) the loop re-validates
	// fan staleness independently of a fresh telemetry poll; 0 disables
	// the extra check (telemetry already re-evaluates every tick).
	CheckFanFailuresCycles int
}

// CheckFanFailures re-validates staleness for every fan input without
// issuing a new backend read, catching a sensor that has gone stale purely
// because wall-clock time passed since its last successful poll. This
// mirrors the upstream loop's separate, less-frequent checkFanFailures step;
// UpdateFanTelemetry already performs the equivalent check on every tick, so
// this is a cheap redundant safety net, not the primary mechanism.
func (z *Zone) CheckFanFailures(now time.Time) {
	for _, s := range z.fanInputs {
		if s.Stale(now) {
			z.mu.Lock()
			z.enterFailsafe(s.Name(), "timeout")
			z.mu.Unlock()
		}
	}
}

// Run drives this Zone's periodic control loop until ctx is canceled. It is
// a single-threaded cooperative scheduler: the only suspension points are
// the ticker wait and the cancellation check. Zones
// are independent — running N Zones means calling Run in N goroutines, none
// of which touch another Zone's state.
func (z *Zone) Run(ctx context.Context, opts LoopOptions) error {
	ticker := time.NewTicker(z.cycleInterval)
	defer ticker.Stop()

	thermalEveryTicks := int(z.updateThermalsInt / z.cycleInterval)
	if thermalEveryTicks < 1 {
		thermalEveryTicks = 1
	}
	failsafeCheckEveryTicks := opts.CheckFanFailuresCycles

	first := true
	var tick int

	runThermalPass := func(now time.Time) {
		z.UpdateThermalSensors(ctx, now)
		z.ClearSetpoints()
		z.ClearCeilings()
		_ = z.ProcessThermals(ctx)
		z.DetermineMaximumSetpoint()
	}

	for {
		select {
		case <-ctx.Done():
			_ = z.diag.Close()
			return nil
		case now := <-ticker.C:
			if first {
				first = false
				if err := z.AttachDiagnostics(opts.LogDir); err != nil {
					z.logger.WarnContext(ctx, "failed to attach diagnostics", "zone", z.id, "error", err)
				}
				z.InitializeCache()
				runThermalPass(now)
			}

			if z.ManualMode() {
				z.UpdateFanTelemetry(ctx, now)
				continue
			}

			z.UpdateFanTelemetry(ctx, now)
			tick++

			if failsafeCheckEveryTicks > 0 && tick%failsafeCheckEveryTicks == 0 {
				z.CheckFanFailures(now)
			}

			if tick%thermalEveryTicks == 0 {
				runThermalPass(now)
			}

			_ = z.ProcessFans(ctx)

			if err := z.WriteDiagnosticCycle(now); err != nil {
				z.logger.WarnContext(ctx, "failed to write diagnostic cycle", "zone", z.id, "error", err)
			}
		}
	}
}
