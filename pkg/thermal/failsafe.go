// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// failsafeLogger is a per-zone, rate-limited diagnostic sink. It records
// entries keyed by (location, reason), drops duplicates within the current
// failsafe state, emits one line on each transition into or out of
// failsafe, and allows at most maxPerSecond distinct entries per rolling
// one-second window. Log lines are diagnostic only; no program logic reads
// them back.
type failsafeLogger struct {
	zoneID       string
	maxPerSecond int

	mu        sync.Mutex
	seen      map[string]struct{}
	stamps    []time.Time
	isFailsafe bool
}

func newFailsafeLogger(zoneID string, maxPerSecond int) *failsafeLogger {
	return &failsafeLogger{
		zoneID:       zoneID,
		maxPerSecond: maxPerSecond,
		seen:         make(map[string]struct{}),
	}
}

// transition is called whenever the zone's failsafe set flips between empty
// and non-empty. It clears the dedup memo and emits the single
// entering/leaving line.
func (l *failsafeLogger) transition(nowFailsafe bool) {
	l.mu.Lock()
	l.isFailsafe = nowFailsafe
	l.seen = make(map[string]struct{})
	l.mu.Unlock()

	if nowFailsafe {
		slog.Warn("zone entering failsafe", "zone", l.zoneID)
	} else {
		slog.Info("zone leaving failsafe", "zone", l.zoneID)
	}
}

// record logs one (location, reason) diagnostic entry, subject to dedup and
// the rolling rate limit.
func (l *failsafeLogger) record(zoneID, location, reason string, failing bool) {
	key := fmt.Sprintf("%s @ %s", location, reason)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Second)
	kept := l.stamps[:0]
	for _, t := range l.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.stamps = kept

	if _, dup := l.seen[key]; dup {
		return
	}
	if len(l.stamps) >= l.maxPerSecond {
		return
	}

	l.seen[key] = struct{}{}
	l.stamps = append(l.stamps, now)

	if failing {
		slog.Debug("sensor failsafe entry", "zone", zoneID, "location", location, "reason", reason)
	} else {
		slog.Debug("sensor failsafe recovery", "zone", zoneID, "location", location, "reason", reason)
	}
}
