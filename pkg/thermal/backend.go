// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/u-bmc/thermalctl/pkg/hwmon"
)

// passiveBackend caches the most recent value pushed to it by an external
// source (a message-bus property listener, in the original system), scaling
// by a fixed power-of-ten divisor before it is handed to the Sensor.
type passiveBackend struct {
	scale float64

	mu    sync.Mutex
	value int64
	valid bool
}

// NewPassiveBackend returns a Backend fed only by the returned setter, with
// raw values divided by 10^scaleExp before being reported as Read's value.
func NewPassiveBackend(scaleExp int) (*passiveBackend, func(int64)) {
	b := &passiveBackend{scale: pow10(scaleExp)}
	return b, b.set
}

func (b *passiveBackend) set(raw int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.value = raw
	b.valid = true
}

func (b *passiveBackend) Read(_ context.Context) (float64, int64, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.valid {
		return 0, 0, false, nil
	}
	return float64(b.value) / b.scale, b.value, true, nil
}

func pow10(exp int) float64 {
	v := 1.0
	for range exp {
		v *= 10
	}
	for range -exp {
		v /= 10
	}
	return v
}

// activeBackend pulls a value on demand from a caller-supplied function,
// grounding the "active reader" shape without binding it to any one
// transport. Build never creates one; a caller constructs it directly.
type activeBackend struct {
	pull func(ctx context.Context) (int64, error)
}

// NewActiveBackend returns a Backend that pulls via fn on every Read.
func NewActiveBackend(fn func(ctx context.Context) (int64, error)) *activeBackend {
	return &activeBackend{pull: fn}
}

func (b *activeBackend) Read(ctx context.Context) (float64, int64, bool, error) {
	raw, err := b.pull(ctx)
	if err != nil {
		return 0, 0, false, err
	}
	return float64(raw), raw, true, nil
}

// filesystemBackend reads and optionally writes an integer sysfs-style path,
// the idiom hwmon uses for both thermal inputs and PWM outputs.
type filesystemBackend struct {
	readPath  string
	writePath string
	min, max  int64
	lastRaw   atomic.Int64
}

// NewFilesystemBackend returns a Backend/Writer pair that reads readPath and,
// if writePath is non-empty, linearly maps a [0,1] fraction into [min,max]
// before writing an integer to writePath.
func NewFilesystemBackend(readPath, writePath string, min, max int64) *filesystemBackend {
	return &filesystemBackend{readPath: readPath, writePath: writePath, min: min, max: max}
}

func (b *filesystemBackend) Read(ctx context.Context) (float64, int64, bool, error) {
	raw, err := hwmon.ReadIntCtx(ctx, b.readPath)
	if err != nil {
		return 0, 0, false, err
	}
	return float64(raw), int64(raw), true, nil
}

func (b *filesystemBackend) Write(ctx context.Context, fraction float64, force bool) (int64, error) {
	if b.writePath == "" {
		return 0, ErrNoWriteBackend
	}
	raw := b.min + int64(fraction*float64(b.max-b.min))
	if !force && b.lastRaw.Load() == raw {
		return raw, nil
	}
	if err := hwmon.WriteIntCtx(ctx, b.writePath, int(raw)); err != nil {
		return 0, err
	}
	b.lastRaw.Store(raw)
	return raw, nil
}

// externalBackend has the same shape as passiveBackend (pushed, not pulled)
// but is distinguished by carrying an absolute unscaled unit: a reader
// written to by another process and read as an absolute temperature (e.g.
// a host-side agent pushing its own CPU die reading).
type externalBackend struct {
	*passiveBackend
}

// NewExternalBackend returns a Backend fed by the returned setter whose values
// are never scaled (the value is already an absolute reading in its native
// unit, e.g. millidegrees C divided down by the caller before pushing).
func NewExternalBackend() (*externalBackend, func(int64)) {
	b := &externalBackend{passiveBackend: &passiveBackend{scale: 1}}
	return b, b.set
}
