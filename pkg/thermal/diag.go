// SPDX-License-Identifier: BSD-3-Clause

package thermal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/u-bmc/thermalctl/pkg/file"
)

// diagnosticLog is the per-zone CSV-like cycle log: a fixed column order,
// header emitted once, one line appended per cycle.
type diagnosticLog struct {
	mu           sync.Mutex
	w            *bufio.Writer
	f            *os.File
	fanNames     []string
	thermalNames []string
	initialized  bool
}

// newDiagnosticLog opens (creating if needed) dir/<zoneID>.csv for append.
// A nil return with a nil error is valid when dir is empty — logging is
// then a no-op, matching the CLI's --log flag being optional.
func newDiagnosticLog(dir, zoneID string, fanNames, thermalNames []string) (*diagnosticLog, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, zoneID+".csv"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &diagnosticLog{
		w:            bufio.NewWriter(f),
		f:            f,
		fanNames:     fanNames,
		thermalNames: thermalNames,
	}, nil
}

// Initialize emits the fixed column header exactly once.
func (d *diagnosticLog) Initialize() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	d.initialized = true

	cols := []string{"epoch_ms", "setpt"}
	for _, f := range d.fanNames {
		cols = append(cols, f, f+"_raw", f+"_pwm", f+"_pwm_raw")
	}
	for _, t := range d.thermalNames {
		cols = append(cols, t, t+"_raw")
	}
	cols = append(cols, "failsafe")

	_, err := d.w.WriteString(strings.Join(cols, ",") + "\n")
	if err != nil {
		return err
	}
	return d.w.Flush()
}

// WriteCycle appends one row for the current cycle.
func (d *diagnosticLog) WriteCycle(z *Zone, now time.Time, setpt float64) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	cols := []string{
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.FormatFloat(setpt, 'f', -1, 64),
	}
	for _, name := range d.fanNames {
		r := z.CachedPair(name)
		out := z.outputCacheFor(name)
		cols = append(cols,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			strconv.FormatFloat(r.Unscaled, 'f', -1, 64),
			strconv.FormatFloat(out.Value, 'f', -1, 64),
			strconv.FormatFloat(out.Raw, 'f', -1, 64),
		)
	}
	for _, name := range d.thermalNames {
		r := z.CachedPair(name)
		cols = append(cols,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			strconv.FormatFloat(r.Unscaled, 'f', -1, 64),
		)
	}
	failsafe := "0"
	if z.FailsafeMode() {
		failsafe = "1"
	}
	cols = append(cols, failsafe)

	if _, err := d.w.WriteString(strings.Join(cols, ",") + "\n"); err != nil {
		return err
	}
	return d.w.Flush()
}

func (d *diagnosticLog) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.w.Flush()
	return d.f.Close()
}

// pidCoreLog is the per-controller numerical trace: pidcore.<name> gets a
// line whenever the formatted (input, setpoint, output) context differs
// from the previous line or more than 60 seconds have elapsed since the
// last emission; pidcoeffs.<name> gets the static coefficients once.
type pidCoreLog struct {
	mu          sync.Mutex
	core        *os.File
	lastContext string
	lastEmit    time.Time
}

func newPIDCoreLog(dir, name string, coeffs string) (*pidCoreLog, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	clean := sanitizeName(name)

	// pidcoeffs.<name> is a point-in-time snapshot written once per process
	// lifetime; a bare rename-into-place avoids a reader ever observing a
	// truncated file if the daemon is killed mid-write. A stale file from a
	// previous run is removed first since the coefficients can legitimately
	// change across a restart with a new configuration.
	coeffPath := filepath.Join(dir, "pidcoeffs."+clean)
	if err := file.AtomicCreateFile(coeffPath, []byte(coeffs), 0o644); err != nil {
		if errors.Is(err, file.ErrFileAlreadyExists) {
			_ = os.Remove(coeffPath)
			err = file.AtomicCreateFile(coeffPath, []byte(coeffs), 0o644)
		}
		if err != nil {
			return nil, err
		}
	}

	core, err := os.OpenFile(filepath.Join(dir, "pidcore."+clean), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &pidCoreLog{core: core}, nil
}

func (p *pidCoreLog) Record(now time.Time, input, setpoint, output float64) error {
	if p == nil {
		return nil
	}
	ctx := fmt.Sprintf("%s,%s,%s",
		strconv.FormatFloat(input, 'f', -1, 64),
		strconv.FormatFloat(setpoint, 'f', -1, 64),
		strconv.FormatFloat(output, 'f', -1, 64),
	)

	p.mu.Lock()
	defer p.mu.Unlock()

	if ctx == p.lastContext && now.Sub(p.lastEmit) < 60*time.Second {
		return nil
	}
	p.lastContext = ctx
	p.lastEmit = now

	if _, err := fmt.Fprintf(p.core, "%d,%s\n", now.UnixMilli(), ctx); err != nil {
		return err
	}
	return nil
}

func (p *pidCoreLog) Close() error {
	if p == nil {
		return nil
	}
	return p.core.Close()
}
