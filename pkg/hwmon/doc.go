// SPDX-License-Identifier: BSD-3-Clause

// Package hwmon provides raw access to the Linux hwmon (hardware monitoring)
// subsystem through sysfs, under /sys/class/hwmon/. It exposes context-aware
// integer and string read/write primitives against attribute files, plus
// device listing and lookup helpers. It does not model sensor types or
// units; callers interpret attribute contents (e.g. temp1_input is
// millidegree Celsius, fanN_input is RPM, pwmN is 0-255).
//
// # Basic usage
//
//	path, err := hwmon.FindDeviceByNameCtx(ctx, "k10temp")
//	if err != nil {
//		return err
//	}
//	milliC, err := hwmon.ReadIntCtx(ctx, path+"/temp1_input")
//	if err != nil {
//		return err
//	}
//
// Writing a PWM duty cycle:
//
//	if err := hwmon.WriteIntCtx(ctx, path+"/pwm1", 127); err != nil {
//		return err
//	}
//
// All operations return one of the sentinel errors in errors.go (wrapped
// with fmt.Errorf("%w: ...")) so callers can use errors.Is to distinguish
// missing files, permission errors, and timeouts.
package hwmon
