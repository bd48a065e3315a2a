// SPDX-License-Identifier: BSD-3-Clause

// Package sensormon discovers temperature and fan sensors on the local
// hwmon tree and bridges their readings to thermalmgr over NATS.
//
// On Run it walks the configured hwmon path once, recording one sensor per
// temp*_input and fan*_input attribute found, named
// "<device-name>_<attribute>" (e.g. "k10temp_temp1"). It then polls every
// discovered sensor on a fixed interval and, for each reading:
//
//   - publishes the raw value to "internal.sensor.push.<sensor-name>" so a
//     matching pathless sensor in thermalmgr's TOML document picks it up
//     (see pkg/thermal's external/pushed sensor backend)
//   - for temperature sensors, publishes a JSON alert on
//     "<alert-subject-prefix>.warning" or "...critical" when the reading
//     crosses the configured Celsius thresholds
//
// It also exposes a small NATS micro service (sensor.list, sensor.info) so
// operators can inspect what was discovered and its last reading without
// going through thermalmgr.
package sensormon
