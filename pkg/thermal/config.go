// SPDX-License-Identifier: BSD-3-Clause

package thermal

// Config is the top-level declarative configuration document: a flat list
// of sensors and a list of zones, each zone owning an ordered
// list of PID/stepwise controller declarations. It is decoded from TOML by
// the service layer and handed to Build once, at wiring time; nothing in
// pkg/thermal ever re-reads it afterward.
type Config struct {
	Sensors []SensorSpec `toml:"sensors"`
	Zones   []ZoneSpec   `toml:"zones"`
}

// SensorSpec is one entry of the config file's sensors[] collection.
type SensorSpec struct {
	Name                string   `toml:"name"`
	Type                string   `toml:"type"`
	ReadPath            string   `toml:"readPath"`
	WritePath           string   `toml:"writePath"`
	Min                 float64  `toml:"min"`
	Max                 float64  `toml:"max"`
	TimeoutSeconds      *float64 `toml:"timeout"`
	IgnoreDbusMinMax    bool     `toml:"ignoreDbusMinMax"`
	UnavailableAsFailed *bool    `toml:"unavailableAsFailed"`
	IgnoreFailIfHostOff bool     `toml:"ignoreFailIfHostOff"`
	ZeroStrikesTolerance int     `toml:"zeroStrikesTolerance"`

	CriticalHigh *float64 `toml:"criticalHigh"`
	CriticalLow  *float64 `toml:"criticalLow"`
	WarningHigh  *float64 `toml:"warningHigh"`
}

// ZoneSpec is one entry of the config file's zones[] collection.
type ZoneSpec struct {
	ID                   string    `toml:"id"`
	MinThermalOutput     float64   `toml:"minThermalOutput"`
	FailsafePercent      float64   `toml:"failsafePercent"`
	CycleIntervalTimeMS  int       `toml:"cycleIntervalTimeMS"`
	UpdateThermalsTimeMS int       `toml:"updateThermalsTimeMS"`
	RedundantWrite       bool      `toml:"redundantWrite"`
	TuningEnabled        bool      `toml:"tuningEnabled"`
	TuningPath           string    `toml:"tuningPath"`
	StrictFailsafe       bool      `toml:"strictFailsafe"`
	PIDs                 []PIDSpec `toml:"pids"`
}

// PIDSpec is one controller declaration within a zone: type selects whether
// it is bound by Build into a FanController, a ThermalController, or a
// StepwiseController.
type PIDSpec struct {
	Name                string   `toml:"name"`
	Type                string   `toml:"type"` // fan, temp, margin, stepwise, power, powersum
	Inputs              []string `toml:"inputs"`
	Outputs             []string `toml:"outputs"` // fan only
	TempToMargin        []float64 `toml:"tempToMargin"`
	MissingIsAcceptable []bool    `toml:"missingIsAcceptable"`
	Combine             string    `toml:"combine"` // "absolute" (default) | "summation"
	Setpoint            float64   `toml:"setpoint"`
	IsCeiling           bool      `toml:"isCeiling"`

	PID      *PIDCoeffSpec `toml:"pid"`
	Stepwise *StepwiseSpec `toml:"stepwise"`
}

// PIDCoeffSpec is the pid: sub-table of a PIDSpec.
type PIDCoeffSpec struct {
	SamplePeriod        float64 `toml:"samplePeriod"`
	ProportionalCoeff   float64 `toml:"proportionalCoeff"`
	IntegralCoeff       float64 `toml:"integralCoeff"`
	DerivativeCoeff     float64 `toml:"derivativeCoeff"`
	FeedFwdOffsetCoeff  float64 `toml:"feedFwdOffsetCoeff"`
	FeedFwdGainCoeff    float64 `toml:"feedFwdGainCoeff"`
	IntegralLimitMin    float64 `toml:"integralLimit_min"`
	IntegralLimitMax    float64 `toml:"integralLimit_max"`
	OutLimMin           float64 `toml:"outLim_min"`
	OutLimMax           float64 `toml:"outLim_max"`
	SlewNeg             float64 `toml:"slewNeg"`
	SlewPos             float64 `toml:"slewPos"`
	PositiveHysteresis  float64 `toml:"positiveHysteresis"`
	NegativeHysteresis  float64 `toml:"negativeHysteresis"`
	CheckHysteresisWithSetpoint bool `toml:"checkHysteresisWithSetpoint"`
	Variant             string  `toml:"variant"` // "google" (default) | "standard"
}

// StepwiseSpec is the stepwise: sub-table of a PIDSpec.
type StepwiseSpec struct {
	SamplePeriod       float64   `toml:"samplePeriod"`
	Reading            []float64 `toml:"reading"`
	Output             []float64 `toml:"output"`
	PositiveHysteresis float64   `toml:"positiveHysteresis"`
	NegativeHysteresis float64   `toml:"negativeHysteresis"`
}
