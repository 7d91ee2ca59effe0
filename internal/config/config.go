package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTickMillis = 20
	DefaultPollMillis = 1000

	DefaultTargetHeadingDeg = 90.0

	// Heading stage: heading error (deg) to target roll (deg), shorter
	// angular path, roll limited to a comfortable bank.
	DefaultHeadingKp      = 0.8
	DefaultHeadingRollMax = 25.0

	// Roll stage: roll error (deg) to aileron trim [-1, 1].
	DefaultRollKp = 0.04
	DefaultRollKi = 0.0005
	DefaultRollKd = 0.002

	// Yaw stage: sideslip (deg) to rudder trim.
	DefaultYawKp        = 0.02
	DefaultYawRudderMax = 0.3
)

type Config struct {
	TickMillis int `yaml:"tick_ms"`
	PollMillis int `yaml:"poll_interval_ms"`

	LogLevel   string `yaml:"log_level"`
	LogDir     string `yaml:"log_dir"`
	StatusAddr string `yaml:"status_addr"`

	Engaged          bool        `yaml:"engaged"`
	Modes            ModesConfig `yaml:"modes"`
	TargetHeadingDeg float64     `yaml:"target_heading_deg"`

	Gains     GainsConfig     `yaml:"gains"`
	Supervise SuperviseConfig `yaml:"supervise"`
	Testbed   TestbedConfig   `yaml:"testbed"`
}

type ModesConfig struct {
	Heading  bool `yaml:"heading"`
	Altitude bool `yaml:"altitude"`
	Airspeed bool `yaml:"airspeed"`
}

type StageGains struct {
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	OutputMin float64 `yaml:"output_min"`
	OutputMax float64 `yaml:"output_max"`
}

type GainsConfig struct {
	Heading StageGains `yaml:"heading"`
	Roll    StageGains `yaml:"roll"`
	Yaw     StageGains `yaml:"yaw"`
}

type SuperviseConfig struct {
	MaxRestarts  int `yaml:"max_restarts"`
	BackoffMinMS int `yaml:"backoff_min_ms"`
	BackoffMaxMS int `yaml:"backoff_max_ms"`
}

type TestbedConfig struct {
	Vehicles int `yaml:"vehicles"`
	DtMillis int `yaml:"dt_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		TickMillis:       DefaultTickMillis,
		PollMillis:       DefaultPollMillis,
		LogLevel:         "info",
		StatusAddr:       "localhost:5540",
		Engaged:          true,
		Modes:            ModesConfig{Heading: true},
		TargetHeadingDeg: DefaultTargetHeadingDeg,
		Gains: GainsConfig{
			Heading: StageGains{Kp: DefaultHeadingKp, OutputMin: -DefaultHeadingRollMax, OutputMax: DefaultHeadingRollMax},
			Roll:    StageGains{Kp: DefaultRollKp, Ki: DefaultRollKi, Kd: DefaultRollKd, OutputMin: -1, OutputMax: 1},
			Yaw:     StageGains{Kp: DefaultYawKp, OutputMin: -DefaultYawRudderMax, OutputMax: DefaultYawRudderMax},
		},
		Supervise: SuperviseConfig{
			BackoffMinMS: 250,
			BackoffMaxMS: 5000,
		},
		Testbed: TestbedConfig{
			Vehicles: 3,
			DtMillis: 20,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
