// go-fingerprint
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-fingerprint.
//
// go-fingerprint is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-fingerprint is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-fingerprint; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads the fpd daemon configuration from a YAML file,
// FPD_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	fingerprint "github.com/ZaparooProject/go-fingerprint"
	"github.com/ZaparooProject/go-fingerprint/detection"
	"github.com/ZaparooProject/go-fingerprint/service"
)

// EnvPrefix is prepended to every environment override, e.g. FPD_SERIAL_PORT.
const EnvPrefix = "FPD"

type SerialConfig struct {
	Port        string        `mapstructure:"port"`
	DetectMode  string        `mapstructure:"detectMode"`
	LockDir     string        `mapstructure:"lockDir"`
	Baud        int           `mapstructure:"baud"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryDelay  time.Duration `mapstructure:"retryDelay"`
	OpenRetries int           `mapstructure:"openRetries"`
	Address     uint32        `mapstructure:"address"`
	Password    uint32        `mapstructure:"password"`
	NoLock      bool          `mapstructure:"noLock"`
}

type ServiceConfig struct {
	Mode                string        `mapstructure:"mode"`
	PostEnroll          string        `mapstructure:"postEnroll"`
	Period              time.Duration `mapstructure:"period"`
	EnrollTimeout       time.Duration `mapstructure:"enrollTimeout"`
	RemovalPollInterval time.Duration `mapstructure:"removalPollInterval"`
	ReconnectDelay      time.Duration `mapstructure:"reconnectDelay"`
}

type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	Enable       bool          `mapstructure:"enable"`
}

type MetricsConfig struct {
	Path   string `mapstructure:"path"`
	Enable bool   `mapstructure:"enable"`
}

type MQTTConfig struct {
	Broker string `mapstructure:"broker"`
	Node   string `mapstructure:"node"`
	QoS    byte   `mapstructure:"qos"`
	Enable bool   `mapstructure:"enable"`
}

type MDNSConfig struct {
	Instance string `mapstructure:"instance"`
	Enable   bool   `mapstructure:"enable"`
}

type TraceConfig struct {
	File   string `mapstructure:"file"`
	Enable bool   `mapstructure:"enable"`
}

type TouchConfig struct {
	Pin        string `mapstructure:"pin"`
	ActiveHigh bool   `mapstructure:"activeHigh"`
	Enable     bool   `mapstructure:"enable"`
}

type Config struct {
	Serial  SerialConfig  `mapstructure:"serial"`
	Service ServiceConfig `mapstructure:"service"`
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	MDNS    MDNSConfig    `mapstructure:"mdns"`
	Trace   TraceConfig   `mapstructure:"trace"`
	Touch   TouchConfig   `mapstructure:"touch"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"port":      "serial.port",
	"baud":      "serial.baud",
	"log-level": "logging.level",
	"http-addr": "http.addr",
	"mode":      "service.mode",
}

// RegisterFlags adds --config and the override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to the YAML config file")
	fs.StringP("port", "p", "", "serial port (empty to auto-detect)")
	fs.Int("baud", 57600, "serial baud rate")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("http-addr", ":8089", "HTTP control listen address")
	fs.String("mode", "match", "initial service mode (match, enroll)")
}

// Load reads the configuration. Precedence: changed flags, FPD_* env,
// the config file, defaults. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	var path string
	if fs != nil {
		path, _ = fs.GetString("config")
		for flag, key := range flagKeys {
			f := fs.Lookup(flag)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fpd")
		v.SetConfigName("fpd")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	dev := fingerprint.DefaultDeviceConfig()
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.detectMode", "safe")
	v.SetDefault("serial.baud", 57600)
	v.SetDefault("serial.address", dev.Address)
	v.SetDefault("serial.password", dev.Password)
	v.SetDefault("serial.timeout", dev.Timeout)
	v.SetDefault("serial.lockDir", "")
	v.SetDefault("serial.noLock", false)
	v.SetDefault("serial.openRetries", 3)
	v.SetDefault("serial.retryDelay", "500ms")

	svc := service.DefaultConfig()
	v.SetDefault("service.mode", "match")
	v.SetDefault("service.postEnroll", "enroll")
	v.SetDefault("service.period", svc.Period)
	v.SetDefault("service.enrollTimeout", svc.EnrollTimeout)
	v.SetDefault("service.removalPollInterval", svc.RemovalPollInterval)
	v.SetDefault("service.reconnectDelay", "2s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("http.enable", true)
	v.SetDefault("http.addr", ":8089")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("mqtt.enable", false)
	v.SetDefault("mqtt.broker", "mqtt://localhost:1883/fingerprint")
	v.SetDefault("mqtt.node", "")
	v.SetDefault("mqtt.qos", 0)

	v.SetDefault("mdns.enable", false)
	v.SetDefault("mdns.instance", "")

	v.SetDefault("trace.enable", false)
	v.SetDefault("trace.file", "fpd.trace")

	v.SetDefault("touch.enable", false)
	v.SetDefault("touch.pin", "")
	v.SetDefault("touch.activeHigh", false)
}

// ServiceConfig converts the service section, validating mode names.
func (c *Config) ServiceConfig() (*service.Config, error) {
	initial, err := service.ParseMode(c.Service.Mode)
	if err != nil {
		return nil, fmt.Errorf("service.mode: %w", err)
	}
	post, err := service.ParseMode(c.Service.PostEnroll)
	if err != nil {
		return nil, fmt.Errorf("service.postEnroll: %w", err)
	}

	sc := &service.Config{
		Period:              c.Service.Period,
		EnrollTimeout:       c.Service.EnrollTimeout,
		RemovalPollInterval: c.Service.RemovalPollInterval,
		InitialState:        initial.State(),
		PostEnrollState:     post.State(),
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// DetectionMode parses serial.detectMode.
func (c *Config) DetectionMode() (detection.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(c.Serial.DetectMode)) {
	case "passive":
		return detection.Passive, nil
	case "", "safe":
		return detection.Safe, nil
	case "full":
		return detection.Full, nil
	default:
		return 0, fmt.Errorf("%w: serial.detectMode %q", service.ErrInvalidConfig, c.Serial.DetectMode)
	}
}

// DeviceOptions returns the session options for the serial section.
func (c *Config) DeviceOptions() []fingerprint.Option {
	return []fingerprint.Option{
		fingerprint.WithAddress(c.Serial.Address),
		fingerprint.WithPassword(c.Serial.Password),
		fingerprint.WithTimeout(c.Serial.Timeout),
	}
}
