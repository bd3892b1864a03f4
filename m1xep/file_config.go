package m1xep

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/go-elkm1/logger"
)

// FileConfig is the YAML representation of a connection configuration.
//
// Zero values keep the defaults of NewConnectionConfig.
type FileConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Secure   bool   `yaml:"secure"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	RequestTimeout     time.Duration `yaml:"request-timeout"`
	DescriptionTimeout time.Duration `yaml:"description-timeout"`
	ConnectTimeout     time.Duration `yaml:"connect-timeout"`
	WriteTimeout       time.Duration `yaml:"write-timeout"`

	StrictChecksum   bool  `yaml:"strict-checksum"`
	AutoReconnect    *bool `yaml:"auto-reconnect"`
	HandlerQueueSize int   `yaml:"handler-queue-size"`

	Reconnect      ReconnectFileConfig `yaml:"reconnect"`
	WriteRateLimit RateLimitFileConfig `yaml:"write-rate-limit"`
	Log            LogFileConfig       `yaml:"log"`
}

// ReconnectFileConfig configures the reconnect policy.
type ReconnectFileConfig struct {
	Immediate    bool          `yaml:"immediate"`
	InitialDelay time.Duration `yaml:"initial-delay"`
	Factor       float64       `yaml:"factor"`
	MaxDelay     time.Duration `yaml:"max-delay"`
	MaxAttempts  int           `yaml:"max-attempts"`
}

// RateLimitFileConfig configures outbound frame pacing.
type RateLimitFileConfig struct {
	PerSecond float64 `yaml:"per-second"`
	Burst     int     `yaml:"burst"`
}

// LogFileConfig configures the connection logger.
type LogFileConfig struct {
	Level string `yaml:"level"`
	// File enables a size-rotated log file.
	File *logger.RotateConfig `yaml:"file"`
	// Tee also writes to stdout when File is set.
	Tee bool `yaml:"tee"`
}

// LoadFileConfig reads a YAML connection configuration from path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("m1xep: read config: %w", err)
	}

	return ParseFileConfig(data)
}

// ParseFileConfig parses a YAML connection configuration.
func ParseFileConfig(data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("m1xep: parse config: %w", err)
	}

	if fc.Host == "" {
		return nil, fmt.Errorf("m1xep: parse config: host is required")
	}

	return fc, nil
}

// ConnOptions converts the file configuration to connection options.
func (fc *FileConfig) ConnOptions() []ConnOption {
	opts := []ConnOption{WithSecure(fc.Secure), WithStrictChecksum(fc.StrictChecksum)}

	if fc.Username != "" {
		opts = append(opts, WithCredentials(fc.Username, fc.Password))
	}
	if fc.RequestTimeout > 0 {
		opts = append(opts, WithRequestTimeout(fc.RequestTimeout))
	}
	if fc.DescriptionTimeout > 0 {
		opts = append(opts, WithDescriptionTimeout(fc.DescriptionTimeout))
	}
	if fc.ConnectTimeout > 0 {
		opts = append(opts, WithConnectTimeout(fc.ConnectTimeout))
	}
	if fc.WriteTimeout > 0 {
		opts = append(opts, WithWriteTimeout(fc.WriteTimeout))
	}
	if fc.HandlerQueueSize > 0 {
		opts = append(opts, WithHandlerQueueSize(fc.HandlerQueueSize))
	}
	if fc.AutoReconnect != nil {
		opts = append(opts, WithAutoReconnect(*fc.AutoReconnect))
	}

	switch rc := fc.Reconnect; {
	case rc.Immediate:
		opts = append(opts, WithImmediateReconnect())
	case rc != ReconnectFileConfig{}:
		policy := DefaultReconnectPolicy()
		if rc.InitialDelay > 0 {
			policy.InitialDelay = rc.InitialDelay
		}
		if rc.Factor > 0 {
			policy.Factor = rc.Factor
		}
		if rc.MaxDelay > 0 {
			policy.MaxDelay = rc.MaxDelay
		}
		policy.MaxAttempts = rc.MaxAttempts
		opts = append(opts, WithReconnectPolicy(policy))
	}

	if fc.WriteRateLimit.PerSecond > 0 {
		burst := fc.WriteRateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, WithWriteRateLimit(fc.WriteRateLimit.PerSecond, burst))
	}

	return opts
}

// ConnectionConfig builds a ConnectionConfig from the file configuration. extra options are
// applied last.
func (fc *FileConfig) ConnectionConfig(extra ...ConnOption) (*ConnectionConfig, error) {
	return NewConnectionConfig(fc.Host, fc.Port, append(fc.ConnOptions(), extra...)...)
}

// NewLogger creates the logger described by the log section. The returned closer is nil
// when no log file is configured.
func (fc *FileConfig) NewLogger() (logger.Logger, io.Closer) {
	level := logger.ParseLevel(fc.Log.Level)
	if fc.Log.File == nil || fc.Log.File.Filename == "" {
		return logger.NewSlog(level, false), nil
	}

	return logger.NewFileSlog(*fc.Log.File, level, fc.Log.Tee)
}
