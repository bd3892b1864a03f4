package m1xep

import (
	"crypto/tls"
	"errors"
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/arloliu/go-elkm1/logger"
)

const (
	// DefaultPort is the M1XEP plain text port.
	DefaultPort = 2101
	// DefaultSecurePort is the M1XEP TLS port.
	DefaultSecurePort = 2601
)

// ReconnectPolicy controls how a lost connection is re-established.
//
// The n-th attempt (starting at 1) waits InitialDelay * Factor^(n-1), capped at MaxDelay when
// MaxDelay is positive. MaxAttempts 0 retries forever.
type ReconnectPolicy struct {
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultReconnectPolicy returns the bounded exponential backoff used by default.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		InitialDelay: 100 * time.Millisecond,
		Factor:       2,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  0,
	}
}

// ImmediateReconnectPolicy reconnects without delay and without attempt limit.
func ImmediateReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{Factor: 1}
}

// Delay returns the wait before the given attempt, attempt starts at 1.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.InitialDelay <= 0 {
		return 0
	}

	factor := p.Factor
	if factor < 1 {
		factor = 1
	}

	d := float64(p.InitialDelay) * math.Pow(factor, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(d)
}

// Exhausted reports whether attempt exceeds MaxAttempts.
func (p ReconnectPolicy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt > p.MaxAttempts
}

// ConnectionConfig represents the configuration parameters of a panel connection.
type ConnectionConfig struct {
	mu sync.RWMutex

	// host specifies the host of the M1XEP interface.
	host string
	// port specifies the TCP port, 0 selects DefaultPort or DefaultSecurePort.
	port int

	// secure enables TLS and the login handshake.
	secure    bool
	username  string
	password  string
	tlsConfig *tls.Config

	// requestTimeout bounds a correlated request. Defaults to 5 seconds.
	requestTimeout time.Duration
	// descriptionTimeout bounds each request of a description sweep. Defaults to 15 seconds.
	descriptionTimeout time.Duration
	// connectTimeout bounds dialing and the login handshake. Defaults to 10 seconds.
	connectTimeout time.Duration
	// writeTimeout bounds a single frame write. Defaults to 5 seconds.
	writeTimeout time.Duration
	// closeConnTimeout bounds waiting for the connection goroutines on close. Defaults to 3 seconds.
	closeConnTimeout time.Duration

	autoReconnect   bool
	reconnectPolicy ReconnectPolicy

	strictChecksum bool

	// handlerQueueSize buffers decoded messages waiting for the subscriber goroutine. Defaults to 100.
	handlerQueueSize int

	// writeLimit and writeBurst pace outbound frames. Defaults to unlimited.
	writeLimit rate.Limit
	writeBurst int

	logger logger.Logger
}

// NewConnectionConfig creates a connection configuration for the M1XEP at host:port with
// the given options applied over the defaults.
//
// Port 0 selects DefaultPort, or DefaultSecurePort when WithSecure(true) is given.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		requestTimeout:     5 * time.Second,
		descriptionTimeout: 15 * time.Second,
		connectTimeout:     10 * time.Second,
		writeTimeout:       5 * time.Second,
		closeConnTimeout:   3 * time.Second,
		autoReconnect:      true,
		reconnectPolicy:    DefaultReconnectPolicy(),
		handlerQueueSize:   100,
		writeLimit:         rate.Inf,
		writeBurst:         1,
		logger:             logger.GetLogger(),
	}

	if err := withRemoteHost(host).apply(cfg); err != nil {
		return cfg, err
	}

	if err := withPort(port).apply(cfg); err != nil {
		return cfg, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Address returns host:port, resolving port 0 to the default port of the selected mode.
func (cfg *ConnectionConfig) Address() string {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	port := cfg.port
	if port == 0 {
		port = DefaultPort
		if cfg.secure {
			port = DefaultSecurePort
		}
	}

	return net.JoinHostPort(cfg.host, strconv.Itoa(port))
}

func (cfg *ConnectionConfig) Secure() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.secure
}

func (cfg *ConnectionConfig) RequestTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.requestTimeout
}

func (cfg *ConnectionConfig) DescriptionTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.descriptionTimeout
}

func (cfg *ConnectionConfig) ReconnectPolicy() ReconnectPolicy {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.reconnectPolicy
}

func (cfg *ConnectionConfig) Logger() logger.Logger {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.logger
}

func (cfg *ConnectionConfig) credentials() (string, string) {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.username, cfg.password
}

func (cfg *ConnectionConfig) dialTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.connectTimeout
}

func (cfg *ConnectionConfig) writeDeadline() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.writeTimeout
}

func (cfg *ConnectionConfig) closeTimeout() time.Duration {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.closeConnTimeout
}

func (cfg *ConnectionConfig) handlerQueue() int {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.handlerQueueSize
}

func (cfg *ConnectionConfig) autoReconnectEnabled() bool {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	return cfg.autoReconnect
}

// tlsClientConfig returns the TLS configuration for secure mode.
//
// The M1XEP presents a self-signed certificate with an old protocol version, so the default
// configuration skips verification and accepts TLS 1.0.
func (cfg *ConnectionConfig) tlsClientConfig() *tls.Config {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	if cfg.tlsConfig != nil {
		return cfg.tlsConfig.Clone()
	}

	return &tls.Config{
		ServerName:         cfg.host,
		InsecureSkipVerify: true, //nolint:gosec
		MinVersion:         tls.VersionTLS10,
	}
}

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error {
	if cfg == nil {
		return ErrConnConfigNil
	}

	cfg.mu.Lock()
	defer cfg.mu.Unlock()

	return c.applyFunc(cfg)
}

func newConnOptFunc(name string, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{name: name, applyFunc: f}
}

func withRemoteHost(host string) ConnOption {
	return newConnOptFunc("withRemoteHost", func(cfg *ConnectionConfig) error {
		if ip := net.ParseIP(host); ip != nil {
			cfg.host = host
			return nil
		}

		host = strings.Trim(host, ".")
		if host == "" || strings.ContainsAny(host, " /:") {
			return errors.New("m1xep: invalid host")
		}
		cfg.host = host

		return nil
	})
}

func withPort(port int) ConnOption {
	return newConnOptFunc("withPort", func(cfg *ConnectionConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("m1xep: port is out of range [0, 65535]")
		}
		cfg.port = port

		return nil
	})
}

// WithSecure enables TLS and the username/password login handshake.
//
// The default is plain text.
func WithSecure(val bool) ConnOption {
	return newConnOptFunc("WithSecure", func(cfg *ConnectionConfig) error {
		cfg.secure = val
		return nil
	})
}

// WithCredentials sets the login used by the secure handshake.
func WithCredentials(username, password string) ConnOption {
	return newConnOptFunc("WithCredentials", func(cfg *ConnectionConfig) error {
		if username == "" {
			return errors.New("m1xep: empty username")
		}
		cfg.username = username
		cfg.password = password

		return nil
	})
}

// WithTLSConfig replaces the TLS configuration used in secure mode.
func WithTLSConfig(tlsCfg *tls.Config) ConnOption {
	return newConnOptFunc("WithTLSConfig", func(cfg *ConnectionConfig) error {
		cfg.tlsConfig = tlsCfg
		return nil
	})
}

// WithRequestTimeout sets the timeout of correlated requests. It should be between 100ms and 120 seconds.
//
// The default is 5 seconds.
func WithRequestTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithRequestTimeout", func(cfg *ConnectionConfig) error {
		if val < 100*time.Millisecond || val > 120*time.Second {
			return errors.New("m1xep: request timeout out of range [100ms, 120s]")
		}
		cfg.requestTimeout = val

		return nil
	})
}

// WithDescriptionTimeout sets the timeout of each request of a description sweep.
// It should be between 100ms and 120 seconds.
//
// The default is 15 seconds.
func WithDescriptionTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithDescriptionTimeout", func(cfg *ConnectionConfig) error {
		if val < 100*time.Millisecond || val > 120*time.Second {
			return errors.New("m1xep: description timeout out of range [100ms, 120s]")
		}
		cfg.descriptionTimeout = val

		return nil
	})
}

// WithConnectTimeout sets the timeout of dialing plus login. It should be between 100ms and 60 seconds.
//
// The default is 10 seconds.
func WithConnectTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithConnectTimeout", func(cfg *ConnectionConfig) error {
		if val < 100*time.Millisecond || val > 60*time.Second {
			return errors.New("m1xep: connect timeout out of range [100ms, 60s]")
		}
		cfg.connectTimeout = val

		return nil
	})
}

// WithWriteTimeout sets the write deadline of a frame. It should be between 100ms and 60 seconds.
//
// The default is 5 seconds.
func WithWriteTimeout(val time.Duration) ConnOption {
	return newConnOptFunc("WithWriteTimeout", func(cfg *ConnectionConfig) error {
		if val < 100*time.Millisecond || val > 60*time.Second {
			return errors.New("m1xep: write timeout out of range [100ms, 60s]")
		}
		cfg.writeTimeout = val

		return nil
	})
}

// WithAutoReconnect enables or disables reconnecting after the connection is lost.
//
// The default is true.
func WithAutoReconnect(val bool) ConnOption {
	return newConnOptFunc("WithAutoReconnect", func(cfg *ConnectionConfig) error {
		cfg.autoReconnect = val
		return nil
	})
}

// WithReconnectPolicy sets the reconnect backoff.
//
// The default is DefaultReconnectPolicy.
func WithReconnectPolicy(policy ReconnectPolicy) ConnOption {
	return newConnOptFunc("WithReconnectPolicy", func(cfg *ConnectionConfig) error {
		if policy.InitialDelay < 0 || policy.MaxDelay < 0 || policy.MaxAttempts < 0 {
			return errors.New("m1xep: invalid reconnect policy")
		}
		cfg.reconnectPolicy = policy

		return nil
	})
}

// WithImmediateReconnect reconnects right after a reset, with no delay and no attempt limit.
func WithImmediateReconnect() ConnOption {
	return newConnOptFunc("WithImmediateReconnect", func(cfg *ConnectionConfig) error {
		cfg.reconnectPolicy = ImmediateReconnectPolicy()
		return nil
	})
}

// WithStrictChecksum verifies the checksum of every received frame, not only of unregistered types.
func WithStrictChecksum(val bool) ConnOption {
	return newConnOptFunc("WithStrictChecksum", func(cfg *ConnectionConfig) error {
		cfg.strictChecksum = val
		return nil
	})
}

// WithHandlerQueueSize sets the number of decoded messages buffered for the subscriber goroutine.
// The receiver waits when the queue is full, so a subscriber awaiting a reply times out if more
// than size messages arrive ahead of the reply. It should be between 1 and 1000.
//
// The default is 100.
func WithHandlerQueueSize(size int) ConnOption {
	return newConnOptFunc("WithHandlerQueueSize", func(cfg *ConnectionConfig) error {
		if size < 1 || size > 1000 {
			return errors.New("m1xep: handler queue size out of range [1, 1000]")
		}
		cfg.handlerQueueSize = size

		return nil
	})
}

// WithWriteRateLimit limits outbound frames to perSecond with the given burst. perSecond <= 0
// removes the limit.
func WithWriteRateLimit(perSecond float64, burst int) ConnOption {
	return newConnOptFunc("WithWriteRateLimit", func(cfg *ConnectionConfig) error {
		if perSecond <= 0 {
			cfg.writeLimit = rate.Inf
			cfg.writeBurst = 1

			return nil
		}
		if burst < 1 {
			return errors.New("m1xep: write burst must be positive")
		}
		cfg.writeLimit = rate.Limit(perSecond)
		cfg.writeBurst = burst

		return nil
	})
}

// WithLogger sets the logger of the connection.
//
// The default is the package default logger.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("m1xep: nil logger")
		}
		cfg.logger = l

		return nil
	})
}
