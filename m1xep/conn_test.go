package m1xep

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-elkm1/command"
	"github.com/arloliu/go-elkm1/dispatch"
	"github.com/arloliu/go-elkm1/logger"
	"github.com/arloliu/go-elkm1/message"
)

const (
	armingStatus = "1EAS100000004000000030000000000E"
	zoneChange   = "0AZC002200CE"
)

func TestMain(m *testing.M) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}
	logger.SetLevel(logger.ParseLevel(logLevel))

	os.Exit(m.Run())
}

// respondTo answers request lines whose command code is code.
func respondTo(code string, frames ...string) func(string) []string {
	return func(line string) []string {
		if len(line) >= 4 && line[2:4] == code {
			return frames
		}

		return nil
	}
}

func newTestConn(t *testing.T, p *fakePanel, opts ...ConnOption) *Connection {
	t.Helper()

	base := []ConnOption{
		WithLogger(testLogger()),
		WithRequestTimeout(time.Second),
		WithConnectTimeout(2 * time.Second),
		WithReconnectPolicy(ReconnectPolicy{InitialDelay: 10 * time.Millisecond, Factor: 2, MaxDelay: 50 * time.Millisecond}),
	}
	if p.cfg.secure {
		base = append(base, WithSecure(true), WithCredentials("user", "secret"))
	}

	cfg, err := NewConnectionConfig("127.0.0.1", p.port(), append(base, opts...)...)
	require.NoError(t, err)

	conn, err := NewConnection(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

type stateRecorder struct {
	mu     sync.Mutex
	states []ConnState
}

func (r *stateRecorder) handler(_ *Connection, _ ConnState, newState ConnState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, newState)
}

func (r *stateRecorder) get() []ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]ConnState(nil), r.states...)
}

func TestConnection_PlainRequest(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{respond: respondTo(command.CodeArmingStatus, armingStatus)})
	conn := newTestConn(t, p)

	rec := &stateRecorder{}
	conn.AddConnStateChangeHandler(rec.handler)

	require.NoError(conn.Open(context.Background()))
	require.Equal(ConnectedState, conn.State())
	require.Equal([]ConnState{ConnectingState, ConnectedState}, rec.get())

	report, err := conn.RequestArmingStatus(context.Background())
	require.NoError(err)
	require.Len(report.Areas, 8)
	require.Equal("Armed Away", report.Areas[0].ArmStatus.String())
	require.Equal("Armed Fully", report.Areas[0].ArmUpState.String())
	require.Equal("Fire", report.Areas[0].AlarmState.String())

	line, ok := p.nextLine(time.Second)
	require.True(ok)
	require.Equal(command.Status(command.CodeArmingStatus).Raw(), line)

	metrics := conn.GetMetrics()
	require.Equal(uint64(1), metrics.FramesSent.Load())
	require.Equal(uint64(1), metrics.FramesRecv.Load())

	require.NoError(conn.Close())
	require.Equal(NotConnectedState, conn.State())
	require.Equal(NotConnectedState, rec.get()[len(rec.get())-1])
}

func TestConnection_UnsolicitedMessages(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p)

	received := make(chan message.Message, 4)
	conn.Subscribe(dispatch.Wildcard, func(msg message.Message) { received <- msg })

	var errs []error
	var errMu sync.Mutex
	conn.AddErrorHandler(func(_ *Connection, err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	})

	require.NoError(conn.Open(context.Background()))

	p.waitConns(t, 1)
	p.broadcast("bogus", zoneChange)

	select {
	case msg := <-received:
		zc, ok := msg.(*message.ZoneChangeUpdate)
		require.True(ok)
		require.Equal(2, zc.ID)
	case <-time.After(time.Second):
		t.Fatal("zone change not dispatched")
	}

	require.Eventually(func() bool {
		errMu.Lock()
		defer errMu.Unlock()
		return len(errs) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(uint64(1), conn.GetMetrics().DecodeErrCount.Load())
}

func TestConnection_SecureHandshake(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{
		secure:   true,
		username: "user",
		password: "secret",
		welcome:  zoneChange + "\r\n",
		respond:  respondTo(command.CodeThermostatData, thermostatReply),
	})
	conn := newTestConn(t, p)

	rec := &stateRecorder{}
	conn.AddConnStateChangeHandler(rec.handler)

	received := make(chan message.Message, 4)
	conn.Subscribe(message.TypeZoneChange, func(msg message.Message) { received <- msg })

	require.NoError(conn.Open(context.Background()))
	require.Equal([]ConnState{ConnectingState, AuthenticatingState, ConnectedState}, rec.get())

	// the frame sent together with the login banner is dispatched
	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("welcome frame not dispatched")
	}

	reply, err := conn.RequestThermostat(context.Background(), 1)
	require.NoError(err)
	require.Equal("Cool", reply.Mode.String())
	require.Equal(68, reply.HeatSetPoint)
	require.Equal(75, reply.CoolSetPoint)
}

func TestConnection_AuthFailed(t *testing.T) {
	p := newFakePanel(t, panelConfig{secure: true, username: "user", password: "other"})
	conn := newTestConn(t, p)

	err := conn.Open(context.Background())
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, NotConnectedState, conn.State())
}

func TestConnection_DialRefused(t *testing.T) {
	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p)
	p.close()

	err := conn.Open(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, NotConnectedState, conn.State())
}

func TestConnection_SendNotConnected(t *testing.T) {
	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p)

	err := conn.ActivateTask(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = conn.RequestZoneStatus(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnection_FireAndForget(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p, WithWriteRateLimit(1000, 4))
	require.NoError(conn.Open(context.Background()))

	ctx := context.Background()
	require.NoError(conn.ArmArea(ctx, command.ArmAway, 1, 1234))
	require.NoError(conn.DisarmArea(ctx, 1, 1234))
	require.NoError(conn.OutputOn(ctx, 12, 30))
	require.NoError(conn.OutputOff(ctx, 12))
	require.NoError(conn.ToggleOutput(ctx, 12))
	require.NoError(conn.ActivateTask(ctx, 3))
	require.NoError(conn.SpeakWords(ctx, 96, 76, 130))

	// validation fails before anything is written
	require.ErrorIs(conn.SpeakWords(ctx, 96, -1), command.ErrValidation)
	require.ErrorIs(conn.ArmArea(ctx, command.ArmAway, 9, 1234), command.ErrValidation)

	var codes []string
	for i := 0; i < 9; i++ {
		line, ok := p.nextLine(time.Second)
		require.True(ok, "line %d", i)
		codes = append(codes, line[2:4])
	}
	require.Equal([]string{"a1", "a0", "cn", "cf", "ct", "tn", "sw", "sw", "sw"}, codes)

	_, ok := p.nextLine(50 * time.Millisecond)
	require.False(ok)
}

func TestConnection_Reconnect(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{respond: respondTo(command.CodeArmingStatus, armingStatus)})
	conn := newTestConn(t, p)

	rec := &stateRecorder{}
	conn.AddConnStateChangeHandler(rec.handler)

	require.NoError(conn.Open(context.Background()))

	p.dropConnections()

	require.Eventually(func() bool {
		states := rec.get()
		return len(states) >= 4 && states[len(states)-1] == ConnectedState
	}, 2*time.Second, 5*time.Millisecond)

	require.GreaterOrEqual(conn.GetMetrics().ReconnectCount.Load(), uint64(1))
	require.Equal(uint32(0), conn.GetMetrics().ConnRetryGauge.Load())

	states := rec.get()
	require.Equal([]ConnState{ConnectingState, ConnectedState, NotConnectedState, ConnectingState}, states[:4])

	_, err := conn.RequestArmingStatus(context.Background())
	require.NoError(err)
}

func TestConnection_ReconnectExhausted(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p, WithReconnectPolicy(ReconnectPolicy{InitialDelay: 5 * time.Millisecond, Factor: 1, MaxAttempts: 2}))

	errCh := make(chan error, 16)
	conn.AddErrorHandler(func(_ *Connection, err error) { errCh <- err })

	require.NoError(conn.Open(context.Background()))
	p.close()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case err := <-errCh:
			if err == ErrReconnectExhausted { //nolint:errorlint
				require.Equal(NotConnectedState, conn.State())
				require.Equal(uint64(2), conn.GetMetrics().ReconnectCount.Load())

				return
			}
		case <-deadline:
			t.Fatal("reconnect not exhausted")
		}
	}
}

func TestConnection_NoAutoReconnect(t *testing.T) {
	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p, WithAutoReconnect(false))

	require.NoError(t, conn.Open(context.Background()))
	p.dropConnections()

	require.Eventually(t, func() bool { return conn.State().IsNotConnected() }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, NotConnectedState, conn.State())
	assert.Equal(t, uint64(0), conn.GetMetrics().ReconnectCount.Load())
}

func TestConnection_CloseFailsPending(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p, WithRequestTimeout(10*time.Second))
	require.NoError(conn.Open(context.Background()))

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.RequestZoneStatus(context.Background())
		errCh <- err
	}()

	require.Eventually(func() bool { return conn.Correlator().PendingCount() == 1 }, time.Second, time.Millisecond)
	require.NoError(conn.Close())

	select {
	case err := <-errCh:
		require.ErrorIs(err, ErrConnClosed)
	case <-time.After(time.Second):
		t.Fatal("pending request not failed")
	}

	// closing twice is a no-op and the connection can be reopened
	require.NoError(conn.Close())
	require.NoError(conn.Open(context.Background()))
	require.Equal(ConnectedState, conn.State())
}

func TestConnection_RequestTimeout(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p, WithRequestTimeout(100*time.Millisecond))
	require.NoError(conn.Open(context.Background()))

	_, err := conn.RequestTemperatures(context.Background())
	require.ErrorIs(err, ErrTimeout)
	require.True(strings.Contains(err.Error(), command.CodeTemperatures))
	require.Equal(uint64(1), conn.GetMetrics().RequestTimeoutCount.Load())
}

func TestConnection_WaitState(t *testing.T) {
	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, conn.WaitState(ctx, ConnectedState), context.DeadlineExceeded)

	go func() { _ = conn.Open(context.Background()) }()
	require.NoError(t, conn.WaitState(context.Background(), ConnectedState))
}

func TestConnection_RequestFromConnectHandler(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{respond: respondTo(command.CodeArmingStatus, armingStatus)})
	conn := newTestConn(t, p)

	var report *message.ArmingStatusReport
	var reqErr error
	conn.AddConnStateChangeHandler(func(c *Connection, _ ConnState, newState ConnState) {
		if newState == ConnectedState {
			report, reqErr = c.RequestArmingStatus(context.Background())
		}
	})

	start := time.Now()
	require.NoError(conn.Open(context.Background()))
	require.Less(time.Since(start), 500*time.Millisecond)

	require.NoError(reqErr)
	require.Equal("Armed Away", report.Areas[0].ArmStatus.String())
}

func TestConnection_RequestFromSubscriber(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{respond: respondTo(command.CodeArmingStatus, armingStatus)})
	conn := newTestConn(t, p)

	type result struct {
		report *message.ArmingStatusReport
		err    error
	}
	results := make(chan result, 1)
	conn.Subscribe(message.TypeZoneChange, func(message.Message) {
		report, err := conn.RequestArmingStatus(context.Background())
		results <- result{report, err}
	})

	require.NoError(conn.Open(context.Background()))
	p.waitConns(t, 1)
	p.broadcast(zoneChange)

	select {
	case res := <-results:
		require.NoError(res.err)
		require.Equal("Fire", res.report.Areas[0].AlarmState.String())
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber request did not complete")
	}
}

func TestConnection_SubscribersKeepWireOrder(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p, WithHandlerQueueSize(1))

	var mu sync.Mutex
	var codes []string
	conn.Subscribe(dispatch.Wildcard, func(msg message.Message) {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		codes = append(codes, msg.TypeCode())
		mu.Unlock()
	})

	require.NoError(conn.Open(context.Background()))
	p.waitConns(t, 1)
	p.broadcast(zoneChange, armingStatus, zoneChange, armingStatus)

	want := []string{"ZC", "AS", "ZC", "AS"}
	require.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(codes) == len(want)
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(want, codes)
}

func TestConnection_OpenTwice(t *testing.T) {
	require := require.New(t)

	p := newFakePanel(t, panelConfig{})
	conn := newTestConn(t, p)

	require.NoError(conn.Open(context.Background()))
	require.NoError(conn.Open(context.Background()))
	require.Equal(ConnectedState, conn.State())

	_, ok := p.nextLine(100 * time.Millisecond)
	require.False(ok)
}
