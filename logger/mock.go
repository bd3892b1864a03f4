package logger

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock implementing Logger.
//
// Log methods are matched with two arguments: the message and the key/value slice. Every
// log call is also recorded and can be read back with Entries.
type MockLogger struct {
	mock.Mock

	mu      sync.Mutex
	entries []Entry
}

// Entry is one call of a log method on a MockLogger.
type Entry struct {
	Level         Level
	Msg           string
	KeysAndValues []any
}

var _ Logger = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// AllowAll accepts log calls of any level and message without failing the test.
func (m *MockLogger) AllowAll() *MockLogger {
	for _, method := range []string{"Debug", "Info", "Warn", "Error", "Fatal"} {
		m.On(method, mock.Anything, mock.Anything).Maybe().Return()
	}

	return m
}

// Entries returns the recorded log calls at level or above, in call order.
func (m *MockLogger) Entries(level Level) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Level >= level {
			result = append(result, e)
		}
	}

	return result
}

func (m *MockLogger) log(method string, level Level, msg string, keysAndValues []any) {
	m.mu.Lock()
	m.entries = append(m.entries, Entry{Level: level, Msg: msg, KeysAndValues: keysAndValues})
	m.mu.Unlock()

	m.MethodCalled(method, msg, keysAndValues)
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.log("Debug", DebugLevel, msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.log("Info", InfoLevel, msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.log("Warn", WarnLevel, msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.log("Error", ErrorLevel, msg, keysAndValues)
}

func (m *MockLogger) Fatal(msg string, keysAndValues ...any) {
	m.log("Fatal", FatalLevel, msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level Level) {
	m.Called(level)
}

func (m *MockLogger) Level() Level {
	args := m.Called()
	return args.Get(0).(Level) //nolint:forcetypeassert
}

func (m *MockLogger) With(keyValues ...any) Logger {
	args := m.Called(keyValues)
	return args.Get(0).(Logger) //nolint:forcetypeassert
}
