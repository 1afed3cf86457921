// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotctl/internal/models"
)

// MockPlayer is a test double for services.Player that records every call.
//
// State is returned from PlaybackState; Err, when set, is returned by every method.
type MockPlayer struct {
	mu         sync.Mutex
	State      *models.Playback
	DeviceList []models.Device
	Err        error
	Calls      []string
	Args       []any
}

func (m *MockPlayer) record(name string, arg any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
	m.Args = append(m.Args, arg)
	return m.Err
}

// LastCall returns the most recent method name and argument.
func (m *MockPlayer) LastCall() (string, any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return "", nil
	}
	return m.Calls[len(m.Calls)-1], m.Args[len(m.Args)-1]
}

func (m *MockPlayer) PlaybackState(ctx context.Context) (*models.Playback, error) {
	if err := m.record("PlaybackState", nil); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.State == nil {
		return &models.Playback{}, nil
	}
	state := *m.State
	return &state, nil
}

func (m *MockPlayer) Play(ctx context.Context) error     { return m.record("Play", nil) }
func (m *MockPlayer) Pause(ctx context.Context) error    { return m.record("Pause", nil) }
func (m *MockPlayer) Next(ctx context.Context) error     { return m.record("Next", nil) }
func (m *MockPlayer) Previous(ctx context.Context) error { return m.record("Previous", nil) }

func (m *MockPlayer) Seek(ctx context.Context, positionMS int) error {
	return m.record("Seek", positionMS)
}

func (m *MockPlayer) Volume(ctx context.Context, percent int) error {
	return m.record("Volume", percent)
}

func (m *MockPlayer) Shuffle(ctx context.Context, state bool) error {
	return m.record("Shuffle", state)
}

func (m *MockPlayer) Repeat(ctx context.Context, state string) error {
	return m.record("Repeat", state)
}

func (m *MockPlayer) Devices(ctx context.Context) ([]models.Device, error) {
	if err := m.record("Devices", nil); err != nil {
		return nil, err
	}
	return m.DeviceList, nil
}

func (m *MockPlayer) Transfer(ctx context.Context, deviceID string, play bool) error {
	return m.record("Transfer", deviceID)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
