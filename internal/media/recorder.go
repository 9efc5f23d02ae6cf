package media

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/samuflix/backend/internal/logging"
)

// WebMContentType is the container type produced by a recording.
const WebMContentType = "video/webm"

// State is the recording session state.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Capture is an exclusive handle on an audio+video device that yields
// container chunks until stopped.
type Capture interface {
	// Chunks is closed once the device has flushed its final chunk.
	Chunks() <-chan []byte
	// Stop asks the device to finalize the container.
	Stop(ctx context.Context) error
}

// Capturer acquires capture devices.
type Capturer interface {
	Start(ctx context.Context) (Capture, error)
}

// Preview is an optional live view bound to the active capture.
type Preview interface {
	Bind(capture Capture)
	Unbind()
}

// Blob is a finished recording.
type Blob struct {
	Data        []byte
	ContentType string
}

// Session drives one capture device through Idle → Recording → Idle.
type Session struct {
	capturer Capturer
	devices  DeviceLister
	preview  Preview

	mu        sync.Mutex
	state     State
	active    Capture
	chunks    [][]byte
	collected chan struct{}
}

// NewSession constructs a Session. devices and preview may be nil.
func NewSession(capturer Capturer, devices DeviceLister, preview Preview) *Session {
	return &Session{capturer: capturer, devices: devices, preview: preview}
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start acquires the capture device and begins buffering chunks. A failed
// acquisition returns a *CaptureError and leaves the session Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		return ErrAlreadyRecording
	}
	if s.capturer == nil {
		return &CaptureError{Kind: CaptureErrNoDevice, Err: fmt.Errorf("no capturer configured")}
	}

	capture, err := s.capturer.Start(ctx)
	if err != nil {
		captureErr := &CaptureError{Kind: ClassifyCaptureError(err), Err: err}
		captureErr.Devices = s.listDevices(ctx)
		logging.FromContext(ctx).Warn("capture device unavailable",
			"kind", string(captureErr.Kind),
			"devices", captureErr.Devices,
			"error", err,
		)
		return captureErr
	}

	s.chunks = nil
	s.active = capture
	s.state = StateRecording
	s.collected = make(chan struct{})
	go s.collect(capture.Chunks(), s.collected)

	if s.preview != nil {
		s.preview.Bind(capture)
	}
	return nil
}

// collect buffers chunks for the recording window identified by done. Chunks
// arriving after that window has closed are dropped.
func (s *Session) collect(chunks <-chan []byte, done chan struct{}) {
	defer close(done)
	for chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		s.mu.Lock()
		if s.collected == done {
			s.chunks = append(s.chunks, chunk)
		}
		s.mu.Unlock()
	}
}

// Stop finalizes the recording and returns the assembled container. It is a
// no-op returning an empty Blob while Idle.
func (s *Session) Stop(ctx context.Context) (Blob, error) {
	s.mu.Lock()
	if s.state == StateIdle || s.active == nil {
		s.mu.Unlock()
		return Blob{}, nil
	}
	capture, collected := s.active, s.collected
	s.active = nil
	s.mu.Unlock()

	stopErr := capture.Stop(ctx)

	select {
	case <-collected:
	case <-ctx.Done():
		logging.FromContext(ctx).Warn("recording finalize interrupted, keeping partial data", "error", ctx.Err())
	}

	s.mu.Lock()
	data := bytes.Join(s.chunks, nil)
	s.state = StateIdle
	s.collected = nil
	s.mu.Unlock()

	if s.preview != nil {
		s.preview.Unbind()
	}

	blob := Blob{Data: data, ContentType: WebMContentType}
	if stopErr != nil {
		return blob, fmt.Errorf("stop capture: %w", stopErr)
	}
	return blob, nil
}

func (s *Session) listDevices(ctx context.Context) []Device {
	if s.devices == nil {
		return nil
	}
	devices, err := s.devices.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Debug("enumerate capture devices", "error", err)
	}
	return devices
}
