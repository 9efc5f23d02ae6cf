package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// FFmpegCapturer records a V4L2 camera and an ALSA microphone into WebM
// (VP8 + Opus) streamed on ffmpeg's stdout.
type FFmpegCapturer struct {
	Binary       string
	VideoDevice  string
	AudioDevice  string
	VideoFormat  string
	AudioFormat  string
	ChunkSize    int
	StopTimeout  time.Duration
	StartTimeout time.Duration

	// Command builds the process; tests replace it.
	Command func(name string, args ...string) *exec.Cmd
}

// NewFFmpegCapturer constructs a capturer for the given devices.
func NewFFmpegCapturer(binary, videoDevice, audioDevice string) *FFmpegCapturer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegCapturer{
		Binary:       binary,
		VideoDevice:  videoDevice,
		AudioDevice:  audioDevice,
		VideoFormat:  "v4l2",
		AudioFormat:  "alsa",
		ChunkSize:    64 * 1024,
		StopTimeout:  10 * time.Second,
		StartTimeout: 15 * time.Second,
		Command:      exec.Command,
	}
}

// Args returns the ffmpeg arguments used for a recording.
func (c *FFmpegCapturer) Args() []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", c.VideoFormat, "-i", c.VideoDevice}
	if c.AudioDevice != "" {
		args = append(args, "-f", c.AudioFormat, "-i", c.AudioDevice, "-c:a", "libopus")
	}
	return append(args,
		"-c:v", "libvpx",
		"-deadline", "realtime",
		"-b:v", "1M",
		"-f", "webm",
		"pipe:1",
	)
}

// Start launches ffmpeg and returns once the first chunk has been produced.
// If ffmpeg exits first, its stderr becomes the acquisition error.
func (c *FFmpegCapturer) Start(ctx context.Context) (Capture, error) {
	if strings.TrimSpace(c.VideoDevice) == "" {
		return nil, errors.New("no capture device configured")
	}
	command := c.Command
	if command == nil {
		command = exec.Command
	}

	cmd := command(c.Binary, c.Args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	capture := &ffmpegCapture{
		cmd:         cmd,
		chunks:      make(chan []byte, 64),
		first:       make(chan struct{}),
		exited:      make(chan struct{}),
		stopTimeout: c.StopTimeout,
	}
	go capture.pump(stdout, c.chunkSize())

	startTimeout := c.StartTimeout
	if startTimeout <= 0 {
		startTimeout = 15 * time.Second
	}
	timer := time.NewTimer(startTimeout)
	defer timer.Stop()

	select {
	case <-capture.first:
		return capture, nil
	case <-capture.exited:
		select {
		case <-capture.first:
			return capture, nil
		default:
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" && capture.waitErr != nil {
			msg = capture.waitErr.Error()
		}
		return nil, fmt.Errorf("ffmpeg exited before recording: %s", msg)
	case <-timer.C:
		capture.kill()
		return nil, fmt.Errorf("capture device produced no data within %s", startTimeout)
	case <-ctx.Done():
		capture.kill()
		return nil, ctx.Err()
	}
}

func (c *FFmpegCapturer) chunkSize() int {
	if c.ChunkSize <= 0 {
		return 64 * 1024
	}
	return c.ChunkSize
}

type ffmpegCapture struct {
	cmd         *exec.Cmd
	chunks      chan []byte
	first       chan struct{}
	exited      chan struct{}
	waitErr     error
	stopTimeout time.Duration
	firstOnce   sync.Once
	stopOnce    sync.Once
	stopErr     error
}

func (f *ffmpegCapture) Chunks() <-chan []byte { return f.chunks }

// pump copies stdout into chunks and reaps the process once stdout closes.
func (f *ffmpegCapture) pump(stdout io.Reader, size int) {
	buf := make([]byte, size)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			f.firstOnce.Do(func() { close(f.first) })
			f.chunks <- chunk
		}
		if err != nil {
			break
		}
	}
	close(f.chunks)
	f.waitErr = f.cmd.Wait()
	close(f.exited)
}

// Stop interrupts ffmpeg so it writes the container trailer, killing it if it
// has not exited within the stop timeout.
func (f *ffmpegCapture) Stop(ctx context.Context) error {
	f.stopOnce.Do(func() {
		if f.cmd.Process == nil {
			return
		}
		if err := f.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			f.stopErr = fmt.Errorf("interrupt ffmpeg: %w", err)
		}

		timeout := f.stopTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-f.exited:
		case <-timer.C:
			f.kill()
			f.stopErr = errors.New("ffmpeg did not exit after interrupt, killed")
		case <-ctx.Done():
			f.kill()
			f.stopErr = ctx.Err()
		}
	})
	return f.stopErr
}

func (f *ffmpegCapture) kill() {
	if f.cmd.Process != nil {
		_ = f.cmd.Process.Kill()
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if extra := t.buf.Len() - t.limit; extra > 0 {
		t.buf.Next(extra)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
