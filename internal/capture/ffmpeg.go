package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/testivid/testivid/internal/shared"
)

const (
	// defaultChunkSize bounds the size of one EventData fragment.
	defaultChunkSize = 64 * 1024

	// probeTimeout bounds the hardware availability check.
	probeTimeout = 10 * time.Second
)

// CommandRunner executes an external command and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}

// FFmpegFactory creates ffmpeg-backed capture devices.
type FFmpegFactory struct {
	Binary      string
	VideoDevice string
	AudioDevice string
	ChunkSize   int
	Run         CommandRunner
}

// NewFFmpegFactory constructs a Factory that shells out to ffmpeg.
func NewFFmpegFactory(binary, videoDevice, audioDevice string) *FFmpegFactory {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if videoDevice == "" {
		videoDevice = "/dev/video0"
	}
	if audioDevice == "" {
		audioDevice = "default"
	}
	return &FFmpegFactory{
		Binary:      binary,
		VideoDevice: videoDevice,
		AudioDevice: audioDevice,
		ChunkSize:   defaultChunkSize,
		Run:         defaultCommandRunner,
	}
}

// Probe verifies the ffmpeg binary is present and can enumerate the capture
// input. Runs before the countdown so hardware failures surface early.
func (f *FFmpegFactory) Probe(ctx context.Context) error {
	if f.Run == nil {
		f.Run = defaultCommandRunner
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := f.Run(probeCtx, f.Binary, "-version"); err != nil {
		return fmt.Errorf("%w: %s not available: %v", shared.ErrCaptureDevice, f.Binary, err)
	}

	return nil
}

// New creates a fresh single-use device.
func (f *FFmpegFactory) New() Device {
	chunkSize := f.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &ffmpegDevice{
		binary:    f.Binary,
		args:      f.captureArgs(),
		chunkSize: chunkSize,
		events:    make(chan Event, 16),
	}
}

// captureArgs builds the webm capture pipeline written to stdout.
func (f *FFmpegFactory) captureArgs() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-i", f.VideoDevice,
		"-f", "pulse", "-i", f.AudioDevice,
		"-c:v", "libvpx", "-c:a", "libopus",
		"-f", "webm", "pipe:1",
	}
}

// ffmpegDevice is one ffmpeg process capturing until stopped.
type ffmpegDevice struct {
	binary    string
	args      []string
	chunkSize int
	events    chan Event

	mu      sync.Mutex
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	started bool
	stopped bool
}

func (d *ffmpegDevice) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("%w: device already started", shared.ErrInvalidState)
	}
	d.started = true

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, d.binary, d.args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", shared.ErrCaptureDevice, err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: %v", shared.ErrCaptureDevice, err)
	}

	d.cmd = cmd
	d.cancel = cancel

	go d.pump(stdout)

	return nil
}

// pump forwards encoded fragments until the process exits, then emits the
// terminal event and closes the stream.
func (d *ffmpegDevice) pump(stdout io.Reader) {
	defer close(d.events)

	buf := make([]byte, d.chunkSize)
	var readErr error
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			d.events <- Event{Kind: EventData, Chunk: chunk}
		}
		if err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}
	}

	waitErr := d.cmd.Wait()

	d.mu.Lock()
	wasStopped := d.stopped
	d.mu.Unlock()

	// A kill triggered by Stop is a clean shutdown, not a device failure.
	if wasStopped || (readErr == nil && waitErr == nil) {
		d.events <- Event{Kind: EventStopped}
		return
	}

	err := waitErr
	if readErr != nil {
		err = readErr
	}
	d.events <- Event{Kind: EventError, Err: fmt.Errorf("%w: %v", shared.ErrCaptureDevice, err)}
}

func (d *ffmpegDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return nil
	}
	d.stopped = true

	if d.cancel != nil {
		d.cancel()
	}

	return nil
}

func (d *ffmpegDevice) Events() <-chan Event {
	return d.events
}
