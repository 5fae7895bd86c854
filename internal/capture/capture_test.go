package capture

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/testivid/testivid/internal/shared"
)

func TestFFmpegFactory(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			f := NewFFmpegFactory("", "", "")
			if f.Binary != "ffmpeg" {
				t.Errorf("expected default binary 'ffmpeg', got %s", f.Binary)
			}
			if f.VideoDevice != "/dev/video0" {
				t.Errorf("unexpected video device %s", f.VideoDevice)
			}
			if f.AudioDevice != "default" {
				t.Errorf("unexpected audio device %s", f.AudioDevice)
			}
		})

		t.Run("Capture Args Target Webm On Stdout", func(t *testing.T) {
			f := NewFFmpegFactory("ffmpeg", "/dev/video2", "hw:1")
			args := strings.Join(f.captureArgs(), " ")

			for _, want := range []string{"-i /dev/video2", "-i hw:1", "-f webm", "pipe:1"} {
				if !strings.Contains(args, want) {
					t.Errorf("expected args to contain %q, got %q", want, args)
				}
			}
		})
	})

	t.Run("Probe", func(t *testing.T) {
		t.Run("Binary Available", func(t *testing.T) {
			f := NewFFmpegFactory("ffmpeg", "", "")
			f.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
				if binary != "ffmpeg" {
					t.Errorf("unexpected binary %s", binary)
				}
				if len(args) != 1 || args[0] != "-version" {
					t.Errorf("unexpected args %v", args)
				}
				return []byte("ffmpeg version 6.0"), nil
			}

			if err := f.Probe(context.Background()); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})

		t.Run("Binary Missing", func(t *testing.T) {
			f := NewFFmpegFactory("ffmpeg", "", "")
			f.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
				return nil, errors.New("executable file not found")
			}

			err := f.Probe(context.Background())
			if !errors.Is(err, shared.ErrCaptureDevice) {
				t.Errorf("expected ErrCaptureDevice, got %v", err)
			}
		})
	})

	t.Run("Device", func(t *testing.T) {
		t.Run("Double Start Rejected", func(t *testing.T) {
			d := &ffmpegDevice{started: true, events: make(chan Event, 1)}
			if err := d.Start(context.Background()); !errors.Is(err, shared.ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		})

		t.Run("Stop Before Start Is Safe", func(t *testing.T) {
			d := &ffmpegDevice{events: make(chan Event, 1)}
			if err := d.Stop(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if err := d.Stop(); err != nil {
				t.Errorf("expected idempotent stop, got %v", err)
			}
		})
	})
}
