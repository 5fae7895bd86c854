package recording

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/testivid/testivid/internal/api"
	"github.com/testivid/testivid/internal/capture"
	"github.com/testivid/testivid/internal/models"
	"github.com/testivid/testivid/internal/shared"
)

const (
	// CountdownTicks is the number of one-second ticks before capture starts.
	CountdownTicks = 3

	// TickInterval is the cadence the UI drives Tick at.
	TickInterval = time.Second

	// MaxTakeDuration is the hard ceiling on a single take. Hitting it
	// auto-stops the capture exactly as an explicit stop would.
	MaxTakeDuration = 5 * time.Minute
)

// Step is the coarse session progression. It only moves forward.
type Step int

const (
	StepInfo Step = iota
	StepRecording
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepInfo:
		return "info"
	case StepRecording:
		return "recording"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// CaptureState is the per-question capture sub-state. Live capture, active
// recording, and preview of the last take are mutually exclusive.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureCountdown
	CaptureRecording
	CapturePreviewReady
)

func (s CaptureState) String() string {
	switch s {
	case CaptureIdle:
		return "idle"
	case CaptureCountdown:
		return "countdown"
	case CaptureRecording:
		return "recording"
	case CapturePreviewReady:
		return "preview"
	default:
		return "unknown"
	}
}

// History persists completed submissions for the local record command.
// Save failures are logged, never surfaced; the upload already succeeded.
type History interface {
	Save(ctx context.Context, record models.SubmissionRecord) error
}

// Engine drives one testimonial recording session from customer info through
// per-question capture to the final multipart upload.
//
// All methods serialize on an internal mutex. The capture device delivers
// events on its own goroutine; the UI forwards them through HandleEvent.
type Engine struct {
	mu      sync.Mutex
	api     *api.Client
	factory capture.Factory
	logger  *log.Logger
	history History

	invitation *api.Invitation
	token      string

	step          Step
	captureState  CaptureState
	questionIndex int
	recordings    []models.Recording

	customerName  string
	customerTitle string
	bgColor       string

	countdownRemaining int
	device             capture.Device
	chunks             [][]byte
	takeStarted        time.Time
	lastTake           []byte

	// finalRecordings is the snapshot produced by the last Accept; Submit
	// sends exactly this set, never a re-read of mutated session state.
	finalRecordings []models.Recording

	processing bool
	submitted  bool
	videoURLs  []string
	lastErr    error
	closed     bool

	now func() time.Time
}

// NewEngine creates a session for a validated invitation.
func NewEngine(client *api.Client, factory capture.Factory, invitation *api.Invitation, token string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		api:          client,
		factory:      factory,
		logger:       logger,
		invitation:   invitation,
		token:        token,
		step:         StepInfo,
		captureState: CaptureIdle,
		bgColor:      models.DefaultBackgroundColor,
		now:          time.Now,
	}
}

// SetHistory attaches a local submission history sink.
func (e *Engine) SetHistory(h History) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = h
}

// Step returns the coarse session step.
func (e *Engine) Step() Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step
}

// CaptureState returns the per-question capture state.
func (e *Engine) CaptureState() CaptureState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.captureState
}

// Questions returns the session's fixed question list.
func (e *Engine) Questions() []models.Question {
	return e.invitation.Questions
}

// QuestionIndex returns the index of the question currently being captured.
func (e *Engine) QuestionIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questionIndex
}

// CurrentQuestion returns the question being captured, nil once complete.
func (e *Engine) CurrentQuestion() *models.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.questionIndex >= len(e.invitation.Questions) {
		return nil
	}
	q := e.invitation.Questions[e.questionIndex]
	return &q
}

// Recordings returns a copy of the accepted takes so far, in question order.
func (e *Engine) Recordings() []models.Recording {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Recording, len(e.recordings))
	copy(out, e.recordings)
	return out
}

// CountdownRemaining returns the ticks left before capture starts.
func (e *Engine) CountdownRemaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.countdownRemaining
}

// PreviewSize returns the byte length of the take awaiting accept or retake.
func (e *Engine) PreviewSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lastTake)
}

// TakeElapsed returns how long the current take has been recording.
func (e *Engine) TakeElapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.captureState != CaptureRecording {
		return 0
	}
	return e.now().Sub(e.takeStarted)
}

// IsProcessing reports whether the submission request is outstanding.
func (e *Engine) IsProcessing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processing
}

// Submitted reports whether the session reached its terminal success state.
func (e *Engine) Submitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}

// VideoURLs returns the processed output URLs after a successful submission.
func (e *Engine) VideoURLs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.videoURLs
}

// Err returns the last operation error surfaced for view rendering.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// CustomerName returns the name collected during the info step.
func (e *Engine) CustomerName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.customerName
}

// SetBackgroundColor sets the display hint attached to subsequent takes.
func (e *Engine) SetBackgroundColor(color string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if color != "" {
		e.bgColor = color
	}
}

// CompleteInfo records the customer details and advances to the recording
// step. The name is required; the title is optional.
func (e *Engine) CompleteInfo(name, title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.step != StepInfo {
		return fmt.Errorf("%w: info already completed", shared.ErrInvalidState)
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	}
	if len(e.invitation.Questions) == 0 {
		return fmt.Errorf("%w: invitation has no questions", shared.ErrInvitationInvalid)
	}

	e.customerName = name
	e.customerTitle = title
	e.step = StepRecording
	return nil
}

// StartCountdown begins the pre-capture countdown for the current question.
// The capture hardware is probed first so device failures surface here
// rather than mid-countdown.
func (e *Engine) StartCountdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.step != StepRecording {
		return fmt.Errorf("%w: cannot record in step %s", shared.ErrInvalidState, e.step)
	}
	if e.captureState != CaptureIdle {
		return fmt.Errorf("%w: capture is %s", shared.ErrInvalidState, e.captureState)
	}

	if err := e.factory.Probe(ctx); err != nil {
		e.lastErr = err
		return err
	}

	e.lastErr = nil
	e.captureState = CaptureCountdown
	e.countdownRemaining = CountdownTicks
	return nil
}

// Tick advances time-driven behavior by one interval.
//
// In countdown it decrements the remaining ticks and starts the capture
// device when they reach zero. In recording it enforces the take ceiling,
// auto-stopping exactly as an explicit stop would. In any other state it is
// a no-op.
func (e *Engine) Tick(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.captureState {
	case CaptureCountdown:
		e.countdownRemaining--
		if e.countdownRemaining > 0 {
			return nil
		}
		return e.beginCaptureLocked(ctx)

	case CaptureRecording:
		if e.now().Sub(e.takeStarted) >= MaxTakeDuration {
			e.logger.Warn("take hit duration ceiling, auto-stopping", "question", e.questionIndex)
			return e.device.Stop()
		}
		return nil

	default:
		return nil
	}
}

// beginCaptureLocked starts the device for the current question. Callers
// hold the mutex.
func (e *Engine) beginCaptureLocked(ctx context.Context) error {
	device := e.factory.New()
	if err := device.Start(ctx); err != nil {
		e.captureState = CaptureIdle
		e.lastErr = fmt.Errorf("%w: %v", shared.ErrCaptureDevice, err)
		return e.lastErr
	}

	e.device = device
	e.chunks = nil
	e.takeStarted = e.now()
	e.captureState = CaptureRecording
	return nil
}

// DeviceEvents returns the live device's event stream, nil when no capture
// is in flight. The UI forwards each received event to HandleEvent.
func (e *Engine) DeviceEvents() <-chan capture.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device == nil {
		return nil
	}
	return e.device.Events()
}

// StopTake ends the current take. The transition to preview happens when the
// device's stopped event arrives through HandleEvent.
func (e *Engine) StopTake() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.captureState != CaptureRecording {
		return fmt.Errorf("%w: no take in progress", shared.ErrInvalidState)
	}
	return e.device.Stop()
}

// HandleEvent applies one capture device event.
//
// Data events accumulate encoded fragments. The stopped event concatenates
// them into one immutable take and enters preview. An error event abandons
// the take and returns to idle with the failure surfaced.
func (e *Engine) HandleEvent(ev capture.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.captureState != CaptureRecording {
		return
	}

	switch ev.Kind {
	case capture.EventData:
		if len(ev.Chunk) > 0 {
			e.chunks = append(e.chunks, ev.Chunk)
		}

	case capture.EventStopped:
		e.lastTake = bytes.Join(e.chunks, nil)
		e.chunks = nil
		e.device = nil
		e.captureState = CapturePreviewReady

	case capture.EventError:
		e.logger.Error("capture device failed", "error", ev.Err)
		e.chunks = nil
		e.device = nil
		e.captureState = CaptureIdle
		e.lastErr = fmt.Errorf("%w: %v", shared.ErrCaptureDevice, ev.Err)
	}
}

// Retake discards the previewed take and returns to idle for the same
// question. Nothing is appended to the session's recordings.
func (e *Engine) Retake() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.captureState != CapturePreviewReady {
		return fmt.Errorf("%w: no take to discard", shared.ErrInvalidState)
	}

	e.lastTake = nil
	e.captureState = CaptureIdle
	return nil
}

// Accept appends the previewed take as the current question's recording.
//
// When questions remain it advances to the next one and returns false. On
// the last question it moves the session to the complete step, snapshots the
// recordings for submission, and returns true; the caller then invokes
// Submit.
func (e *Engine) Accept() (final bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.captureState != CapturePreviewReady {
		return false, fmt.Errorf("%w: no take to accept", shared.ErrInvalidState)
	}

	question := e.invitation.Questions[e.questionIndex]
	e.recordings = append(e.recordings, models.Recording{
		QuestionID:      question.ID,
		Media:           e.lastTake,
		BackgroundColor: e.bgColor,
	})
	e.lastTake = nil
	e.captureState = CaptureIdle

	if e.questionIndex+1 < len(e.invitation.Questions) {
		e.questionIndex++
		return false, nil
	}

	e.questionIndex++
	e.step = StepComplete
	e.finalRecordings = make([]models.Recording, len(e.recordings))
	copy(e.finalRecordings, e.recordings)
	return true, nil
}

// Submit uploads the accepted recordings as one multipart request.
//
// An empty recording set fails locally without contacting the backend. On
// failure the session stays at the complete step with processing cleared so
// the error can be rendered; there is no automatic retry.
func (e *Engine) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.processing {
		e.mu.Unlock()
		return fmt.Errorf("%w: submission already in flight", shared.ErrInvalidState)
	}
	if e.submitted {
		e.mu.Unlock()
		return fmt.Errorf("%w: session already submitted", shared.ErrInvalidState)
	}

	recordings := e.finalRecordings
	if recordings == nil {
		recordings = make([]models.Recording, len(e.recordings))
		copy(recordings, e.recordings)
	}
	if len(recordings) == 0 {
		e.mu.Unlock()
		return shared.ErrNoRecordings
	}
	if e.step != StepComplete {
		e.mu.Unlock()
		return fmt.Errorf("%w: not all questions answered", shared.ErrInvalidState)
	}

	sub := api.Submission{
		Recordings:    recordings,
		CustomerName:  e.customerName,
		CustomerTitle: e.customerTitle,
		TestimonialID: e.invitation.Testimonial.ID,
		Token:         e.token,
	}
	e.processing = true
	e.lastErr = nil
	e.mu.Unlock()

	urls, err := e.api.SubmitTestimonial(ctx, sub)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.processing = false
	if err != nil {
		e.lastErr = fmt.Errorf("%w: %v", shared.ErrSubmitFailed, err)
		return e.lastErr
	}

	e.videoURLs = urls
	e.submitted = true

	if e.history != nil {
		record := models.SubmissionRecord{
			ID:            shared.GenerateID(),
			TestimonialID: sub.TestimonialID,
			CustomerName:  sub.CustomerName,
			VideoCount:    len(recordings),
			VideoURLs:     urls,
			SubmittedAt:   e.now(),
		}
		if err := e.history.Save(ctx, record); err != nil {
			e.logger.Warn("failed to record submission locally", "error", err)
		}
	}
	return nil
}

// Close releases the capture device if one is live. The engine is unusable
// afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.device != nil {
		if err := e.device.Stop(); err != nil {
			return err
		}
		e.device = nil
	}
	return nil
}
