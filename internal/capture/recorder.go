// Package capture records short disposal clips from a camera-like source.
//
// A Recorder has two states, Idle and Recording. Start moves Idle to
// Recording and Stop moves it back, assembling the buffered chunks into one
// Video and handing it to a Submitter. Start while Recording is ignored and
// Stop while Idle is a no-op. The media stream is released by Close, and
// also when the context passed to Start is cancelled.
package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ecohunt/serverless-backend/internal/api"
)

// ErrPermissionDenied is returned by a Source when camera or microphone
// access is refused.
var ErrPermissionDenied = errors.New("capture: permission denied")

// ErrAbandoned is returned by Stop when the recording was torn down by
// cancellation before it could be assembled.
var ErrAbandoned = errors.New("capture: recording abandoned")

// Facing selects a camera.
type Facing string

// FacingEnvironment is the rear, world-facing camera.
const FacingEnvironment Facing = "environment"

// Constraints describe the stream requested from a Source.
type Constraints struct {
	Facing Facing
	Audio  bool
}

// Stream yields encoded media chunks. Read returns io.EOF once the stream
// ends and must return promptly when ctx is done.
type Stream interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Source acquires streams.
type Source interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Preview shows a live stream.
type Preview interface {
	Bind(s Stream)
}

// Video is one assembled recording.
type Video struct {
	Data        []byte
	ContentType string
}

// Submitter uploads a recording and returns its verdict.
type Submitter interface {
	Submit(ctx context.Context, v Video) (api.ValidateResponse, error)
}

// State of a Recorder.
type State int

// Recorder states.
const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Options bound a recording. Zero values disable the bound.
type Options struct {
	ContentType string
	MaxBytes    int
	MaxDuration time.Duration
	Preview     Preview
	Points      int // score shown before the first submission
}

// DefaultOptions are used by the CLI.
var DefaultOptions = Options{
	ContentType: "video/webm",
	MaxBytes:    50 << 20,
	MaxDuration: 30 * time.Second,
}

// Recorder drives one capture session.
type Recorder struct {
	src    Source
	sub    Submitter
	notify Notifier
	opts   Options

	mu     sync.Mutex
	state  State
	stream Stream
	chunks [][]byte
	size   int
	cancel context.CancelFunc
	done   chan struct{}
	ended  chan struct{}
	points int

	opening    bool
	openCancel context.CancelFunc
	gen        int // bumped by Close
}

// NewRecorder builds an idle Recorder.
func NewRecorder(src Source, sub Submitter, notify Notifier, opts Options) *Recorder {
	if opts.ContentType == "" {
		opts.ContentType = DefaultOptions.ContentType
	}
	if notify == nil {
		notify = NotifierFunc(func(Notice) {})
	}
	ended := make(chan struct{})
	close(ended)
	return &Recorder{src: src, sub: sub, notify: notify, opts: opts, points: opts.Points, ended: ended}
}

// State reports the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Points is the displayed score, updated after each approved submission.
func (r *Recorder) Points() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.points
}

// Ended is closed once the current recording stops taking chunks: after
// Stop or Close, or on its own when the stream ends or a size or duration
// bound is reached. In the latter cases the caller should still call Stop.
func (r *Recorder) Ended() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// Start begins recording, acquiring the stream first if none is held.
// Permission denial is reported through the Notifier and leaves the
// Recorder Idle; it is not retried. The permission wait runs without the
// lock, so Close can cancel it; if Close wins, Start returns ErrAbandoned
// and the late stream is released.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == Recording || r.opening {
		r.mu.Unlock()
		return nil
	}

	if r.stream == nil {
		octx, ocancel := context.WithCancel(ctx)
		defer ocancel()
		r.opening = true
		r.openCancel = ocancel
		gen := r.gen
		r.mu.Unlock()

		s, err := r.src.Open(octx, Constraints{Facing: FacingEnvironment, Audio: true})

		r.mu.Lock()
		r.opening = false
		r.openCancel = nil
		if r.gen != gen {
			r.mu.Unlock()
			if err == nil {
				_ = s.Close()
			}
			return ErrAbandoned
		}
		if err != nil {
			r.mu.Unlock()
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, ErrPermissionDenied):
				r.notify.Notify(Notice{Level: LevelError, Message: "Camera access denied"})
			default:
				r.notify.Notify(Notice{Level: LevelError, Message: "Camera unavailable"})
			}
			return err
		}
		r.stream = s
		if r.opts.Preview != nil {
			r.opts.Preview.Bind(s)
		}
	}
	defer r.mu.Unlock()

	var (
		pctx   context.Context
		cancel context.CancelFunc
	)
	if r.opts.MaxDuration > 0 {
		pctx, cancel = context.WithTimeout(ctx, r.opts.MaxDuration)
	} else {
		pctx, cancel = context.WithCancel(ctx)
	}
	r.chunks = nil
	r.size = 0
	r.cancel = cancel
	r.done = make(chan struct{})
	r.ended = make(chan struct{})
	r.state = Recording

	go r.pump(ctx, pctx, r.stream, r.done, r.ended)
	r.notify.Notify(Notice{Level: LevelSuccess, Message: "Recording started!"})
	return nil
}

// pump buffers chunks until the recording is stopped, the stream ends, or a
// bound is reached. If parent is cancelled the stream is released.
func (r *Recorder) pump(parent, ctx context.Context, s Stream, done, ended chan struct{}) {
	defer close(done)
	defer close(ended)
	for {
		chunk, err := s.Read(ctx)
		if err != nil {
			break
		}
		if len(chunk) == 0 {
			continue
		}
		r.mu.Lock()
		r.chunks = append(r.chunks, chunk)
		r.size += len(chunk)
		full := r.opts.MaxBytes > 0 && r.size >= r.opts.MaxBytes
		r.mu.Unlock()
		if full {
			break
		}
	}

	if parent.Err() != nil {
		r.abandon(s)
	}
}

// abandon drops the recording and releases s after a cancelled Start context.
func (r *Recorder) abandon(s Stream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream == s {
		_ = s.Close()
		r.stream = nil
	}
	r.state = Idle
	r.chunks = nil
	r.size = 0
}

// Stop ends the recording, assembles the clip and submits it. It returns
// the zero response and no error when Idle.
func (r *Recorder) Stop(ctx context.Context) (api.ValidateResponse, error) {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return api.ValidateResponse{}, nil
	}
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		// another Stop is already assembling this recording
		return api.ValidateResponse{}, nil
	}

	cancel()
	<-done

	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return api.ValidateResponse{}, ErrAbandoned
	}
	video := Video{Data: bytes.Join(r.chunks, nil), ContentType: r.opts.ContentType}
	r.chunks = nil
	r.size = 0
	r.state = Idle
	r.mu.Unlock()

	r.notify.Notify(Notice{Level: LevelInfo, Message: "Processing video..."})
	resp, err := r.sub.Submit(ctx, video)
	if err != nil {
		r.notify.Notify(Notice{Level: LevelError, Message: "Validation failed"})
		return resp, err
	}

	if resp.Success {
		r.mu.Lock()
		r.points += resp.Points
		r.mu.Unlock()
		r.notify.Notify(Notice{Level: LevelSuccess, Message: successMessage(resp)})
	} else {
		r.notify.Notify(Notice{Level: LevelError, Message: resp.Feedback})
	}
	return resp, nil
}

// Close releases the stream. It is safe to call in any state and more than
// once; a recording in progress is discarded and a pending Open is
// cancelled without being waited for.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.gen++
	if r.openCancel != nil {
		r.openCancel()
	}
	cancel, done := r.cancel, r.done
	recording := r.state == Recording
	r.mu.Unlock()

	if recording {
		if cancel != nil {
			cancel()
		}
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = Idle
	r.chunks = nil
	r.size = 0
	if r.stream == nil {
		return nil
	}
	err := r.stream.Close()
	r.stream = nil
	return err
}
