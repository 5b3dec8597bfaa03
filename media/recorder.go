// Package media handles audio capture and local attachment previews.
// Capture produces one in-memory blob per recording session; previews
// are scoped resources with explicit release, so abandoned selections
// do not leak.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"chat-console/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const recordedName = "audio_message.webm"

// Blob is one captured recording, kept in memory until upload.
type Blob struct {
	Name     string
	Mimetype string
	Data     []byte
}

// Source opens the capture device. Implementations return
// errors.ErrMicrophoneDenied when permission is not granted; recording
// then simply does not start.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Recorder captures audio from a Source. Only one recording may be in
// flight; Start while recording fails with ErrRecordingInFlight (the
// UI maps the button to Stop in that state).
type Recorder struct {
	mu        sync.Mutex
	source    Source
	sessionID string
	reader    io.ReadCloser
	buf       *bytes.Buffer
	done      chan error
}

func NewRecorder(source Source) *Recorder {
	return &Recorder{source: source}
}

// Recording reports whether a session is in flight.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader != nil
}

// Start opens the source and begins buffering. The returned session id
// identifies the recording until Stop.
func (r *Recorder) Start(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reader != nil {
		return "", errors.ErrRecordingInFlight
	}

	reader, err := r.source.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("start recording: %w", err)
	}

	r.sessionID = uuid.NewString()
	r.reader = reader
	r.buf = &bytes.Buffer{}
	r.done = make(chan error, 1)

	go func(dst *bytes.Buffer, src io.Reader, done chan<- error) {
		_, err := io.Copy(dst, src)
		done <- err
	}(r.buf, reader, r.done)

	return r.sessionID, nil
}

// Stop closes the session and returns the captured blob. The mimetype
// is sniffed when the source data allows it.
func (r *Recorder) Stop() (*Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reader == nil {
		return nil, errors.ErrNoRecording
	}

	_ = r.reader.Close()
	if err := <-r.done; err != nil && err != io.EOF && err != io.ErrClosedPipe {
		r.reset()
		return nil, fmt.Errorf("stop recording: %w", err)
	}

	data := append([]byte(nil), r.buf.Bytes()...)
	r.reset()

	mime := "audio/webm"
	if detected := mimetype.Detect(data); detected.String() != "application/octet-stream" {
		mime = detected.String()
	}
	return &Blob{Name: recordedName, Mimetype: mime, Data: data}, nil
}

// Cancel discards an in-flight recording without producing a blob.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reader == nil {
		return
	}
	_ = r.reader.Close()
	<-r.done
	r.reset()
}

func (r *Recorder) reset() {
	r.reader = nil
	r.buf = nil
	r.done = nil
	r.sessionID = ""
}
