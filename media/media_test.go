package media

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"chat-console/errors"

	"github.com/stretchr/testify/require"
)

// stubSource replays fixed bytes as the capture device.
type stubSource struct {
	data string
	err  error
}

func (s stubSource) Open(_ context.Context) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.data)), nil
}

func TestRecorder_OneBlobPerSession(t *testing.T) {
	req := require.New(t)
	rec := NewRecorder(stubSource{data: "webm-bytes"})

	id, err := rec.Start(context.Background())
	req.NoError(err)
	req.NotEmpty(id)
	req.True(rec.Recording())

	// Give the copy goroutine time to drain the source.
	time.Sleep(20 * time.Millisecond)

	blob, err := rec.Stop()
	req.NoError(err)
	req.False(rec.Recording())
	req.Equal("audio_message.webm", blob.Name)
	req.Equal([]byte("webm-bytes"), blob.Data)
	req.NotEmpty(blob.Mimetype)
}

func TestRecorder_SecondStartFails(t *testing.T) {
	req := require.New(t)
	rec := NewRecorder(stubSource{data: "x"})

	_, err := rec.Start(context.Background())
	req.NoError(err)

	_, err = rec.Start(context.Background())
	req.ErrorIs(err, errors.ErrRecordingInFlight)

	_, err = rec.Stop()
	req.NoError(err)

	// A fresh session may start once the previous one stopped.
	_, err = rec.Start(context.Background())
	req.NoError(err)
	rec.Cancel()
}

func TestRecorder_PermissionDenied(t *testing.T) {
	req := require.New(t)
	rec := NewRecorder(stubSource{err: errors.ErrMicrophoneDenied})

	_, err := rec.Start(context.Background())
	req.ErrorIs(err, errors.ErrMicrophoneDenied)
	req.False(rec.Recording())

	// Stop without a session is its own error.
	_, err = rec.Stop()
	req.ErrorIs(err, errors.ErrNoRecording)
}

func TestRecorder_CancelDiscards(t *testing.T) {
	req := require.New(t)
	rec := NewRecorder(stubSource{data: "x"})

	_, err := rec.Start(context.Background())
	req.NoError(err)
	rec.Cancel()
	req.False(rec.Recording())

	_, err = rec.Stop()
	req.ErrorIs(err, errors.ErrNoRecording)
}

func TestPreviewStore_ReplaceReleasesPrevious(t *testing.T) {
	req := require.New(t)
	store := NewPreviewStore()

	first := store.Acquire("bob", "a.png", "image/png")
	req.Equal(1, store.OpenCount())

	second := store.Acquire("bob", "b.png", "image/png")
	req.Equal(1, store.OpenCount())

	current, err := store.Get("bob")
	req.NoError(err)
	req.Equal(second.ID, current.ID)

	// Releasing the stale handle must not drop the live one.
	first.Release()
	_, err = store.Get("bob")
	req.NoError(err)
}

func TestPreviewStore_ReleaseAllAndDoubleRelease(t *testing.T) {
	req := require.New(t)
	store := NewPreviewStore()

	preview := store.Acquire("group-2", "x.pdf", "application/pdf")
	store.Acquire("bob", "y.png", "image/png")
	req.Equal(2, store.OpenCount())

	store.ReleaseAll("group-2")
	req.Equal(1, store.OpenCount())
	_, err := store.Get("group-2")
	req.ErrorIs(err, errors.ErrPreviewReleased)

	preview.Release() // second release is a no-op
	req.Equal(1, store.OpenCount())
}
