package media

import (
	"sync"

	"chat-console/domain"
	"chat-console/errors"

	"github.com/google/uuid"
)

// Preview is a scoped handle on locally previewed bytes (the object-URL
// equivalent). Release it when the preview is replaced or the
// conversation is abandoned.
type Preview struct {
	ID           string
	Conversation domain.ConversationID
	Name         string
	Mimetype     string

	store *PreviewStore
	once  sync.Once
}

// Release frees the handle. Releasing twice is a no-op.
func (p *Preview) Release() {
	p.once.Do(func() {
		p.store.drop(p)
	})
}

// PreviewStore owns every live preview, at most one per conversation.
// Acquiring a new preview for a conversation releases the previous one.
type PreviewStore struct {
	mu   sync.Mutex
	open map[domain.ConversationID]*Preview
}

func NewPreviewStore() *PreviewStore {
	return &PreviewStore{open: make(map[domain.ConversationID]*Preview)}
}

// Acquire registers a preview for a conversation, replacing (and
// releasing) any previous one.
func (s *PreviewStore) Acquire(conversation domain.ConversationID, name, mime string) *Preview {
	s.mu.Lock()
	previous := s.open[conversation]
	preview := &Preview{
		ID:           uuid.NewString(),
		Conversation: conversation,
		Name:         name,
		Mimetype:     mime,
		store:        s,
	}
	s.open[conversation] = preview
	s.mu.Unlock()

	if previous != nil {
		previous.Release()
	}
	return preview
}

// Get returns the live preview of a conversation, if any.
func (s *PreviewStore) Get(conversation domain.ConversationID) (*Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preview, ok := s.open[conversation]
	if !ok {
		return nil, errors.ErrPreviewReleased
	}
	return preview, nil
}

// ReleaseAll frees the preview of one conversation (abandonment).
func (s *PreviewStore) ReleaseAll(conversation domain.ConversationID) {
	s.mu.Lock()
	preview := s.open[conversation]
	s.mu.Unlock()
	if preview != nil {
		preview.Release()
	}
}

// OpenCount is the number of live previews, for leak checks.
func (s *PreviewStore) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

func (s *PreviewStore) drop(p *Preview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.open[p.Conversation]; ok && current.ID == p.ID {
		delete(s.open, p.Conversation)
	}
}
