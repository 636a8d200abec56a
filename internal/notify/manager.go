package notify

import (
	"sync"
	"time"
)

// CommentEvent describes a freshly created comment, fanned out to anyone
// watching the post's comment stream.
type CommentEvent struct {
	PostID    uint   `json:"post_id"`
	PostTitle string `json:"post_title"`
	CommentID uint   `json:"comment_id"`
	ParentID  *uint  `json:"parent_id,omitempty"`
	Author    string `json:"author"`
	Content   string `json:"content"`
}

type Manager interface {
	Subscribe(postID uint) (<-chan CommentEvent, func())
	Publish(evt CommentEvent)
}

// CommentNotifier is an in-process pub/sub over comment events, keyed by
// post. It backs the live comment stream endpoint.
type CommentNotifier struct {
	mu   sync.Mutex
	subs map[uint][]chan CommentEvent
}

func NewCommentNotifier() *CommentNotifier {
	return &CommentNotifier{
		subs: make(map[uint][]chan CommentEvent),
	}
}

// Subscribe registers a listener for one post. The returned cancel func
// removes the listener and closes its channel.
func (m *CommentNotifier) Subscribe(postID uint) (<-chan CommentEvent, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Buffer of 1 so a publisher is not blocked by an idle listener.
	ch := make(chan CommentEvent, 1)
	m.subs[postID] = append(m.subs[postID], ch)

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subscribers := m.subs[postID]
		for i, sub := range subscribers {
			if sub == ch {
				m.subs[postID] = append(subscribers[:i], subscribers[i+1:]...)
				close(ch)
				break
			}
		}
	}

	return ch, cancel
}

// Publish delivers the event to every listener on its post. A listener that
// stays full past the grace period misses the event rather than stalling the
// writer.
func (m *CommentNotifier) Publish(evt CommentEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[evt.PostID] {
		select {
		case sub <- evt:
		case <-time.After(500 * time.Millisecond):
		}
	}
}
