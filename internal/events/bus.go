// Package events is a small in-process publish/subscribe bridge between
// components that are not directly wired to each other. Delivery is
// synchronous and only reaches subscribers registered at publish time;
// missed events are not replayed.
package events

import (
	"sync"

	"animepin/internal/models"
)

// PanelID names an info panel a subscriber can open.
type PanelID string

const (
	PanelAbout   PanelID = "about"
	PanelTerms   PanelID = "terms"
	PanelPrivacy PanelID = "privacy"
	PanelContact PanelID = "contact"
)

func (p PanelID) Valid() bool {
	switch p {
	case PanelAbout, PanelTerms, PanelPrivacy, PanelContact:
		return true
	}
	return false
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a non-blocking user-facing notification.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Topic is a single named signal with any number of subscribers.
type Topic[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// Subscribe registers fn and returns a cancel func removing it.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = make(map[int]func(T))
	}
	id := t.next
	t.next++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Publish delivers v synchronously to every current subscriber.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	fns := make([]func(T), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Later re-publishes v outside the current call stack. The detail viewer
// uses this to close and reopen with a sibling record instead of mutating
// in place.
func (t *Topic[T]) Later(v T) {
	go t.Publish(v)
}

// Bus carries the gallery's cross-component signals.
type Bus struct {
	DetailRequested Topic[models.ImageRecord]
	PanelRequested  Topic[PanelID]
	Notices         Topic[Notice]
}

func NewBus() *Bus {
	return &Bus{}
}

// Notify publishes a notice; nil-safe so callers need no bus wired in tests.
func (b *Bus) Notify(level NoticeLevel, message string) {
	if b == nil {
		return
	}
	b.Notices.Publish(Notice{Level: level, Message: message})
}
