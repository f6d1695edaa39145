package app

import (
	"sync"

	"quizlab-service/internal/domain"
)

// ResultsFeed fans scored attempts out to in-process subscribers, one
// registry per quiz. Used by the live results websocket.
type ResultsFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.AttemptResult]struct{}
}

func NewResultsFeed() *ResultsFeed {
	return &ResultsFeed{
		subscribers: make(map[string]map[chan domain.AttemptResult]struct{}),
	}
}

// Subscribe returns a channel that receives every attempt scored for the
// quiz. The caller must invoke the returned cancel function to avoid leaks.
func (f *ResultsFeed) Subscribe(quizID string) (<-chan domain.AttemptResult, func()) {
	ch := make(chan domain.AttemptResult, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.AttemptResult]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if subs, ok := f.subscribers[quizID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(f.subscribers, quizID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the result to every subscriber of the quiz. Slow
// subscribers lose their oldest pending update rather than blocking the
// publisher.
func (f *ResultsFeed) Publish(quizID string, result domain.AttemptResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[quizID] {
		select {
		case ch <- result:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
}
