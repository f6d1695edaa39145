package app_test

import (
	"strconv"
	"testing"

	"quizlab-service/internal/app"
	"quizlab-service/internal/domain"
)

func attemptResult(id string) domain.AttemptResult {
	return domain.AttemptResult{Attempt: domain.Attempt{ID: id, Kind: domain.KindAttempt}}
}

func TestResultsFeedDeliversToSubscribers(t *testing.T) {
	feed := app.NewResultsFeed()

	updates, cancel := feed.Subscribe("quiz-1")
	defer cancel()
	other, cancelOther := feed.Subscribe("quiz-2")
	defer cancelOther()

	feed.Publish("quiz-1", attemptResult("a1"))

	got := <-updates
	if got.Attempt.ID != "a1" {
		t.Fatalf("expected a1, got %s", got.Attempt.ID)
	}
	select {
	case leaked := <-other:
		t.Fatalf("quiz-2 subscriber received foreign attempt %s", leaked.Attempt.ID)
	default:
	}
}

func TestResultsFeedCancelClosesChannel(t *testing.T) {
	feed := app.NewResultsFeed()

	updates, cancel := feed.Subscribe("quiz-1")
	cancel()
	if _, ok := <-updates; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	// Cancel twice must not panic, and publishing afterwards goes nowhere.
	cancel()
	feed.Publish("quiz-1", attemptResult("a1"))
}

func TestResultsFeedDropsStaleForSlowSubscribers(t *testing.T) {
	feed := app.NewResultsFeed()

	updates, cancel := feed.Subscribe("quiz-1")
	defer cancel()

	// Publish far past the buffer without reading; the publisher must not
	// block and the newest result must survive.
	for i := 0; i < 20; i++ {
		feed.Publish("quiz-1", attemptResult("a"+strconv.Itoa(i)))
	}

	var last domain.AttemptResult
drain:
	for {
		select {
		case result := <-updates:
			last = result
		default:
			break drain
		}
	}
	if last.Attempt.ID != "a19" {
		t.Fatalf("expected newest attempt to survive, got %s", last.Attempt.ID)
	}
}
