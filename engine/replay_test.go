package engine

import (
	"testing"

	"github.com/xraph/pushsync/id"
	"github.com/xraph/pushsync/interest"
	"github.com/xraph/pushsync/job"
	"github.com/xraph/pushsync/queue"
)

func entries(jobs ...job.Job) []queue.Entry {
	out := make([]queue.Entry, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, queue.Entry{ID: id.NewJobID(), Job: j})
	}
	return out
}

func TestReplaySubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	initial := interest.NewSet("sports", "weather")
	got := Replay(initial, entries(
		job.Subscribe{Interest: "news"},
		job.Unsubscribe{Interest: "sports"},
		job.StartRegistration{Token: "tok1"},
	))

	want := interest.NewSet("news", "weather")
	if !got.Interests.Equal(want) {
		t.Fatalf("interests = %v, want %v", got.Interests.Sorted(), want.Sorted())
	}
	if len(got.Deferred) != 0 {
		t.Fatalf("deferred = %d entries, want none", len(got.Deferred))
	}
}

func TestReplayStopResetsEverything(t *testing.T) {
	t.Parallel()

	got := Replay(interest.NewSet(), entries(
		job.Subscribe{Interest: "a"},
		job.SetUserID{UserID: "alice"},
		job.StopRegistration{},
		job.Subscribe{Interest: "b"},
		job.StartRegistration{Token: "tok1"},
	))

	if !got.Interests.Equal(interest.NewSet("b")) {
		t.Fatalf("interests = %v, want [b]", got.Interests.Sorted())
	}
	// The stop discards the user-id job queued before it.
	if len(got.Deferred) != 0 {
		t.Fatalf("deferred = %d entries, want none after stop", len(got.Deferred))
	}
}

func TestReplaySetSubscriptionsReplaces(t *testing.T) {
	t.Parallel()

	got := Replay(interest.NewSet("old1", "old2"), entries(
		job.Subscribe{Interest: "extra"},
		job.SetSubscriptions{Interests: []string{"x", "y"}},
	))

	if !got.Interests.Equal(interest.NewSet("x", "y")) {
		t.Fatalf("interests = %v, want [x y]", got.Interests.Sorted())
	}
}

func TestReplayDefersUserAndTokenJobsInOrder(t *testing.T) {
	t.Parallel()

	in := entries(
		job.SetUserID{UserID: "alice"},
		job.Subscribe{Interest: "news"},
		job.RefreshToken{Token: "tok2"},
	)
	got := Replay(interest.NewSet(), in)

	if len(got.Deferred) != 2 {
		t.Fatalf("deferred = %d entries, want 2", len(got.Deferred))
	}
	if got.Deferred[0].ID.String() != in[0].ID.String() || got.Deferred[1].ID.String() != in[2].ID.String() {
		t.Fatal("deferred entries out of submission order")
	}
}

func TestReplayIgnoresApplicationStarted(t *testing.T) {
	t.Parallel()

	got := Replay(interest.NewSet("keep"), entries(
		job.ApplicationStarted{},
	))

	if !got.Interests.Equal(interest.NewSet("keep")) {
		t.Fatalf("interests = %v, want [keep]", got.Interests.Sorted())
	}
	if len(got.Deferred) != 0 {
		t.Fatalf("deferred = %d entries, want none", len(got.Deferred))
	}
}

func TestReplayDoesNotMutateInitialSet(t *testing.T) {
	t.Parallel()

	initial := interest.NewSet("a")
	Replay(initial, entries(
		job.Subscribe{Interest: "b"},
		job.Unsubscribe{Interest: "a"},
	))

	if !initial.Equal(interest.NewSet("a")) {
		t.Fatalf("initial set mutated: %v", initial.Sorted())
	}
}
