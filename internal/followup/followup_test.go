package followup

import (
	"testing"
	"time"

	"github.com/NKAgeReverse/GlowBot/internal/flow"
	"github.com/NKAgeReverse/GlowBot/internal/messaging"
	"github.com/NKAgeReverse/GlowBot/internal/messenger"
	"github.com/NKAgeReverse/GlowBot/internal/models"
	"github.com/NKAgeReverse/GlowBot/internal/store"
)

type schedulerFixture struct {
	scheduler *Scheduler
	store     *store.InMemoryStore
	sent      *messenger.MockClient
}

func newSchedulerFixture(t *testing.T, delays ...time.Duration) *schedulerFixture {
	t.Helper()
	st := store.NewInMemoryStore()
	sent := messenger.NewMockClient()
	states := flow.NewStoreBasedStateManager(st)
	svc := messaging.NewMessengerService(sent)
	return &schedulerFixture{
		scheduler: NewScheduler(states, svc, delays...),
		store:     st,
		sent:      sent,
	}
}

func saveQuietState(t *testing.T, st *store.InMemoryStore, senderID string, lastSeen time.Time) {
	t.Helper()
	state := models.NewConversationState(senderID)
	state.LastUserTimestamp = lastSeen
	if err := st.SaveConversationState(*state); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func waitForSends(t *testing.T, sent *messenger.MockClient, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sent.Messages()) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d sends, got %d", want, len(sent.Messages()))
}

func TestScheduleFiresBothTiers(t *testing.T) {
	f := newSchedulerFixture(t, 20*time.Millisecond, 40*time.Millisecond)
	defer f.scheduler.Stop()

	saveQuietState(t, f.store, "psid-1", time.Now().Add(-time.Minute))
	f.scheduler.Schedule("psid-1")

	waitForSends(t, f.sent, 2)
	got := f.sent.Messages()
	if got[0].Message.Text == got[1].Message.Text {
		t.Error("expected distinct nudge texts per tier")
	}
}

func TestScheduleSupersedesPendingSlot(t *testing.T) {
	f := newSchedulerFixture(t, 30*time.Millisecond)
	defer f.scheduler.Stop()

	saveQuietState(t, f.store, "psid-1", time.Now().Add(-time.Minute))
	f.scheduler.Schedule("psid-1")
	time.Sleep(10 * time.Millisecond)
	f.scheduler.Schedule("psid-1")

	waitForSends(t, f.sent, 1)
	// Give the superseded timer a chance to fire wrongly.
	time.Sleep(60 * time.Millisecond)
	if got := len(f.sent.Messages()); got != 1 {
		t.Errorf("sent %d nudges, want 1 after supersession", got)
	}
}

func TestCancelStopsPendingNudge(t *testing.T) {
	f := newSchedulerFixture(t, 30*time.Millisecond)
	defer f.scheduler.Stop()

	saveQuietState(t, f.store, "psid-1", time.Now().Add(-time.Minute))
	f.scheduler.Schedule("psid-1")
	f.scheduler.Cancel("psid-1")

	time.Sleep(80 * time.Millisecond)
	if got := len(f.sent.Messages()); got != 0 {
		t.Errorf("sent %d nudges after cancel", got)
	}
}

func TestFireSkipsWhenSenderRepliedMeanwhile(t *testing.T) {
	f := newSchedulerFixture(t, 30*time.Millisecond)
	defer f.scheduler.Stop()

	saveQuietState(t, f.store, "psid-1", time.Now().Add(-time.Minute))
	f.scheduler.Schedule("psid-1")

	// The sender replies after scheduling; the stored timestamp moves past
	// the slot's schedule time.
	saveQuietState(t, f.store, "psid-1", time.Now().Add(time.Second))

	time.Sleep(80 * time.Millisecond)
	if got := len(f.sent.Messages()); got != 0 {
		t.Errorf("sent %d nudges despite newer activity", got)
	}
}

func TestFireDoesNothingForUnknownSender(t *testing.T) {
	f := newSchedulerFixture(t, 20*time.Millisecond)
	defer f.scheduler.Stop()

	f.scheduler.Schedule("ghost")
	time.Sleep(60 * time.Millisecond)
	if got := len(f.sent.Messages()); got != 0 {
		t.Errorf("sent %d nudges for a sender with no state", got)
	}
}

func TestNudgeLanguageFollowsState(t *testing.T) {
	f := newSchedulerFixture(t, 20*time.Millisecond)
	defer f.scheduler.Stop()

	state := models.NewConversationState("psid-en")
	state.Language = models.LanguageEnglish
	state.LastUserTimestamp = time.Now().Add(-time.Minute)
	if err := f.store.SaveConversationState(*state); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	f.scheduler.Schedule("psid-en")
	waitForSends(t, f.sent, 1)
	if got := f.sent.Messages(); got[0].Message.Text != nudges[0][models.LanguageEnglish] {
		t.Errorf("nudge = %q, want English tier-0 text", got[0].Message.Text)
	}
}

func TestStopCancelsEverything(t *testing.T) {
	f := newSchedulerFixture(t, 30*time.Millisecond)

	saveQuietState(t, f.store, "psid-1", time.Now().Add(-time.Minute))
	saveQuietState(t, f.store, "psid-2", time.Now().Add(-time.Minute))
	f.scheduler.Schedule("psid-1")
	f.scheduler.Schedule("psid-2")
	f.scheduler.Stop()

	time.Sleep(80 * time.Millisecond)
	if got := len(f.sent.Messages()); got != 0 {
		t.Errorf("sent %d nudges after Stop", got)
	}
}
