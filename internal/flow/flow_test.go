package flow

import (
	"context"
	"testing"

	"github.com/NKAgeReverse/GlowBot/internal/models"
	"github.com/NKAgeReverse/GlowBot/internal/store"
)

func TestTransitionStartToQualify(t *testing.T) {
	state := models.NewConversationState("psid-1")
	Transition(state, models.Signals{SkinType: models.SkinTypeOily})
	if state.Stage != models.StageQualify {
		t.Errorf("stage = %q, want qualify", state.Stage)
	}
	if state.SkinType != models.SkinTypeOily {
		t.Errorf("skin type not recorded: %q", state.SkinType)
	}
}

func TestTransitionToRecommendWhenBothKnown(t *testing.T) {
	state := models.NewConversationState("psid-1")
	Transition(state, models.Signals{SkinType: models.SkinTypeOily})
	Transition(state, models.Signals{Concern: models.ConcernAcne})
	if state.Stage != models.StageRecommend {
		t.Errorf("stage = %q, want recommend", state.Stage)
	}
}

func TestTransitionWhichProductSkipsToRecommend(t *testing.T) {
	state := models.NewConversationState("psid-1")
	Transition(state, models.Signals{WhichProduct: true})
	if state.Stage != models.StageRecommend {
		t.Errorf("stage = %q, want recommend on explicit product request", state.Stage)
	}
}

func TestTransitionFirstSignalWinsForProfile(t *testing.T) {
	state := models.NewConversationState("psid-1")
	Transition(state, models.Signals{SkinType: models.SkinTypeOily})
	Transition(state, models.Signals{SkinType: models.SkinTypeDry})
	if state.SkinType != models.SkinTypeOily {
		t.Errorf("skin type overwritten: %q", state.SkinType)
	}
}

func TestTransitionStageNeverRegresses(t *testing.T) {
	state := models.NewConversationState("psid-1")
	state.Stage = models.StageRecommend
	Transition(state, models.Signals{SkinType: models.SkinTypeOily})
	if state.Stage != models.StageRecommend {
		t.Errorf("stage regressed to %q", state.Stage)
	}
}

func TestTransitionReadyToBuyAtThreshold(t *testing.T) {
	state := models.NewConversationState("psid-1")
	Transition(state, models.Signals{BuyingScore: 1})
	if state.ReadyToBuy {
		t.Fatal("ready to buy before threshold")
	}
	Transition(state, models.Signals{BuyingScore: 2})
	if !state.ReadyToBuy {
		t.Fatal("expected ready to buy at threshold")
	}
	if state.Stage != models.StageClose {
		t.Errorf("stage = %q, want close", state.Stage)
	}

	// Monotonic: a later weak message does not reset it.
	Transition(state, models.Signals{})
	if !state.ReadyToBuy || state.Stage != models.StageClose {
		t.Error("ready-to-buy or close stage reset by a weak message")
	}
}

func TestTransitionOrderIntentCountsTowardScore(t *testing.T) {
	state := models.NewConversationState("psid-1")
	Transition(state, models.Signals{OrderIntent: true, BuyingScore: 2})
	if !state.ReadyToBuy {
		t.Error("order intent should contribute one point to the lead score")
	}
}

func TestStateManagerGetOrCreate(t *testing.T) {
	sm := NewStoreBasedStateManager(store.NewInMemoryStore())
	ctx := context.Background()

	state, err := sm.GetOrCreate(ctx, "psid-9")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if state.SenderID != "psid-9" || state.Stage != models.StageStart {
		t.Errorf("fresh state wrong: %+v", state)
	}

	state.Stage = models.StageQualify
	if err := sm.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	again, err := sm.GetOrCreate(ctx, "psid-9")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if again.Stage != models.StageQualify {
		t.Errorf("persisted stage = %q, want qualify", again.Stage)
	}
}

func TestStateManagerGetUnknownSender(t *testing.T) {
	sm := NewStoreBasedStateManager(store.NewInMemoryStore())
	state, err := sm.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state for unknown sender, got %+v", state)
	}
}
