// Package flow implements the per-sender conversation state machine.
//
// The sales funnel is a fixed lattice (start < qualify < recommend <
// close). Transitions are driven by extracted signals and are monotonic:
// a later message with weaker signals never moves a sender back to an
// earlier stage, and ReadyToBuy never resets within a session.
package flow

import (
	"log/slog"
	"time"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// Transition applies the extracted signals to a sender's state in place.
//
// Rules, in order:
//   - start -> qualify on any skin-type or concern signal
//   - qualify -> recommend once both skin type and concern are known, or
//     on an explicit which-product request
//   - any -> close once the lead score reaches the threshold
//
// Stage updates go through advanceStage, which only ever moves forward.
func Transition(state *models.ConversationState, sig models.Signals) {
	if sig.SkinType != "" && state.SkinType == "" {
		state.SkinType = sig.SkinType
	}
	if sig.Concern != "" && state.Concern == "" {
		state.Concern = sig.Concern
	}
	if sig.Language != "" {
		state.Language = sig.Language
	}

	state.LeadScore += sig.BuyingScore
	if sig.OrderIntent {
		state.LeadScore++
	}
	if state.LeadScore >= models.LeadScoreThreshold {
		// Monotonic: once true, stays true for the session.
		state.ReadyToBuy = true
	}

	if sig.SkinType != "" || sig.Concern != "" {
		advanceStage(state, models.StageQualify)
	}
	if (state.SkinType != "" && state.Concern != "") || sig.WhichProduct {
		advanceStage(state, models.StageRecommend)
	}
	if state.ReadyToBuy {
		advanceStage(state, models.StageClose)
	}

	state.UpdatedAt = time.Now()
}

// advanceStage moves the stage forward only. Attempts to set an earlier
// stage are ignored, which is the corrected non-regression behavior.
func advanceStage(state *models.ConversationState, target models.Stage) {
	if target.Rank() > state.Stage.Rank() {
		slog.Debug("Flow stage advanced", "senderID", state.SenderID, "from", state.Stage, "to", target)
		state.Stage = target
	}
}
