package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/NKAgeReverse/GlowBot/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalHistory serializes a short history for a nullable text column.
func marshalHistory(history []models.HistoryEntry) (interface{}, error) {
	if len(history) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal short history: %w", err)
	}
	return string(b), nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanConversationState scans one conversation state row.
func scanConversationState(row rowScanner) (*models.ConversationState, error) {
	var st models.ConversationState
	var skinType, concern, language, historyJSON sql.NullString
	var lastUserTS sql.NullTime
	var stage string
	err := row.Scan(
		&st.SenderID, &stage, &skinType, &concern, &st.LeadScore, &st.ReadyToBuy,
		&st.LeadAlerted, &language, &lastUserTS, &historyJSON, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.Stage = models.Stage(stage)
	st.SkinType = models.SkinType(skinType.String)
	st.Concern = models.Concern(concern.String)
	st.Language = models.Language(language.String)
	if lastUserTS.Valid {
		st.LastUserTimestamp = lastUserTS.Time
	}
	if historyJSON.Valid && historyJSON.String != "" {
		if err := json.Unmarshal([]byte(historyJSON.String), &st.ShortHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal short history for %s: %w", st.SenderID, err)
		}
	}
	return &st, nil
}

// collectConversationStates drains rows into a slice.
func collectConversationStates(rows *sql.Rows) ([]models.ConversationState, error) {
	var out []models.ConversationState
	for rows.Next() {
		st, err := scanConversationState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation state failed: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}
