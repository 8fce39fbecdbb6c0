package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(MessageTypeGameBid, GameActionData{
		GameID:         "game_1",
		ClientActionID: "a-1",
		Kind:           "spades",
		Value:          80,
	})
	require.NoError(t, err)
	msg.RequestID = "req-7"

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, MessageTypeGameBid, decoded.Type)
	assert.Equal(t, "req-7", decoded.RequestID)

	var data GameActionData
	require.NoError(t, json.Unmarshal(decoded.Data, &data))
	assert.Equal(t, "game_1", data.GameID)
	assert.Equal(t, 80, data.Value)
}

func TestErrorDataOmitsEmptyFields(t *testing.T) {
	raw, err := json.Marshal(ErrorData{Kind: "not-found", Message: "room missing"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "violations")
	assert.NotContains(t, string(raw), "currentVersion")
}
