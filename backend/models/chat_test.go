package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMessagesEqual(t *testing.T) {
	base := ChatMessages{
		{ID: "welcome", SenderID: AdminSenderID, Text: "Добрий день!", Timestamp: 1000, IsSystem: true},
		{ID: "m1", SenderID: "user-1", Text: "Hello", Timestamp: 2000},
	}

	same := ChatMessages{
		{ID: "welcome", SenderID: AdminSenderID, Text: "Добрий день!", Timestamp: 1000, IsSystem: true},
		{ID: "m1", SenderID: "user-1", Text: "Hello", Timestamp: 2000},
	}
	assert.True(t, base.Equal(same))

	longer := append(append(ChatMessages{}, base...), ChatMessage{ID: "m2", SenderID: AdminSenderID, Text: "Hi", Timestamp: 3000})
	assert.False(t, base.Equal(longer))

	edited := append(ChatMessages{}, base...)
	edited[1].Text = "Hello!"
	assert.False(t, base.Equal(edited))

	assert.True(t, ChatMessages{}.Equal(nil), "empty and nil lists are the same chat")
}

func TestChatMessagesScanRoundtrip(t *testing.T) {
	original := ChatMessages{
		{ID: "welcome", SenderID: AdminSenderID, Text: "Добрий день!", Timestamp: 1000, IsSystem: true},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var fromBytes ChatMessages
	require.NoError(t, fromBytes.Scan(value))
	assert.True(t, original.Equal(fromBytes))

	// Некоторые драйверы отдают json-колонку строкой
	var fromString ChatMessages
	require.NoError(t, fromString.Scan(string(value.([]byte))))
	assert.True(t, original.Equal(fromString))

	var fromNull ChatMessages
	require.NoError(t, fromNull.Scan(nil))
	assert.Empty(t, fromNull)
}

func TestChatWelcomeTextFallsBackToUkrainian(t *testing.T) {
	assert.Equal(t, "Добрий день! Чим ми можемо допомогти?", ChatWelcomeText("uk"))
	assert.Equal(t, "Hello! How can we help you?", ChatWelcomeText("en"))
	assert.Equal(t, ChatWelcomeText("uk"), ChatWelcomeText("de"))
}
