package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/ptondereau/risibot/tg"
)

// Test constants for consistent test data.
const (
	// TestToken is a valid-format bot token for testing.
	TestToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"

	// TestUserID is a test user ID.
	TestUserID = int64(987654321)

	// TestBotID is a test bot ID.
	TestBotID = int64(123456789)

	// TestUsername is a test username.
	TestUsername = "testuser"

	// TestBotUsername is a test bot username.
	TestBotUsername = "risibot_test"

	// TestWebhookSecret is a valid secret_token value.
	TestWebhookSecret = "s3cr3t-t0k3n_for-tests"
)

// TestUser returns a test user fixture.
func TestUser() *tg.User {
	return &tg.User{
		ID:        TestUserID,
		IsBot:     false,
		FirstName: "Test",
		LastName:  "User",
		Username:  TestUsername,
	}
}

// TestBot returns a test bot user fixture.
func TestBot() *tg.User {
	return &tg.User{
		ID:                    TestBotID,
		IsBot:                 true,
		FirstName:             "Test Bot",
		Username:              TestBotUsername,
		SupportsInlineQueries: true,
	}
}

// TestInlineQuery returns an inline query fixture sent by TestUser.
func TestInlineQuery(id, query string) *tg.InlineQuery {
	return &tg.InlineQuery{
		ID:       id,
		From:     TestUser(),
		Query:    query,
		ChatType: "sender",
	}
}

// InlineQueryUpdate returns the webhook body of an inline query update.
func InlineQueryUpdate(updateID int, id, query string) []byte {
	return mustJSON(tg.Update{
		UpdateID:    updateID,
		InlineQuery: TestInlineQuery(id, query),
	})
}

// MessageUpdate returns the webhook body of a private text message update.
func MessageUpdate(updateID int, text string) []byte {
	return mustJSON(tg.Update{
		UpdateID: updateID,
		Message: &tg.Message{
			MessageID: 1,
			From:      TestUser(),
			Date:      1234567890,
			Chat:      &tg.Chat{ID: TestUserID, Type: "private"},
			Text:      text,
		},
	})
}

// StickerURL returns the media URL used by Sticker.
func StickerURL(id uint64, ext string) string {
	return fmt.Sprintf("https://risibank.fr/cache/medias/0/%d/%d/full.%s", id/100, id, ext)
}

// Sticker returns a catalog descriptor as the catalog serializes it.
func Sticker(id uint64, ext string) map[string]any {
	return map[string]any{
		"id":            id,
		"risibank_link": StickerURL(id, ext),
		"ext":           ext,
		"tags":          []string{"test"},
	}
}

// Stickers returns n descriptors with ids 1..n, all with the same extension.
func Stickers(n int, ext string) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, Sticker(uint64(i), ext))
	}
	return out
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
