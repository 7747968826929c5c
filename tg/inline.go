package tg

import "encoding/json"

// InlineQueryResult represents one result of an inline query. Telegram
// defines 20+ result types; the bot only answers with photos and gifs.
type InlineQueryResult interface {
	inlineQueryResultTag()
	GetType() string
	GetID() string
}

// InlineQueryResultPhoto represents a link to a photo.
type InlineQueryResultPhoto struct {
	ID           string `json:"id"`
	PhotoURL     string `json:"photo_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (InlineQueryResultPhoto) inlineQueryResultTag() {}
func (InlineQueryResultPhoto) GetType() string       { return "photo" }
func (r InlineQueryResultPhoto) GetID() string       { return r.ID }

// MarshalJSON adds the "type" discriminator.
func (r InlineQueryResultPhoto) MarshalJSON() ([]byte, error) {
	type alias InlineQueryResultPhoto
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: r.GetType(), alias: alias(r)})
}

// InlineQueryResultGif represents a link to an animated GIF file.
type InlineQueryResultGif struct {
	ID           string `json:"id"`
	GifURL       string `json:"gif_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (InlineQueryResultGif) inlineQueryResultTag() {}
func (InlineQueryResultGif) GetType() string       { return "gif" }
func (r InlineQueryResultGif) GetID() string       { return r.ID }

// MarshalJSON adds the "type" discriminator.
func (r InlineQueryResultGif) MarshalJSON() ([]byte, error) {
	type alias InlineQueryResultGif
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: r.GetType(), alias: alias(r)})
}
