package risibank

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Sticker is one catalog descriptor. Fields the bot does not use are
// ignored when decoding.
type Sticker struct {
	ID       uint64 `json:"id"`
	MediaURL string `json:"risibank_link"`
	Ext      string `json:"ext"`
}

// UnmarshalJSON rejects descriptors whose media URL is not absolute.
func (s *Sticker) UnmarshalJSON(data []byte) error {
	type plain Sticker
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	u, err := url.Parse(p.MediaURL)
	if err != nil {
		return fmt.Errorf("sticker %d: risibank_link: %w", p.ID, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("sticker %d: risibank_link %q is not an absolute URL", p.ID, p.MediaURL)
	}
	*s = Sticker(p)
	return nil
}

// IsGIF reports whether the sticker is an animation. The extension must be
// exactly "gif".
func (s Sticker) IsGIF() bool {
	return s.Ext == "gif"
}

// SearchResult is the decoded body of a search response, in catalog order.
type SearchResult struct {
	Stickers []Sticker `json:"stickers"`
}
