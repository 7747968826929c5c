package inline

import (
	"strconv"

	"github.com/ptondereau/risibot/risibank"
	"github.com/ptondereau/risibot/tg"
)

// MaxResults caps the number of results in one answer.
const MaxResults = 15

// Results maps catalog descriptors to inline results, in catalog order,
// keeping at most MaxResults. A descriptor with extension exactly "gif"
// becomes an animation; everything else is sent as a photo. The media URL
// doubles as the thumbnail. The returned slice is never nil.
func Results(res *risibank.SearchResult) []tg.InlineQueryResult {
	if res == nil {
		return []tg.InlineQueryResult{}
	}

	n := min(len(res.Stickers), MaxResults)
	out := make([]tg.InlineQueryResult, 0, n)
	for _, s := range res.Stickers[:n] {
		out = append(out, Result(s))
	}
	return out
}

// Result maps a single descriptor.
func Result(s risibank.Sticker) tg.InlineQueryResult {
	id := strconv.FormatUint(s.ID, 10)
	if s.IsGIF() {
		return tg.InlineQueryResultGif{
			ID:           id,
			GifURL:       s.MediaURL,
			ThumbnailURL: s.MediaURL,
		}
	}
	return tg.InlineQueryResultPhoto{
		ID:           id,
		PhotoURL:     s.MediaURL,
		ThumbnailURL: s.MediaURL,
	}
}
