// Package risibank is a client for the RisiBank sticker catalog.
//
// The client performs one operation, Search, which issues
// GET {base}/search?search=<query> and decodes the list of sticker
// descriptors. Transient failures (network errors, timeouts, 5xx) are retried
// with exponential backoff, at most three attempts in total. Rate limiting
// (429) and other 4xx responses are returned immediately.
//
// Every error returned by Search is a *Error matching exactly one of
// ErrTransport, ErrRateLimited or ErrInvalidResponse with errors.Is.
//
//	client := risibank.New()
//	res, err := client.Search(ctx, "chat")
//	if errors.Is(err, risibank.ErrRateLimited) {
//	    // back off
//	}
package risibank
