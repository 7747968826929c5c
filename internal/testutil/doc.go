// Package testutil provides testing utilities for risibot.
//
// This package is intended for internal testing only and should not be imported
// by external packages.
//
// # Mock Servers
//
// NewMockServer stands in for the Telegram Bot API and NewMockCatalog for the
// sticker catalog. Both record every request:
//
//	tgServer := testutil.NewMockServer(t)
//	tgServer.OnBot("answerInlineQuery", func(w http.ResponseWriter, r *http.Request) {
//	    testutil.ReplyBool(w, true)
//	})
//
//	catalog := testutil.NewMockCatalog(t)
//	catalog.OnSearch(testutil.Sequence(
//	    func(w http.ResponseWriter, r *http.Request) { testutil.ReplyStatus(w, 503) },
//	    func(w http.ResponseWriter, r *http.Request) { testutil.ReplyStickers(w, testutil.Sticker(1, "gif")) },
//	))
//
// # Request Capture
//
//	cap := tgServer.LastCapture()
//	cap.AssertJSONField(t, "inline_query_id", "Q1")
//	answer := cap.InlineAnswer(t)
//
// # Fake Sleeper
//
// FakeSleeper satisfies resilience.Sleeper and records waits instead of
// sleeping:
//
//	sleeper := &testutil.FakeSleeper{}
//	client := risibank.New(risibank.WithSleeper(sleeper))
//	assert.Equal(t, 2, sleeper.CallCount())
package testutil
