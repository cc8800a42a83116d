// Package session owns the conversion attempts of one user session.
//
// A Controller holds at most one live attempt. Starting a new URL silently
// supersedes the previous attempt; starting the same URL while it is still
// in progress does nothing. Each attempt carries a generation number and the
// controller drops every update whose generation is no longer current, so a
// front end subscribed with Subscribe only ever sees the newest attempt:
//
//	ctl := session.New(p, session.WithCache(c), session.WithSink(sink))
//	defer ctl.Close()
//
//	stop := ctl.Subscribe(func(s model.ConversionState) {
//	    fmt.Println(model.Describe(s))
//	})
//	defer stop()
//
//	ctl.Start("https://youtu.be/dQw4w9WgXcQ", nil)
//
// Successful results are stored in the cache under their source URL and
// handed to the NotificationSink exactly once.
package session
