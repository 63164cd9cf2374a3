// Package client reads captured traffic from the powhttp Data API.
//
// Only the read paths needed to rebuild request/response pairs are covered:
// sessions, bookmarks and single entries.
//
//	c := client.New(
//	    client.WithBaseURL("http://localhost:7777"),
//	    client.WithLimiter(rate.NewLimiter(50, 10)),
//	)
//	ids, err := c.EntryIDs(ctx, "active", false)
//	entry, err := c.GetEntry(ctx, "active", ids[0])
//
// "active" may be passed as a session or entry ID to reference whatever is
// currently focused in the powhttp interface. Bodies are base64-encoded;
// decode them with DecodeBody.
package client
