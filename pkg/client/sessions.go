package client

import (
	"context"
	"fmt"
	"net/url"
)

func sessionPath(sessionID string, rest ...string) string {
	p := "/sessions/" + url.PathEscape(sessionID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

// ListSessions returns every session loaded in powhttp.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var sessions []Session
	if err := c.get(ctx, "/sessions", nil, &sessions); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns one session; "active" names the focused one.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	if err := c.get(ctx, sessionPath(sessionID), nil, &session); err != nil {
		return nil, fmt.Errorf("getting session %q: %w", sessionID, err)
	}
	return &session, nil
}

// GetSessionBookmarks returns the IDs of the bookmarked entries of a session.
func (c *Client) GetSessionBookmarks(ctx context.Context, sessionID string) ([]string, error) {
	var bookmarks []string
	if err := c.get(ctx, sessionPath(sessionID, "bookmarks"), nil, &bookmarks); err != nil {
		return nil, fmt.Errorf("getting bookmarks for session %q: %w", sessionID, err)
	}
	return bookmarks, nil
}

// EntryIDs returns the entry IDs of a session in capture order, or only the
// bookmarked ones.
func (c *Client) EntryIDs(ctx context.Context, sessionID string, bookmarkedOnly bool) ([]string, error) {
	if bookmarkedOnly {
		return c.GetSessionBookmarks(ctx, sessionID)
	}
	s, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.EntryIDs, nil
}

// GetEntry returns one captured transaction of a session.
func (c *Client) GetEntry(ctx context.Context, sessionID, entryID string) (*SessionEntry, error) {
	var entry SessionEntry
	if err := c.get(ctx, sessionPath(sessionID, "entries", entryID), nil, &entry); err != nil {
		return nil, fmt.Errorf("getting entry %q in session %q: %w", entryID, sessionID, err)
	}
	return &entry, nil
}
