package tools

import (
	"context"
	"errors"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/pkg/types"
)

// SessionsListInput is the input for sdkgen_sessions_list.
type SessionsListInput struct {
	WithBookmarks bool `json:"with_bookmarks,omitempty" jsonschema:"Also count bookmarked entries (one extra request per session)"`
}

// SessionsListOutput is the output for sdkgen_sessions_list.
type SessionsListOutput struct {
	Sessions []SessionInfo `json:"sessions,omitzero"`
	Hint     string        `json:"hint,omitempty"`
}

// SessionInfo describes one powhttp session and the source spec that loads it.
type SessionInfo struct {
	SessionID  string           `json:"session_id"`
	Name       string           `json:"name"`
	Active     bool             `json:"active,omitempty"`
	EntryCount int              `json:"entry_count"`
	Bookmarked *int             `json:"bookmarked,omitempty"`
	Source     types.SourceSpec `json:"source"`
}

// ToolSessionsList lists the powhttp sessions that can be passed to
// sdkgen_analyze. Empty sessions are listed but get no source hint.
func ToolSessionsList(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input SessionsListInput) (*sdkmcp.CallToolResult, SessionsListOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input SessionsListInput) (*sdkmcp.CallToolResult, SessionsListOutput, error) {
		if d.Client == nil {
			return nil, SessionsListOutput{}, WrapPowHTTPError(errors.New("powhttp client not configured"))
		}
		sessions, err := d.Client.ListSessions(ctx)
		if err != nil {
			return nil, SessionsListOutput{}, WrapPowHTTPError(err)
		}

		var activeID string
		if active, err := d.Client.GetSession(ctx, "active"); err == nil {
			activeID = active.ID
		} else {
			slog.Debug("no active powhttp session", slog.String("error", err.Error()))
		}

		var out SessionsListOutput
		for _, sess := range sessions {
			info := SessionInfo{
				SessionID:  sess.ID,
				Name:       sess.Name,
				Active:     sess.ID == activeID,
				EntryCount: len(sess.EntryIDs),
				Source:     types.SourceSpec{Session: sess.ID},
			}
			if input.WithBookmarks {
				ids, err := d.Client.GetSessionBookmarks(ctx, sess.ID)
				if err != nil {
					return nil, SessionsListOutput{}, WrapPowHTTPError(err)
				}
				n := len(ids)
				info.Bookmarked = &n
			}
			out.Sessions = append(out.Sessions, info)
		}

		if len(out.Sessions) > 0 {
			out.Hint = "Pass a session's source to sdkgen_analyze; set bookmarked_only to narrow it to bookmarked entries."
		}
		return nil, out, nil
	}
}
