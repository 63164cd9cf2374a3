package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/powhttp-sdkgen/internal/mcp/tools"
)

// AddTool is [sdkmcp.AddTool] plus a startup check of the output type: it
// panics when Out has a field the SDK would describe with the wrong schema,
// such as a nil slice without omitzero or a json.RawMessage.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
