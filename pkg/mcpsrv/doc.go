// Package mcpsrv provides an extensible MCP server for the SDK generator.
//
// The server exposes the generator as tools: analyze captured traffic into
// an API model, inspect its endpoints, generate client libraries and export
// OpenAPI or Markdown documentation. Each analysis is kept as a run that
// later calls and the sdkgen://run/{run_id}/... resources refer to.
//
// # Basic Usage
//
//	server, err := mcpsrv.NewServer(client.New())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// Pass a nil client to serve HAR and proxy log captures only.
//
// # Extension
//
// Add custom tools using MCP SDK types directly:
//
//	import mcp "github.com/modelcontextprotocol/go-sdk/mcp"
//
//	type MyInput struct {
//	    RunID string `json:"run_id"`
//	}
//
//	type MyOutput struct {
//	    Count int `json:"count"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    client.New(),
//	    mcpsrv.WithDepsTool(&mcp.Tool{Name: "endpoint_count", Description: "Count endpoints"},
//	        func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	                run, ok := d.Runs.Get(in.RunID)
//	                if !ok {
//	                    return nil, MyOutput{}, fmt.Errorf("unknown run %s", in.RunID)
//	                }
//	                return nil, MyOutput{Count: len(run.Model.Endpoints)}, nil
//	            }
//	        }),
//	)
//
// # Configuration
//
// Configuration is read from SDKGEN_* and POWHTTP_* environment variables
// unless WithConfig supplies one:
//
//	server, err := mcpsrv.NewServer(
//	    nil,
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/powhttp-sdkgen.log"),
//	)
package mcpsrv
