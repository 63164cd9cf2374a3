package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: sdkgen_analyze
	AddTool(srv, &sdkmcp.Tool{
		Name:        "sdkgen_analyze",
		Description: "Load captured traffic (HAR files, proxy JSON logs or powhttp sessions), detect endpoints and infer their schemas. Stores the API model as a run and returns run_id with an endpoint summary. Pass run_id to the other sdkgen tools.",
	}, ToolAnalyze(d))

	// Tool 2: sdkgen_list_endpoints
	AddTool(srv, &sdkmcp.Tool{
		Name:        "sdkgen_list_endpoints",
		Description: "List the endpoints of an analyzed run with method, path template, auth, observed status codes and sample counts.",
	}, ToolListEndpoints(d))

	// Tool 3: sdkgen_describe_endpoint
	AddTool(srv, &sdkmcp.Tool{
		Name:        "sdkgen_describe_endpoint",
		Description: "Get the full model of one endpoint: path and query parameters, request body, responses per status, auth, rate-limit headers, field statistics and warnings.",
	}, ToolDescribeEndpoint(d))

	// Tool 4: sdkgen_generate
	AddTool(srv, &sdkmcp.Tool{
		Name:        "sdkgen_generate",
		Description: "Generate client libraries for a run (go, python, typescript or all). Each language is written to its own subdirectory and reported separately. Set check=true to diff against existing files without writing.",
	}, ToolGenerate(d))

	// Tool 5: sdkgen_export
	AddTool(srv, &sdkmcp.Tool{
		Name:        "sdkgen_export",
		Description: "Render a run as an OpenAPI 3.1 document (openapi-json, openapi-yaml), a Markdown reference (markdown), the raw API model (model), or the JSON Schema of one endpoint body (jsonschema).",
	}, ToolExport(d))

	// Tool 6: sdkgen_sessions_list
	AddTool(srv, &sdkmcp.Tool{
		Name:        "sdkgen_sessions_list",
		Description: "List powhttp sessions with their entry counts, for use as sdkgen_analyze sources",
	}, ToolSessionsList(d))
}
