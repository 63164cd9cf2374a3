package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// GenerateSDKPrompt is the name of the built-in workflow prompt.
const GenerateSDKPrompt = "generate_sdk"

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&sdkmcp.Prompt{
		Name:        GenerateSDKPrompt,
		Description: "Walk through turning captured traffic into client libraries: pick traffic, analyze, review endpoints, generate, export docs.",
		Arguments: []*sdkmcp.PromptArgument{
			{Name: "source", Description: "HAR or proxy log path, or a powhttp session ID ('active' for the active session)"},
			{Name: "host", Description: "Host to scope to; '*.example.com' includes subdomains"},
			{Name: "languages", Description: "Comma-separated target languages (default: configured languages)"},
		},
	}, s.handleGenerateSDK)
}

func (s *Server) handleGenerateSDK(_ context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	var args map[string]string
	if req != nil && req.Params != nil {
		args = req.Params.Arguments
	}
	source, host, languages := args["source"], args["host"], args["languages"]
	if languages == "" {
		languages = strings.Join(s.deps.Config.Languages, ",")
	}

	var sb strings.Builder
	sb.WriteString("# Generate an SDK from captured traffic\n\n")
	sb.WriteString("Build typed client libraries for the API seen in the captured traffic. ")
	sb.WriteString("Tools return summaries; the run resources return the full model and OpenAPI document, so only read them when needed.\n\n")

	sb.WriteString("## Steps\n\n")
	step := 1
	if source == "" {
		fmt.Fprintf(&sb, "%d. Pick traffic: call `sdkgen_sessions_list` to find a powhttp session, or use a HAR / JSON log path.\n", step)
		step++
	}
	fmt.Fprintf(&sb, "%d. Analyze: `sdkgen_analyze(%s)`.\n", step, analyzeArgs(source, host))
	step++
	fmt.Fprintf(&sb, "%d. Review: `sdkgen_list_endpoints()`. Check `failed` and `warnings` in the analysis first; "+
		"drift warnings mean samples disagreed and the field became a union.\n", step)
	step++
	fmt.Fprintf(&sb, "%d. Inspect anything surprising with `sdkgen_describe_endpoint(endpoint=\"<id or operation name>\")`. "+
		"If noise slipped in, re-run the analysis with a narrower host, methods or a jq `filter`.\n", step)
	step++
	fmt.Fprintf(&sb, "%d. Generate: `sdkgen_generate(languages=[%s])`. Targets fail independently; report any failed target with its error.\n", step, quoteList(languages))
	step++
	fmt.Fprintf(&sb, "%d. Document: `sdkgen_export(format=\"markdown\")` or `format=\"openapi-yaml\"`.\n\n", step)

	sb.WriteString("## Notes\n\n")
	sb.WriteString("- Operation names are derived from method and path (`list_users`, `get_user`, `create_user`); collisions get a `by_<param>` suffix.\n")
	sb.WriteString("- Credentials are never copied into the model: only the auth scheme and header or query name are recorded.\n")
	sb.WriteString("- Use `check=true` on sdkgen_generate to see whether previously generated code is stale without writing.\n")

	return &sdkmcp.GetPromptResult{
		Description: "SDK generation workflow",
		Messages: []*sdkmcp.PromptMessage{
			{Role: "user", Content: &sdkmcp.TextContent{Text: sb.String()}},
		},
	}, nil
}

func analyzeArgs(source, host string) string {
	var parts []string
	switch {
	case source == "":
		parts = append(parts, `sources=[{...}]`)
	case strings.HasSuffix(strings.ToLower(source), ".har"):
		parts = append(parts, fmt.Sprintf(`sources=[{har: %q}]`, source))
	case strings.Contains(source, "/") || strings.Contains(source, "."):
		parts = append(parts, fmt.Sprintf(`sources=[{log: %q}]`, source))
	default:
		parts = append(parts, fmt.Sprintf(`sources=[{session: %q}]`, source))
	}
	if host != "" {
		parts = append(parts, fmt.Sprintf(`hosts=[%q]`, host))
	}
	return strings.Join(parts, ", ")
}

func quoteList(csv string) string {
	var out []string
	for _, v := range strings.Split(csv, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, fmt.Sprintf("%q", v))
		}
	}
	return strings.Join(out, ", ")
}
