package docs

import (
	"fmt"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
)

// Markdown renders the model as a Markdown reference: title, base URLs,
// auth, then one section per endpoint in model order.
func Markdown(m *apimodel.Model) string {
	var sb strings.Builder

	title := m.Title
	if title == "" {
		title = "API"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	sb.WriteString("Inferred from captured HTTP traffic.\n\n")

	if len(m.BaseURLs) > 0 {
		sb.WriteString("## Base URLs\n\n")
		for _, u := range m.BaseURLs {
			fmt.Fprintf(&sb, "- `%s`\n", u)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Authentication\n\n")
	sb.WriteString(describeAuth(m.Auth))
	sb.WriteString("\n\n")

	if len(m.Endpoints) == 0 {
		sb.WriteString("No endpoints were detected.\n")
		return sb.String()
	}

	sb.WriteString("## Endpoints\n\n")
	sb.WriteString("| Operation | Method | Path | Samples |\n")
	sb.WriteString("|-----------|--------|------|---------|\n")
	for _, ep := range m.Endpoints {
		fmt.Fprintf(&sb, "| `%s` | %s | `%s` | %d |\n", ep.OperationName, ep.Method, ep.PathTemplate, ep.SampleCount)
	}
	sb.WriteString("\n")

	for i := range m.Endpoints {
		writeEndpoint(&sb, &m.Endpoints[i], m.Auth)
	}
	return sb.String()
}

func writeEndpoint(sb *strings.Builder, ep *apimodel.Endpoint, global apimodel.Auth) {
	fmt.Fprintf(sb, "### %s\n\n", ep.OperationName)
	fmt.Fprintf(sb, "`%s %s`\n\n", ep.Method, ep.PathTemplate)
	fmt.Fprintf(sb, "Observed in %d captured exchanges.", ep.SampleCount)
	if ep.Auth != global {
		fmt.Fprintf(sb, " %s", describeAuth(ep.Auth))
	}
	sb.WriteString("\n\n")

	if len(ep.PathParams) > 0 || len(ep.QueryParams) > 0 {
		sb.WriteString("**Parameters**\n\n")
		sb.WriteString("| Name | In | Type | Required |\n")
		sb.WriteString("|------|----|------|----------|\n")
		for _, p := range ep.PathParams {
			fmt.Fprintf(sb, "| `%s` | path | %s | yes |\n", p.Name, p.Kind)
		}
		for _, q := range ep.QueryParams {
			typ := q.Type.String()
			if q.Repeated {
				typ = "array<" + typ + ">"
			}
			if q.Volatile {
				typ += " (volatile)"
			}
			fmt.Fprintf(sb, "| `%s` | query | %s | %s |\n", q.Name, escapeCell(typ), yesNo(q.Required))
		}
		sb.WriteString("\n")
	}

	if ep.RequestBody != nil {
		ct := ep.RequestContentType
		if ct == "" {
			ct = "application/json"
		}
		fmt.Fprintf(sb, "**Request body** (%s, %s)\n\n", ct, requiredWord(ep.RequestBodyRequired))
		fmt.Fprintf(sb, "```\n%s\n```\n\n", ep.RequestBody.String())
	}

	if len(ep.Responses) > 0 {
		sb.WriteString("**Responses**\n\n")
		for _, r := range ep.Responses {
			fmt.Fprintf(sb, "- `%d` %s, %d samples", r.Status, statusDescription(r.Status), r.SampleCount)
			if r.Body != nil {
				fmt.Fprintf(sb, ": `%s`", r.Body.String())
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(ep.ResponseFields) > 0 {
		sb.WriteString("**Response fields**\n\n")
		sb.WriteString("| Field | Type | Required | Nullable | Seen | Examples |\n")
		sb.WriteString("|-------|------|----------|----------|------|----------|\n")
		for _, f := range ep.ResponseFields {
			fmt.Fprintf(sb, "| `%s` | %s | %s | %s | %.0f%% | %s |\n",
				f.Path, escapeCell(f.Type), yesNo(f.Required), yesNo(f.Nullable), f.Frequency*100, examples(f.Examples))
		}
		sb.WriteString("\n")
	}

	if len(ep.RateLimitHeaders) > 0 {
		sb.WriteString("**Rate limiting**: ")
		for i, h := range ep.RateLimitHeaders {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "`%s`", h)
		}
		sb.WriteString("\n\n")
	}

	if len(ep.Warnings) > 0 {
		sb.WriteString("**Warnings**\n\n")
		for _, w := range ep.Warnings {
			fmt.Fprintf(sb, "- %s\n", w)
		}
		sb.WriteString("\n")
	}
}

func describeAuth(a apimodel.Auth) string {
	switch a.Scheme {
	case apimodel.AuthBearer:
		return "Bearer token in the `Authorization` header."
	case apimodel.AuthBasic:
		return "HTTP Basic authentication."
	case apimodel.AuthAPIKey:
		if a.In == "query" {
			return fmt.Sprintf("API key in the `%s` query parameter.", a.Name)
		}
		return fmt.Sprintf("API key in the `%s` header.", a.Name)
	default:
		return "No authentication observed."
	}
}

func examples(vals []any) string {
	if len(vals) == 0 {
		return ""
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = "`" + escapeCell(fmt.Sprint(v)) + "`"
	}
	return strings.Join(parts, ", ")
}

// escapeCell keeps table cells on one row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func requiredWord(b bool) string {
	if b {
		return "required"
	}
	return "optional"
}
