package types

// ExportFormat selects the rendering of an exported model.
type ExportFormat string

// Export formats.
const (
	FormatOpenAPIJSON ExportFormat = "openapi-json"
	FormatOpenAPIYAML ExportFormat = "openapi-yaml"
	FormatMarkdown    ExportFormat = "markdown"
	FormatModel       ExportFormat = "model"
	FormatJSONSchema  ExportFormat = "jsonschema"
)

// ExportFormats lists every accepted format.
var ExportFormats = []ExportFormat{
	FormatOpenAPIJSON, FormatOpenAPIYAML, FormatMarkdown, FormatModel, FormatJSONSchema,
}

// TargetSummary reports one generated language.
type TargetSummary struct {
	Language string   `json:"language"`
	Status   string   `json:"status"`
	Dir      string   `json:"dir,omitempty"`
	Files    []string `json:"files,omitzero"`
	Warnings []string `json:"warnings,omitzero"`
	Error    string   `json:"error,omitempty"`
	Diff     string   `json:"diff,omitempty"`
}
