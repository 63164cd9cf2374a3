package types

// EndpointSummary is a compact endpoint representation for listings.
type EndpointSummary struct {
	ID            string `json:"id"`
	OperationName string `json:"operation_name"`
	Method        string `json:"method"`
	PathTemplate  string `json:"path_template"`
	Category      string `json:"category"`
	Auth          string `json:"auth"`
	Statuses      []int  `json:"statuses,omitzero"`
	SampleCount   int    `json:"sample_count"`
	WarningCount  int    `json:"warning_count,omitempty"`
}

// EndpointOutcome is how one detected endpoint group fared during analysis.
type EndpointOutcome struct {
	ID     string `json:"id"`
	Method string `json:"method"`
	Path   string `json:"path"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
