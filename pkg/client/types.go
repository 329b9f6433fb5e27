package client

import "time"

// ReactionRequest is the body of POST /api/react.  Either Smarts or
// ReactionID selects the template.
type ReactionRequest struct {
	Smarts       string   `json:"smarts,omitempty"`
	Reactants    []string `json:"reactants"`
	ReactionName string   `json:"reaction_name,omitempty"`
	ReactionID   string   `json:"reaction_id,omitempty"`
}

// Verdict is the plausibility decision for one candidate product.  A nil
// Similarity means scoring was skipped and the candidate kept.
type Verdict struct {
	Product    string   `json:"product"`
	Similarity *float64 `json:"similarity"`
	Accepted   bool     `json:"is_valid"`
	Reason     string   `json:"reason"`
}

// ReactionResult is the answer of POST /api/react.
type ReactionResult struct {
	Products    []string  `json:"products"`
	Validation  []Verdict `json:"validation,omitempty"`
	AIValidated bool      `json:"ai_validated,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// TemplateStats are the counters kept per reaction label.
type TemplateStats struct {
	TotalRuns      int64      `json:"total_runs"`
	TotalProducts  int64      `json:"total_products"`
	ValidProducts  int64      `json:"valid_products"`
	FailedProducts int64      `json:"failed_products"`
	LastRun        *time.Time `json:"last_run"`
	SuccessRate    float64    `json:"success_rate"`
}

// Stats is the body of GET /api/stats.
type Stats struct {
	TotalFailedLogged int                      `json:"total_failed_logged"`
	FailureReasons    map[string]int           `json:"failure_reasons"`
	ReactionStats     map[string]TemplateStats `json:"reaction_stats"`
	Backend           string                   `json:"backend"`
}

// Failure is one rejected product from the failure log.
type Failure struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Reactants      []string  `json:"reactants"`
	Product        string    `json:"product"`
	Smarts         string    `json:"smarts"`
	ReactionName   *string   `json:"reaction_name"`
	Similarity     *float64  `json:"similarity"`
	Reason         string    `json:"reason"`
	ValidationType string    `json:"validation_type"`
}

// Reaction is a catalog template.
type Reaction struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Name       string `json:"name"`
	Difficulty int    `json:"difficulty"`
	Smarts     string `json:"smarts"`
	Condition  string `json:"condition,omitempty"`
}

// Catalog is the body of GET /api/reactions.
type Catalog struct {
	Source     string     `json:"source"`
	Categories []string   `json:"categories"`
	Reactions  []Reaction `json:"reactions"`
}

// Health is the liveness answer of /healthz.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

//Personal.AI order the ending
