package models

// Attempt records one upstream HTTP call made during a lookup. URLs and
// body samples are stored with credentials already masked.
type Attempt struct {
	Provider   string `json:"provider"`
	Method     string `json:"method"`
	Shape      string `json:"shape,omitempty"`
	URL        string `json:"url"`
	Status     int    `json:"status"`
	BodySample string `json:"bodySample,omitempty"`
}
