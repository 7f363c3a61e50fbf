package sender

import "fmt"

// DefaultHost is the ingestion host.
const DefaultHost = "log.qoncrete.com"

// Endpoints holds the URLs one client posts to.
type Endpoints struct {
	// Single receives exactly one record as a bare JSON value.
	Single string

	// Batch receives a JSON array of records.
	Batch string
}

// BaseURL returns the ingestion base URL for the chosen transport.
func BaseURL(secure bool) string {
	if secure {
		return "https://" + DefaultHost
	}
	return "http://" + DefaultHost
}

// NewEndpoints builds the endpoints for one source. baseURL must not end
// with a slash.
func NewEndpoints(baseURL, sourceID, apiToken string) Endpoints {
	return Endpoints{
		Single: fmt.Sprintf("%s/%s?token=%s", baseURL, sourceID, apiToken),
		Batch:  fmt.Sprintf("%s/%s/batch?token=%s", baseURL, sourceID, apiToken),
	}
}

// For returns the endpoint a batch of n records is posted to.
func (e Endpoints) For(n int) string {
	if n == 1 {
		return e.Single
	}
	return e.Batch
}
