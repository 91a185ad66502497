package notify

// DefaultBatchSize matches the FCM multicast limit of 500 tokens per call.
const DefaultBatchSize = 500

// Payload is the immutable content of one notification. Data values must be
// strings (FCM constraint).
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
}

// TokenResult records one failed per-token response from the provider.
type TokenResult struct {
	Index   int
	Code    string
	Message string
}

// Outcome is the result of one provider call.
type Outcome struct {
	Success  int
	Failure  int
	Failures []TokenResult
}

// Summary aggregates the outcomes of all batches for one triggering event.
type Summary struct {
	TokensTotal int
	Skipped     int
	Batches     int
	Success     int
	Failure     int
}
