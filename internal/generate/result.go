package generate

// Status is the terminal state of one generation request.
type Status string

const (
	// StatusCompleted means suggestions were produced (possibly zero).
	StatusCompleted Status = "completed"
	// StatusSkipped means the image already had suggestions and force was not set.
	StatusSkipped Status = "skipped"
	// StatusFailed means every bounded attempt failed.
	StatusFailed Status = "failed"
)

// Result summarizes a generation request for the caller.
type Result struct {
	Status             Status
	AttemptID          string
	SuggestionsCreated int
	// Partial is true when at least one source failed or timed out while
	// others produced usable predictions.
	Partial       bool
	FailedSources []string
}
