package models

// MutationResult is the backend's answer to a document-creation request.
type MutationResult struct {
	TransactionID string           `json:"transactionId"`
	Results       []MutationOutput `json:"results"`
}

type MutationOutput struct {
	ID        string `json:"id"`
	Operation string `json:"operation"`
}
