package models

type UploadResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	Kind         string `json:"kind"`
	MediaType    string `json:"media_type"`
	Status       string `json:"status"`
}

type ReviewResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type DocumentResponse struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	Status    string        `json:"status"`
	MediaType string        `json:"media_type"`
	Result    *ReviewResult `json:"result,omitempty"`
}

type AnalysisRequest struct {
	Jobs    []JobPosting `json:"jobs"`
	Concern string       `json:"concern"`
	Notes   []string     `json:"notes"`
}
