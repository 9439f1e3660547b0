package model

// ChatRequest is the body posted to the backend chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// SubmitRequest is the body accepted by the local session API.
type SubmitRequest struct {
	Message string `json:"message" binding:"required"`
}
