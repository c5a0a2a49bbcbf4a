package dto

type ErrorResponse struct {
	Message string   `json:"detail"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
