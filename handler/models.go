package handler

import "encoding/json"

// GenerationRequest represents the expected JSON structure in the request body.
// Pointer fields distinguish "absent or null" from a supplied zero value.
type GenerationRequest struct {
	Prompt            *string         `json:"prompt"`
	Model             *string         `json:"model"`
	ImageSize         json.RawMessage `json:"image_size"`
	NumInferenceSteps *int            `json:"num_inference_steps"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Defaults are applied to fields a GenerationRequest leaves out.
type Defaults struct {
	Model             string
	ImageSize         string
	NumInferenceSteps int
}
