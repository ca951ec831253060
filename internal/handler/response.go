// Package handler holds the HTTP response envelope shared by all route
// handlers.
package handler

// Response is the standard API envelope.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}

func NewSuccessMessageResponse(message string) Response {
	return Response{
		Status:  "success",
		Message: message,
	}
}

func NewErrorResponse(message string) Response {
	return Response{
		Status:  "error",
		Message: message,
	}
}
