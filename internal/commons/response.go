package commons

// Response is the envelope every account and transfer operation returns.
// Data is set only on success; Errors carries the per-field validation
// messages on failure.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// SuccessResponse wraps a completed operation's result.
func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

// ErrorResponse wraps a failed operation; the error sentinel itself travels
// on the second return value, this envelope carries the readable detail.
func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}
