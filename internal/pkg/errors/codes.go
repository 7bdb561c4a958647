package errors

import "net/http"

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrConflict        = 1003
	ErrBadRequest      = 1004
	ErrServiceUnavail  = 1005
	ErrTooManyRequests = 1006

	// Canvas errors (2000-2999)
	ErrCanvasNotFound     = 2000
	ErrCanvasInvalidInput = 2001
	ErrCanvasSaveFailed   = 2002

	// Agent run errors (3000-3999)
	ErrAgentModelFailed  = 3000
	ErrAgentLoopLimit    = 3001
	ErrAgentInvalidInput = 3002
	ErrAgentBusy         = 3003

	// Memory errors (4000-4999)
	ErrMemoryEmbeddingFailed = 4000
	ErrMemoryVectorDBFailed  = 4001
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	// Common errors
	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrConflict:        {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},

	// Canvas errors
	ErrCanvasNotFound:     {ErrCanvasNotFound, http.StatusNotFound, "Canvas not found"},
	ErrCanvasInvalidInput: {ErrCanvasInvalidInput, http.StatusBadRequest, "Invalid canvas input"},
	ErrCanvasSaveFailed:   {ErrCanvasSaveFailed, http.StatusInternalServerError, "Canvas save failed"},

	// Agent run errors
	ErrAgentModelFailed:  {ErrAgentModelFailed, http.StatusBadGateway, "Model communication failed"},
	ErrAgentLoopLimit:    {ErrAgentLoopLimit, http.StatusInternalServerError, "Agent loop limit exceeded"},
	ErrAgentInvalidInput: {ErrAgentInvalidInput, http.StatusBadRequest, "Invalid agent input"},
	ErrAgentBusy:         {ErrAgentBusy, http.StatusConflict, "Agent run already in progress"},

	// Memory errors
	ErrMemoryEmbeddingFailed: {ErrMemoryEmbeddingFailed, http.StatusInternalServerError, "Embedding generation failed"},
	ErrMemoryVectorDBFailed:  {ErrMemoryVectorDBFailed, http.StatusInternalServerError, "Vector database operation failed"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}
