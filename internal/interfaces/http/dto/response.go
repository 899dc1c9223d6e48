package dto

// Response is the envelope of every JSON endpoint except the widget ones
// that answer with a flat {success, message}.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one invalid field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta carries pagination for list endpoints
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta computes TotalPages by rounding up; a
// non-positive pageSize yields zero pages.
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	meta := &Meta{Total: total, Page: page, PageSize: pageSize}
	if pageSize > 0 {
		size := int64(pageSize)
		meta.TotalPages = int((total + size - 1) / size)
	}
	return Response{Success: true, Data: data, Meta: meta}
}

func NewErrorResponse(code, message string) Response {
	return errorResponse(code, message, "", nil)
}

func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return errorResponse(code, message, requestID, nil)
}

// NewValidationErrorResponse lists the invalid fields under ERR_VALIDATION
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return errorResponse(ErrCodeValidation, message, requestID, details)
}

func errorResponse(code, message, requestID string, details []ValidationDetail) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID, Details: details}}
}
