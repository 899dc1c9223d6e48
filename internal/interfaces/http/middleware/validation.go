package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/halo-extras/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's validator report fields by their json (or
// form) name so details line up with the request body the client sent.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			default:
				return name
			}
		}
		return ""
	})
}

// tag -> message prefix; the rule parameter is appended
var ruleMessages = map[string]string{
	"min":   "Must be at least ",
	"max":   "Must be at most ",
	"oneof": "Must be one of: ",
	"gte":   "Must be greater than or equal to ",
	"lte":   "Must be less than or equal to ",
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"url":      "Invalid URL format",
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	prefix, ok := ruleMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	msg := prefix + fe.Param()
	if (fe.Tag() == "min" || fe.Tag() == "max") && fe.Type().Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}

// FormatValidationErrors turns validator failures into VALIDATION_ERROR
// details. Errors of any other kind produce an empty detail list.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var (
		verrs   validator.ValidationErrors
		details []dto.ValidationDetail
	)
	if errors.As(err, &verrs) {
		details = make([]dto.ValidationDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: validationMessage(fe)})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError answers 400 with the formatted details
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString(RequestIDKey)))
}
