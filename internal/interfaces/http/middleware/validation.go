package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/agency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var setupValidatorOnce sync.Once

// SetupValidator makes gin's validator report json (or form) field names
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(fieldName)
		}
	})
}

func fieldName(fld reflect.StructField) string {
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
}

// validationMessages maps validator tags to the text clients see. Length
// tags read differently for strings and numbers.
var validationMessages = map[string]func(e validator.FieldError) string{
	"required": func(validator.FieldError) string { return "This field is required" },
	"email":    func(validator.FieldError) string { return "Invalid email format" },
	"uuid":     func(validator.FieldError) string { return "Invalid UUID format" },
	"url":      func(validator.FieldError) string { return "Invalid URL format" },
	"e164":     func(validator.FieldError) string { return "Invalid phone number" },
	"oneof":    func(e validator.FieldError) string { return "Must be one of: " + e.Param() },
	"min":      func(e validator.FieldError) string { return bound("at least", e) },
	"max":      func(e validator.FieldError) string { return bound("at most", e) },
}

func bound(prefix string, e validator.FieldError) string {
	if e.Kind() == reflect.String {
		return fmt.Sprintf("Must be %s %s characters", prefix, e.Param())
	}
	return fmt.Sprintf("Must be %s %s", prefix, e.Param())
}

func validationMessage(e validator.FieldError) string {
	if msg, ok := validationMessages[e.Tag()]; ok {
		return msg(e)
	}
	return "Invalid value"
}

// FormatValidationErrors turns a binding error into the validation envelope.
// Decoder failures (malformed JSON, bad UUIDs) become one "body" detail.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		details = make([]dto.ValidationDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{
				Field:   fe.Field(),
				Message: validationMessage(fe),
				Tag:     fe.Tag(),
			})
		}
	case err != nil:
		details = []dto.ValidationDetail{{Field: "body", Message: err.Error()}}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 validation response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}
