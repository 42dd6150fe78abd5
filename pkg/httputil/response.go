package httputil

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/mediconnect/clinical-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondWithError maps err onto a status code and error envelope. Internal
// errors are attached to the context for logging and reported generically.
func RespondWithError(c *gin.Context, err error) {
	appErr := FromError(err)
	status := appErr.HTTPStatus()

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, NewErrorResponse("internal server error"))
		return
	}

	c.AbortWithStatusJSON(status, &Response{
		Status:  "error",
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// RespondWithBindError reports a gin binding failure. Validator errors carry
// the offending JSON field.
func RespondWithBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		RespondWithError(c, apperrors.NewValidation(fe.Field(), validationMessage(fe)))
		return
	}
	RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
}

// FromError converts any error into an AppError.
func FromError(err error) *apperrors.AppError {
	if appErr, ok := apperrors.As(err); ok {
		return appErr
	}
	return apperrors.NewInternal(err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// JSONTagName resolves struct fields to their json names in validator errors.
func JSONTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
