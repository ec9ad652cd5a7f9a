package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// maxMoney is the first value a NUMERIC(12,2) column cannot hold.
const maxMoney = 1e10

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("money", isMoney); err != nil {
		panic(err)
	}
	return v
}

// isMoney accepts amounts a NUMERIC(12,2) column stores without rounding.
func isMoney(fl validator.FieldLevel) bool {
	amount := fl.Field().Float()
	if math.IsNaN(amount) || math.Abs(amount) >= maxMoney {
		return false
	}
	digits := strconv.FormatFloat(amount, 'f', -1, 64)
	dot := strings.IndexByte(digits, '.')
	return dot < 0 || len(digits)-dot-1 <= 2
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type BadRequestErrorResponse struct {
	Detail string            `json:"detail"`
	Errors []ValidationError `json:"errors"`
}

func ValidateRequest(obj any) []ValidationError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []ValidationError{{Message: err.Error(), Type: "invalid"}}
	}

	validationErrors := make([]ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Message: getErrorMsg(fe),
			Type:    fe.Tag(),
		})
	}
	return validationErrors
}

func getErrorMsg(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + err.Param()
	case "gte":
		return "Value must be greater than or equal to " + err.Param()
	case "oneof":
		return "Value must be one of: " + err.Param()
	case "money":
		return "Value must have at most two decimal places"
	case "len":
		return "Value must have length " + err.Param()
	default:
		return "Invalid value"
	}
}

func RespondWithValidationError(c *gin.Context, validationErrors []ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Detail: "Invalid request data",
		Errors: validationErrors,
	})
}

func RespondWithError(c *gin.Context, code int, detail string) {
	c.JSON(code, gin.H{
		"detail": detail,
	})
}
