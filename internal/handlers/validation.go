package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/models"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
	appValidator "github.com/ud28188-create/codonyx.org/pkg/validator"
)

func init() {
	if err := appValidator.RegisterValidation("usertype", appValidator.OneOfFold(
		string(models.UserTypeAdvisor),
		string(models.UserTypeLaboratory),
	)); err != nil {
		panic(err)
	}

	types := make([]string, len(models.PublicationTypes))
	for i, t := range models.PublicationTypes {
		types[i] = string(t)
	}
	if err := appValidator.RegisterValidation("pubtype", appValidator.OneOfFold(types...)); err != nil {
		panic(err)
	}
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	return bindJSON(c, dest) && validate(c, dest)
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	return true
}

// bindFormAndValidate is bindAndValidate for multipart and urlencoded bodies.
func bindFormAndValidate[T any](c *gin.Context, dest *T) bool {
	return bindForm(c, dest) && validate(c, dest)
}

func bindForm(c *gin.Context, dest any) bool {
	if err := c.ShouldBind(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid form payload"))
		return false
	}
	return true
}

func validate(c *gin.Context, dest any) bool {
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, validationError(err))
		return false
	}
	return true
}

func validationError(err error) *appErrors.AppError {
	appErr := appErrors.New(appErrors.ErrValidation.Code, formatValidationError(err), appErrors.ErrValidation.StatusCode)

	var fields appValidator.ValidationErrors
	if errors.As(err, &fields) {
		return appErr.WithDetails(fields)
	}
	return appErr
}

func formatValidationError(err error) string {
	if err == nil {
		return "invalid request payload"
	}

	var ve appValidator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		switch failure.Tag {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, failure.Param))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, failure.Param))
		case "eqfield":
			messages = append(messages, fmt.Sprintf("%s must match %s", field, prettifyFieldName(failure.Param)))
		case "url":
			messages = append(messages, fmt.Sprintf("%s must be a valid URL", field))
		case "usertype":
			messages = append(messages, fmt.Sprintf("%s must be advisor or laboratory", field))
		case "pubtype":
			messages = append(messages, fmt.Sprintf("%s is not a known publication type", field))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, failure.Param))
		default:
			if failure.Param != "" {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
			} else {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
			}
		}
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
