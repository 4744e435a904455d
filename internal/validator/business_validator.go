package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// ValidationError represents one field-level validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Field returns a single-field error, used for rules the struct tags cannot express
func Field(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Rule: "business_logic"}}
}

// Validator wraps go-playground/validator with the domain rules registered
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports json field names
func New() *Validator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerBusinessRules()
	return v
}

// Validate validates s and returns ValidationErrors, or nil
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

// ToValidationErrors converts validator errors to ValidationErrors
func ToValidationErrors(err error) ValidationErrors {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	result := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return result
}

func (v *Validator) registerBusinessRules() {
	choiceRule := func(choices []models.Choice) validator.Func {
		return func(fl validator.FieldLevel) bool {
			return models.IsValidChoice(choices, fl.Field().String())
		}
	}

	v.validate.RegisterValidation("difficulty_level", choiceRule(models.Difficulties))
	v.validate.RegisterValidation("question_topic", choiceRule(models.Topics))
	v.validate.RegisterValidation("question_category", choiceRule(models.Categories))
	v.validate.RegisterValidation("quiz_type", choiceRule(models.QuizTypes))

	v.validate.RegisterValidation("leaderboard_period", func(fl validator.FieldLevel) bool {
		return models.LeaderboardPeriod(fl.Field().String()).IsValid()
	})

	// Title must contain something other than whitespace
	v.validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "not_blank":
		return "This field is required."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this field has at least %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "Passwords do not match."
	case "url":
		return "Enter a valid URL."
	case "difficulty_level", "question_topic", "question_category", "quiz_type", "leaderboard_period", "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	default:
		return fmt.Sprintf("failed on the %s rule", fe.Tag())
	}
}
