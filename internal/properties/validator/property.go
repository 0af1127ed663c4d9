package validator

import (
	"errors"
	"fmt"
	"strings"

	"rentio/pkg/logger"
	"rentio/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type PropertyValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPropertyValidator(log *logger.Logger) *PropertyValidator {
	return &PropertyValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *PropertyValidator) Validate(property *model.Property) error {
	if err := v.validate.Struct(property); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *PropertyValidator) ValidateUpdate(update *model.PropertyUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateFilter checks listing filter consistency.
func (v *PropertyValidator) ValidateFilter(filter *model.PropertyFilter) error {
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return ValidationErrors{ValidationError{
			Field:   "MinPrice",
			Message: "min_price cannot be negative",
		}}
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return ValidationErrors{ValidationError{
			Field:   "MaxPrice",
			Message: "max_price cannot be negative",
		}}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return ValidationErrors{ValidationError{
			Field:   "MaxPrice",
			Message: "max_price must be greater than or equal to min_price",
		}}
	}
	if filter.Rooms != nil && *filter.Rooms < 1 {
		return ValidationErrors{ValidationError{
			Field:   "Rooms",
			Message: "rooms must be at least 1",
		}}
	}
	return nil
}

func (v *PropertyValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
