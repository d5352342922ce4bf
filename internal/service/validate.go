package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field messages rendered next to form inputs.
const (
	MsgRequired         = "This field is required."
	MsgWholeNumber      = "Enter a whole number."
	MsgTitleTooSmall    = "Title too small"
	MsgPriorityPositive = "Priority should be greater than 0"
	MsgTitleTooLong     = "Ensure this value has at most 255 characters."
	MsgPriorityTooLarge = "Ensure this value is less than or equal to 2147483647."
	MsgPriorityNoRoom   = "No free priority at or above this value."
)

// TaskInput is the user-editable part of a task.
type TaskInput struct {
	Title       string `form:"title" validate:"required,min=5,max=255"`
	Description string `form:"description"`
	Priority    int    `form:"priority" validate:"gt=0,lte=2147483647"`

	// Completed is only honored by Update.
	Completed bool `form:"completed"`
}

// Normalize trims the title and stores it upper-cased.
func (in *TaskInput) Normalize() {
	in.Title = strings.ToUpper(strings.TrimSpace(in.Title))
}

var taskMessages = map[string]map[string]string{
	"title":    {"required": MsgRequired, "min": MsgTitleTooSmall, "max": MsgTitleTooLong},
	"priority": {"gt": MsgPriorityPositive, "lte": MsgPriorityTooLarge},
}

// NewValidator returns a validator that reports fields by their form name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return v
}

// ValidationErrorFrom converts validator errors into field messages using
// messages[field][tag]. Unknown combinations fall back to a generic message.
func ValidationErrorFrom(err error, messages map[string]map[string]string) *ValidationError {
	ve := NewValidationError()
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add("__all__", err.Error())
		return ve
	}
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = "Enter a valid value."
		}
		ve.Add(fe.Field(), msg)
	}
	return ve
}

// ValidateTask normalizes in and checks it. It returns nil or a
// *ValidationError.
func (s *TaskService) ValidateTask(in *TaskInput) error {
	in.Normalize()
	if err := s.validate.Struct(in); err != nil {
		return ValidationErrorFrom(err, taskMessages)
	}
	return nil
}
