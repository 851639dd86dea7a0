package event

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sevenofnine/scheduler/internal/domain"
)

const msgInvalidTimestamp = "is not a valid timestamp"

type createInput struct {
	Title     string    `json:"title" validate:"required"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// buildEvent turns a create request into an Event without an id.
func (s *Service) buildEvent(in domain.CreateRequest) (domain.Event, error) {
	fields := map[string]string{}
	input := createInput{Title: strings.TrimSpace(in.Title)}
	if in.StartDate != "" {
		t, err := domain.ParseTimestamp(in.StartDate)
		if err != nil {
			fields["startDate"] = msgInvalidTimestamp
		}
		input.StartDate = t
	}
	if in.EndDate != "" {
		t, err := domain.ParseTimestamp(in.EndDate)
		if err != nil {
			fields["endDate"] = msgInvalidTimestamp
		}
		input.EndDate = t
	}

	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Event{}, err
		}
		for _, fe := range verrs {
			if _, ok := fields[fe.Field()]; ok {
				continue
			}
			fields[fe.Field()] = validationMessage(fe)
		}
	}
	if len(fields) > 0 {
		return domain.Event{}, &ValidationError{Fields: fields}
	}

	category := in.Category
	if category == "" {
		category = domain.CategoryTime
	}
	return domain.Event{
		Title:               in.Title,
		Description:         in.Description,
		StartDate:           input.StartDate,
		EndDate:             input.EndDate,
		Location:            in.Location,
		Attendees:           string(in.Attendees),
		Category:            category,
		IsAllDay:            in.IsAllDay,
		Color:               in.Color,
		BackgroundColor:     in.BackgroundColor,
		BorderColor:         in.BorderColor,
		DragBackgroundColor: in.DragBackgroundColor,
	}, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gtefield":
		return "must not be before startDate"
	default:
		return "is invalid"
	}
}
