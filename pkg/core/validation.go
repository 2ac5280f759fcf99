package core

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/NERVsystems/tripmcp/pkg/trip"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/mark3labs/mcp-go/mcp"
)

// ValidationError represents a validation error for coordinates or other values
type ValidationError struct {
	Code     string
	Field    string
	Message  string
	Guidance string
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationErrors collects every failed struct field
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

func validatorInstance() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// report json names rather than Go field names
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})

		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
			slog.Default().Error("failed to register validator translations", "error", err)
		}

		registerTripValidations(v, trans)

		validate, translator = v, trans
	})
	return validate, translator
}

// registerTripValidations adds the "clock" and "sortkey" tags
func registerTripValidations(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := trip.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("sortkey", func(fl validator.FieldLevel) bool {
		_, err := trip.ParseSortKey(fl.Field().String())
		return err == nil
	})

	for tag, text := range map[string]string{
		"clock":   "{0} must be a time in HH:MM format between 00:00 and 23:59",
		"sortkey": "{0} must be one of price, duration, departureTime, arrivalTime, emissions",
	} {
		_ = v.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, text, true) },
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())
				return t
			})
	}
}

// ValidateStruct checks v against its `validate` tags and returns
// ValidationErrors with English messages
func ValidateStruct(v any) error {
	val, trans := validatorInstance()

	err := val.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Code:    string(codeForTag(fe.Tag())),
			Field:   fe.Field(),
			Message: fe.Translate(trans),
		})
	}
	return out
}

func codeForTag(tag string) ErrorCode {
	switch tag {
	case "required":
		return ErrMissingParameter
	case "clock":
		return ErrInvalidTime
	case "sortkey":
		return ErrInvalidSortKey
	}
	return ErrInvalidParameter
}

// ValidateCoords checks if latitude and longitude are within valid ranges
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return ValidationError{
			Code:     string(ErrInvalidLatitude),
			Field:    "latitude",
			Message:  fmt.Sprintf("Latitude must be between -90 and 90, got %f", lat),
			Guidance: "Ensure latitude is in decimal degrees",
		}
	}
	if lon < -180 || lon > 180 {
		return ValidationError{
			Code:     string(ErrInvalidLongitude),
			Field:    "longitude",
			Message:  fmt.Sprintf("Longitude must be between -180 and 180, got %f", lon),
			Guidance: "Ensure longitude is in decimal degrees",
		}
	}
	return nil
}

// ValidateRadius checks if a radius in kilometers is within the valid range
func ValidateRadius(radius, maxRadius float64) error {
	if radius <= 0 {
		return ValidationError{
			Code:     string(ErrInvalidRadius),
			Field:    "radius_km",
			Message:  fmt.Sprintf("Radius must be greater than 0, got %g", radius),
			Guidance: "Specify a positive radius value",
		}
	}
	if maxRadius > 0 && radius > maxRadius {
		return ValidationError{
			Code:     string(ErrRadiusTooLarge),
			Field:    "radius_km",
			Message:  fmt.Sprintf("Radius must be less than or equal to %g km, got %g", maxRadius, radius),
			Guidance: fmt.Sprintf("Specify a radius of at most %g km", maxRadius),
		}
	}
	return nil
}

// ParseCoords extracts and validates latitude and longitude from a CallToolRequest
// It allows specifying alternative key names for latitude and longitude
func ParseCoords(req mcp.CallToolRequest, latKey, lonKey string) (float64, float64, error) {
	if latKey == "" {
		latKey = "latitude"
	}
	if lonKey == "" {
		lonKey = "longitude"
	}

	lat := mcp.ParseFloat64(req, latKey, 0)
	lon := mcp.ParseFloat64(req, lonKey, 0)

	if err := ValidateCoords(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// ParseRadius extracts and validates a radius from a CallToolRequest
func ParseRadius(req mcp.CallToolRequest, key string, defaultRadius, maxRadius float64) (float64, error) {
	if key == "" {
		key = "radius_km"
	}

	radius := mcp.ParseFloat64(req, key, defaultRadius)
	if err := ValidateRadius(radius, maxRadius); err != nil {
		return 0, err
	}
	return radius, nil
}
