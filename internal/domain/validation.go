package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var gitHashRegex = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their column name rather than the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("githash", func(fl validator.FieldLevel) bool {
		return ValidGitHash(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// ValidGitHash accepts a full 40-character hex hash or a 7-10 character
// abbreviated hash or version tag. Empty values are accepted.
func ValidGitHash(hash string) bool {
	if hash == "" {
		return true
	}
	n := len(hash)
	return (n == 40 && gitHashRegex.MatchString(hash)) || (n >= 7 && n <= 10)
}

// ValidCoverage accepts nil or a percentage in [0, 100].
func ValidCoverage(v *float64) bool {
	return v == nil || (*v >= 0 && *v <= 100)
}

// ValidateProject checks an IT-domain record. It returns nil or a
// ValidationErrors listing every rejected field in column order.
func ValidateProject(p *ProjectRecord) error {
	if NormalizeKey(p.ProjectName).IsZero() {
		return ValidationErrors{{Field: "project_name", Reason: "project name is required"}}
	}
	return translate(validate.Struct(p))
}

// ValidateCoverage checks an NX-domain coverage record.
func ValidateCoverage(c *CoverageRecord) error {
	if NormalizeKey(c.ProjectName).IsZero() {
		return ValidationErrors{{Field: "project_name", Reason: "project name is required"}}
	}
	return translate(validate.Struct(c))
}

// ValidateVersionControl checks an NX-domain version control record.
func ValidateVersionControl(vc *VersionControlRecord) error {
	if NormalizeKey(vc.ProjectName).IsZero() {
		return ValidationErrors{{Field: "project_name", Reason: "project name is required"}}
	}
	return translate(validate.Struct(vc))
}

// translate converts validator output into ValidationErrors with readable reasons.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, &ValidationError{
			Field:  fe.Field(),
			Value:  fieldValue(fe.Value()),
			Reason: reason(fe),
		})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be an absolute URL"
	case "gte", "lte":
		return "must be a percentage between 0 and 100"
	case "githash":
		return "must be a 40-character hex hash or 7-10 characters"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

func fieldValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case *float64:
		if val == nil {
			return ""
		}
		return FormatFloat(*val)
	case float64:
		return FormatFloat(val)
	default:
		return fmt.Sprint(v)
	}
}
