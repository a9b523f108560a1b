package shared

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ═══════════════════════════════════════════════════════════════════════════
// Input rules
// ═══════════════════════════════════════════════════════════════════════════

var (
	studentIDPattern    = regexp.MustCompile(`^[SU]\d{7}[A-Z]?$`)
	ntuEmailPattern     = regexp.MustCompile(`^\w+@ntu\.edu\.sg$`)
	companyEmailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.[A-Za-z]{2,}$`)
)

// validate is shared by every command. Custom tags:
//
//	student_id     S1234567 / U1234567A
//	ntu_email      staff account such as sng001@ntu.edu.sg (case-insensitive)
//	company_email  name@company.com
//	notblank       non-empty after trimming
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their `label` tag so messages read like CLI flags.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return strings.ToLower(f.Name)
	})

	mustRegister(v, "student_id", func(fl validator.FieldLevel) bool {
		return IsValidStudentID(fl.Field().String())
	})
	mustRegister(v, "ntu_email", func(fl validator.FieldLevel) bool {
		return IsValidNTUEmail(fl.Field().String())
	})
	mustRegister(v, "company_email", func(fl validator.FieldLevel) bool {
		return IsValidCompanyEmail(fl.Field().String())
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return !IsBlank(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// IsValidStudentID checks the matriculation id format.
func IsValidStudentID(id string) bool {
	return studentIDPattern.MatchString(strings.TrimSpace(id))
}

// IsValidNTUEmail checks the staff account format.
func IsValidNTUEmail(id string) bool {
	return ntuEmailPattern.MatchString(strings.ToLower(strings.TrimSpace(id)))
}

// IsValidCompanyEmail checks a generic company email.
func IsValidCompanyEmail(email string) bool {
	return companyEmailPattern.MatchString(strings.TrimSpace(email))
}

// ValidateStruct checks the `validate` tags of v and converts failures into a
// single validation DomainError for domain/op.
func ValidateStruct(domain, op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return WrapError(domain, op, ErrValidation, "invalid input", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return NewDomainError(domain, op, ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "student_id":
		return field + " must look like S1234567A"
	case "ntu_email":
		return field + " must be an @ntu.edu.sg account"
	case "company_email":
		return field + " must be a valid company email"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must be >= " + fe.Param()
	case "lte":
		return field + " must be <= " + fe.Param()
	case "oneof":
		return field + " must be one of " + fe.Param()
	default:
		return field + " is invalid (" + fe.Tag() + ")"
	}
}
