package domain

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// emailPattern accepts any local@domain.tld shape; deliverability is the
	// identity provider's concern.
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`^[0-9+\-\s()]+$`)
)

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return v
}

// AgentDetails are the contact attributes an agent supplies at registration.
type AgentDetails struct {
	FullName string `json:"full_name" validate:"notblank"`
	Email    string `json:"email" validate:"notblank,looseemail"`
	Phone    string `json:"phone" validate:"notblank,phone"`
	PlanID   string `json:"plan_id" validate:"notblank"`
}

// Validate returns one FieldError per violated field, in declaration order.
func (d AgentDetails) Validate() []FieldError {
	return validateStruct(d)
}

func (d AgentDetails) normalizedName() string  { return strings.TrimSpace(d.FullName) }
func (d AgentDetails) normalizedEmail() string { return strings.TrimSpace(d.Email) }
func (d AgentDetails) normalizedPhone() string { return strings.TrimSpace(d.Phone) }

// Credentials are the sign-up secrets and consents collected alongside
// AgentDetails. They never reach the agent record.
type Credentials struct {
	Password        string `json:"password" validate:"required,min=6,maxbytes"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	AgreeToTerms    bool   `json:"agree_to_terms" validate:"required"`
}

// Validate returns one FieldError per violated field, in declaration order.
func (c Credentials) Validate() []FieldError {
	return validateStruct(c)
}

func validateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

// PasswordTooLong is reported for passwords over MaxPasswordBytes.
const PasswordTooLong = "Password must be at most 72 bytes"

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "full_name":
		return "Full name is required"
	case "email":
		if fe.Tag() == "notblank" {
			return "Email is required"
		}
		return "Email is invalid"
	case "phone":
		if fe.Tag() == "notblank" {
			return "Phone number is required"
		}
		return "Phone number is invalid"
	case "plan_id":
		return "Please select a subscription plan"
	case "password":
		switch fe.Tag() {
		case "required":
			return "Password is required"
		case "maxbytes":
			return PasswordTooLong
		}
		return "Password must be at least 6 characters"
	case "confirm_password":
		return "Passwords do not match"
	case "agree_to_terms":
		return "You must agree to the terms and conditions"
	}
	return fe.Field() + " failed validation for '" + fe.Tag() + "'"
}
