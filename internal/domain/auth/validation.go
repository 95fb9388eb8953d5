package auth

import (
	"errors"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// MinPasswordLength matches the remote API's password policy.
const MinPasswordLength = 8

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?~` + "`" + `]`)
)

// passwordRules mirrors the server-side complexity checks so the form can fail fast.
func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Password is required."),
		validation.Length(MinPasswordLength, 0).Error("Password must be at least 8 characters long."),
		validation.Match(upperRe).Error("Password must contain at least one uppercase letter."),
		validation.Match(lowerRe).Error("Password must contain at least one lowercase letter."),
		validation.Match(digitRe).Error("Password must contain at least one digit."),
		validation.Match(specialRe).Error("Password must contain at least one special character (e.g., !@#$%^&*)."),
	}
}

// Validate checks that both credentials are present and the email is well formed.
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Email,
			validation.Required.Error("Email is required."),
			is.Email.Error("Enter a valid email address."),
		),
		validation.Field(&c.Password, validation.Required.Error("Password is required.")),
	)
	return toValidationError(err, "email", "password")
}

// ValidateEmail checks a lone email address, as entered on the forgot-password form.
func ValidateEmail(email string) error {
	err := validation.Errors{
		"email": validation.Validate(email,
			validation.Required.Error("Email is required."),
			is.Email.Error("Enter a valid email address."),
		),
	}.Filter()
	return toValidationError(err, "email")
}

// Validate applies the signup policy locally.
func (s SignupInput) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.FirstName, validation.Required.Error("First name is required.")),
		validation.Field(&s.LastName, validation.Required.Error("Last name is required.")),
		validation.Field(&s.Email,
			validation.Required.Error("Email is required."),
			is.Email.Error("Enter a valid email address."),
		),
		validation.Field(&s.Password, passwordRules()...),
	)
	return toValidationError(err, "firstname", "lastname", "email", "password")
}

// Validate rejects empty names and malformed emails in a profile update.
func (p ProfileUpdate) Validate() error {
	if p.IsEmpty() {
		return Validation("Nothing to update.")
	}
	err := validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.NilOrNotEmpty.Error("First name cannot be empty.")),
		validation.Field(&p.LastName, validation.NilOrNotEmpty.Error("Last name cannot be empty.")),
		validation.Field(&p.NewEmail,
			validation.NilOrNotEmpty.Error("Email cannot be empty."),
			is.Email.Error("Enter a valid email address."),
		),
	)
	return toValidationError(err, "firstname", "lastname", "new_email")
}

// Validate checks the new password policy and that it differs from the current one.
func (p PasswordChange) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.CurrentPassword, validation.Required.Error("Current password is required.")),
		validation.Field(&p.NewPassword, passwordRules()...),
	)
	if err == nil && p.CurrentPassword == p.NewPassword {
		return Validation("", FieldError{Field: "new_password", Message: "New password must differ from the current password."})
	}
	return toValidationError(err, "current_password", "new_password")
}

// Validate requires the confirmation password.
func (d AccountDeletion) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Password, validation.Required.Error("Please enter your current password to confirm deletion.")),
	)
	return toValidationError(err, "password")
}

// Validate checks the reset token and the new password policy.
func (r PasswordReset) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error("The reset link is invalid or incomplete.")),
		validation.Field(&r.NewPassword, passwordRules()...),
	)
	return toValidationError(err, "token", "new_password")
}

// toValidationError converts ozzo errors into a ValidationError whose fields follow order.
func toValidationError(err error, order ...string) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return Wrap(KindValidation, err.Error(), err)
	}

	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	fields := make([]FieldError, 0, len(errs))
	for name, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}
		fields = append(fields, FieldError{Field: name, Message: fieldErr.Error()})
	}
	sort.SliceStable(fields, func(i, j int) bool {
		ri, iok := rank[fields[i].Field]
		rj, jok := rank[fields[j].Field]
		if iok != jok {
			return iok
		}
		if ri != rj {
			return ri < rj
		}
		return fields[i].Field < fields[j].Field
	})
	return Validation("", fields...)
}
