package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValidation(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	authErr := AsError(err)
	require.Equal(t, KindValidation, authErr.Kind)
	return authErr
}

func TestCredentials_Validate(t *testing.T) {
	require.NoError(t, Credentials{Email: "user@example.com", Password: "x"}.Validate())

	err := requireValidation(t, Credentials{}.Validate())
	assert.Equal(t, "Email is required.", err.Message)
	assert.Equal(t, "Password is required.", err.FieldMessage("password"))

	err = requireValidation(t, Credentials{Email: "not-an-email", Password: "x"}.Validate())
	assert.Equal(t, "Enter a valid email address.", err.FieldMessage("email"))
}

func TestSignupInput_Validate_PasswordPolicy(t *testing.T) {
	base := SignupInput{Email: "new@example.com", FirstName: "Ada", LastName: "Lovelace"}

	cases := []struct {
		password string
		want     string
	}{
		{"", "Password is required."},
		{"Ab1!", "Password must be at least 8 characters long."},
		{"abcdefg1!", "Password must contain at least one uppercase letter."},
		{"ABCDEFG1!", "Password must contain at least one lowercase letter."},
		{"Abcdefgh!", "Password must contain at least one digit."},
		{"Abcdefgh1", "Password must contain at least one special character (e.g., !@#$%^&*)."},
	}
	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			in := base
			in.Password = tc.password
			err := requireValidation(t, in.Validate())
			assert.Equal(t, tc.want, err.FieldMessage("password"))
		})
	}

	ok := base
	ok.Password = "Str0ng!pass"
	require.NoError(t, ok.Validate())
}

func TestSignupInput_Validate_FieldOrder(t *testing.T) {
	err := requireValidation(t, SignupInput{}.Validate())
	require.Len(t, err.Fields, 4)
	assert.Equal(t, []string{"firstname", "lastname", "email", "password"},
		[]string{err.Fields[0].Field, err.Fields[1].Field, err.Fields[2].Field, err.Fields[3].Field})
	assert.Equal(t, "First name is required.", err.Message)
}

func TestProfileUpdate_Validate(t *testing.T) {
	err := requireValidation(t, ProfileUpdate{}.Validate())
	assert.Equal(t, "Nothing to update.", err.Message)

	empty := ""
	err = requireValidation(t, ProfileUpdate{FirstName: &empty}.Validate())
	assert.Equal(t, "First name cannot be empty.", err.FieldMessage("firstname"))

	bad := "nope"
	err = requireValidation(t, ProfileUpdate{NewEmail: &bad}.Validate())
	assert.Equal(t, "Enter a valid email address.", err.FieldMessage("new_email"))

	name := "Grace"
	require.NoError(t, ProfileUpdate{FirstName: &name}.Validate())
}

func TestPasswordChange_Validate(t *testing.T) {
	err := requireValidation(t, PasswordChange{CurrentPassword: "Str0ng!pass", NewPassword: "Str0ng!pass"}.Validate())
	assert.Equal(t, "New password must differ from the current password.", err.FieldMessage("new_password"))

	err = requireValidation(t, PasswordChange{NewPassword: "Str0ng!pass"}.Validate())
	assert.Equal(t, "Current password is required.", err.FieldMessage("current_password"))

	require.NoError(t, PasswordChange{CurrentPassword: "old", NewPassword: "Str0ng!pass"}.Validate())
}

func TestAccountDeletion_And_PasswordReset_Validate(t *testing.T) {
	requireValidation(t, AccountDeletion{}.Validate())
	require.NoError(t, AccountDeletion{Password: "x"}.Validate())

	err := requireValidation(t, PasswordReset{NewPassword: "Str0ng!pass"}.Validate())
	assert.Equal(t, "The reset link is invalid or incomplete.", err.FieldMessage("token"))
	require.NoError(t, PasswordReset{Token: "abc", NewPassword: "Str0ng!pass"}.Validate())
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("ada@example.com"))
	err := requireValidation(t, ValidateEmail(""))
	assert.Equal(t, "Email is required.", err.FieldMessage("email"))
	err = requireValidation(t, ValidateEmail("ada"))
	assert.Equal(t, "Enter a valid email address.", err.Message)
}
