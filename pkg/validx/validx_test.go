package validx_test

import (
	"testing"

	"github.com/aussiebroadwan/doorman/pkg/validx"
	"github.com/stretchr/testify/require"
)

type login struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

func TestStruct(t *testing.T) {
	e, p := "a@x.com", "password123"
	require.NoError(t, validx.Struct(login{Email: &e, Password: &p}))

	err := validx.Struct(login{Email: &e})
	require.EqualError(t, err, "field 'password' failed 'required'")

	err = validx.Struct(login{})
	require.ErrorContains(t, err, "field 'email' failed 'required'")
	require.ErrorContains(t, err, "field 'password' failed 'required'")
}

func TestVar(t *testing.T) {
	require.NoError(t, validx.Var("a@x.com", "email"))
	require.EqualError(t, validx.Var("not-an-email", "email"), "failed 'email'")
}

func TestStructRequiredPointerAcceptsZeroValue(t *testing.T) {
	type signup struct {
		Email       *string `json:"email" validate:"required"`
		Requires2FA *bool   `json:"requires2FA" validate:"required"`
	}
	empty, no := "", false
	require.NoError(t, validx.Struct(signup{Email: &empty, Requires2FA: &no}), "present but zero is not missing")
	require.ErrorContains(t, validx.Struct(signup{Email: &empty}), "requires2FA")
}
