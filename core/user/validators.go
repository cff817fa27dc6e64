package user

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/stationhq/firewatch/core"
)

var (
	assignableRoleTag  = "assignablerole"
	assignableRoleText = "invalid role"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, " +
		"1 digit and 1 special character"
	specialRegex = regexp.MustCompile("[^A-Za-z0-9]")
)

func init() {
	_ = core.Validate.RegisterValidation(assignableRoleTag, assignableRoleValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, assignableRoleTag, assignableRoleText)

	_ = core.Validate.RegisterValidation(pwdMinLenTag, pwdMinLenValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, pwdMinLenTag, pwdMinLenText)

	_ = core.Validate.RegisterValidation(pwdComplexityTag, pwdComplexityValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, pwdComplexityTag, pwdComplexityText)
}

func assignableRoleValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, role := range AssignableRoles {
		if val == role {
			return true
		}
	}
	return false
}

func pwdMinLenValidation(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) >= pwdMinLen
}

func pwdComplexityValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	var hasUpper, hasLower, hasDigit bool
	for _, r := range val {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit && specialRegex.MatchString(val)
}

func (nu *NewUser) Validate() error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Grade = core.CleanString(nu.Grade)
	return core.Validate.Struct(nu)
}

func (uu *UpdateUser) Validate() error {
	uu.FirstName = core.CleanString(uu.FirstName)
	uu.LastName = core.CleanString(uu.LastName)
	uu.Grade = core.CleanString(uu.Grade)
	return core.Validate.Struct(uu)
}
