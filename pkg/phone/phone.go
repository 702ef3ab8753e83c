package phone

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// Normalize parses a phone number for the given default region and returns
// it in E.164 form. Numbers that are not valid for any region are rejected.
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("phone number is empty")
	}
	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// Valid reports whether raw is a valid phone number for region.
func Valid(raw, region string) bool {
	_, err := Normalize(raw, region)
	return err == nil
}

// RegisterValidation adds a "phone" tag to v that checks numbers against region.
func RegisterValidation(v *validator.Validate, region string) error {
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return Valid(fl.Field().String(), region)
	})
}
