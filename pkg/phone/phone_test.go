package phone

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"98765 43210", "+919876543210", false},
		{"+91 98765-43210", "+919876543210", false},
		{"", "", true},
		{"12", "", true},
		{"not a phone", "", true},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in, "IN")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("Normalize(%q) expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	v := validator.New()
	if err := RegisterValidation(v, "IN"); err != nil {
		t.Fatalf("register: %v", err)
	}
	type input struct {
		Phone string `validate:"omitempty,phone"`
	}
	if err := v.Struct(input{Phone: "9876543210"}); err != nil {
		t.Fatalf("expected valid phone, got %v", err)
	}
	if err := v.Struct(input{Phone: "123"}); err == nil {
		t.Fatal("expected invalid phone to fail validation")
	}
	if err := v.Struct(input{}); err != nil {
		t.Fatalf("expected empty phone to be allowed, got %v", err)
	}
}
