package validation

import (
	"errors"
	"strings"
	"testing"
)

type signup struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"min=6"`
	Confirm  string  `json:"confirmPassword" validate:"eqfield=Password"`
	Avatar   string  `json:"avatarUrl" validate:"omitempty,url"`
	Lat      float64 `json:"lat" validate:"latitude"`
}

func TestStruct_Valid(t *testing.T) {
	s := signup{Name: "Jo", Email: "jo@example.com", Password: "secret", Confirm: "secret", Lat: 40.1}
	if err := Struct(&s); err != nil {
		t.Fatalf("Struct() = %v, want nil", err)
	}
}

func TestStruct_FieldMessages(t *testing.T) {
	s := signup{Name: "J", Email: "nope", Password: "123", Confirm: "321", Avatar: "not a url", Lat: 91}
	err := Struct(&s)

	var verrs *Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("Struct() error = %T, want *Errors", err)
	}

	want := map[string]string{
		"name":            "name must be at least 2 characters",
		"email":           "email must be a valid email address",
		"password":        "password must be at least 6 characters",
		"confirmPassword": "confirmPassword must match Password",
		"avatarUrl":       "avatarUrl must be a valid URL",
		"lat":             "lat must be a valid latitude (-90 to 90)",
	}
	if len(verrs.Fields) != len(want) {
		t.Fatalf("got %d field errors, want %d: %v", len(verrs.Fields), len(want), verrs.Fields)
	}
	for _, f := range verrs.Fields {
		if want[f.Field] != f.Message {
			t.Errorf("field %s message = %q, want %q", f.Field, f.Message, want[f.Field])
		}
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want joined messages", err.Error())
	}
}
