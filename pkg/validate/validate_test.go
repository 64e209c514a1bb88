package validate

import (
	"errors"
	"strings"
	"testing"

	"sales-dialer/pkg/apperr"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := New().Struct(sample{Email: "nope", Kind: "c"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, want := range []string{"name is required", "email must be a valid email", "kind must be one of a b"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestStruct_Valid(t *testing.T) {
	if err := New().Struct(sample{Name: "x", Email: "a@b.co"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
