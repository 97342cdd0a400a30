package note

import (
	"errors"
	"testing"

	"github.com/zhouzirui/recordhub/backend/internal/validate"
)

func TestValidateRequiresTitle(t *testing.T) {
	if err := (Note{Title: "Groceries"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Note{Title: "   ", Content: "milk"}.Validate()
	var verr *validate.Error
	if !errors.As(err, &verr) || verr.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}
}

func TestPatchAppliesOnlyPresentFields(t *testing.T) {
	content := "milk, eggs"
	got := Patch{Content: &content}.Apply(Note{ID: "abc", Title: "Groceries", Content: "milk"})

	want := Note{ID: "abc", Title: "Groceries", Content: "milk, eggs"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}
