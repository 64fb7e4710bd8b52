package selections

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", `selectors["Plot type"] == nil`, "per_zr", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != `selectors["Plot type"] == nil` {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Page != "per_zr" {
		t.Fatalf("expected page metadata, got %q", evalErr.Page)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if !strings.HasPrefix(err.Error(), "selections: expr evaluator") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", "conv", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Page != "conv" {
		t.Fatalf("page should be filled, got %q", existing.Page)
	}
}

func TestWrapEvaluatorErrorKeepsPrefixedErrors(t *testing.T) {
	err := wrapEvaluatorError("cel", ErrNoEvaluator)
	if err != ErrNoEvaluator {
		t.Fatalf("expected prefixed error untouched, got %v", err)
	}
	wrapped := wrapEvaluatorError("cel", errors.New("parse"))
	if wrapped.Error() != "selections: cel evaluator: parse" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}
