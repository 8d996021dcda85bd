package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestError_WrapsOp(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &Error{Op: OpJSONGet, Err: context.DeadlineExceeded})

	if err.Error() != "lookup: JSON.GET: context deadline exceeded" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected errors.Is through db.Error")
	}
	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpJSONGet {
		t.Errorf("expected db.Error with op %s, got %v", OpJSONGet, err)
	}
}
