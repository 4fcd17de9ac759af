package errors

import (
	"context"
	"fmt"
	"testing"
)

func TestRetryableTransientCodes(t *testing.T) {
	if !Retryable(Unavailablef("upstream down")) {
		t.Fatalf("unavailable should retry")
	}
	if !Retryable(Newf(ErrorCodeTooManyRequests, "rate limited")) {
		t.Fatalf("rate limited should retry")
	}
}

func TestRetryableTerminalCodes(t *testing.T) {
	cases := []error{
		Newf(ErrorCodeValidation, "bad input"),
		Unauthorizedf("no session"),
		Forbiddenf("nope"),
		InvalidArgf("bad arg"),
		JSONErrf("bad json"),
		ErrNotFound,
	}
	for _, err := range cases {
		if Retryable(err) {
			t.Fatalf("%v should not retry", err)
		}
	}
}

func TestRetryableWrappedCause(t *testing.T) {
	err := Wrap(Unavailablef("inner"), ErrorCodeUnavailable, "outer")
	if !Retryable(err) {
		t.Fatalf("wrapped transient should retry")
	}
}

func TestRetryableContextAndNil(t *testing.T) {
	if Retryable(nil) {
		t.Fatalf("nil is not retryable")
	}
	if Retryable(context.Canceled) {
		t.Fatalf("canceled context should not retry")
	}
	if Retryable(fmt.Errorf("wrap: %w", context.DeadlineExceeded)) {
		t.Fatalf("deadline exceeded should not retry")
	}
}
