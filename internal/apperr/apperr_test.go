package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassThroughWrapping(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain"), ""},
		{fmt.Errorf("load: %w", fmt.Errorf("%w: open x", ErrIO)), "io"},
		{fmt.Errorf("%w: ragged row", ErrParse), "parse"},
		{fmt.Errorf("split: %w", fmt.Errorf("%w: fraction", ErrConfig)), "config"},
		{fmt.Errorf("%w: missing column", ErrSchema), "schema"},
	}
	for _, tc := range cases {
		if got := Class(tc.err); got != tc.want {
			t.Errorf("Class(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestMultiWrapKeepsBothChains(t *testing.T) {
	cause := errors.New("disk gone")
	err := fmt.Errorf("%w: read: %w", ErrIO, cause)
	if !IsIO(err) || !errors.Is(err, cause) {
		t.Fatalf("expected both class and cause in chain: %v", err)
	}
	if IsParse(err) {
		t.Fatal("io error should not be a parse error")
	}
}
