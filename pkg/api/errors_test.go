package api

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTaxonomyMatchers(t *testing.T) {
	cases := []struct {
		err   error
		match func(error) bool
	}{
		{&ConfigurationError{Effect: "fade-in", Detail: "no callables"}, IsConfigurationError},
		{&PreconditionError{Category: CategoryEntrance, Target: "box", Detail: "not hidden"}, IsPreconditionError},
		{&OperationConflictError{Op: "play clip", State: "in flight"}, IsOperationConflict},
		{&RangeError{Field: "fraction", Value: "2", Accepted: []string{"0 through 1"}}, IsRangeError},
	}

	for _, tc := range cases {
		if !tc.match(tc.err) {
			t.Fatalf("%T not matched by its helper", tc.err)
		}
		// Matchers see through wrapping.
		if !tc.match(fmt.Errorf("outer: %w", tc.err)) {
			t.Fatalf("wrapped %T not matched", tc.err)
		}
	}

	if IsConfigurationError(errors.New("plain")) {
		t.Fatalf("plain error must not match")
	}
	if IsRangeError(&ConfigurationError{}) {
		t.Fatalf("matchers must not cross types")
	}
}

func TestErrorMessagesNameTheProblem(t *testing.T) {
	err := &PreconditionError{Category: CategoryEntrance, Target: "box", Detail: "no recognized hidden marker"}
	for _, want := range []string{"Entrance", "box", "hidden marker"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}

	rangeErr := &RangeError{Field: "exitType", Value: "nope", Accepted: ExitTypes()}
	for _, want := range []string{"exitType", "nope", ExitDisplayNone, ExitVisibilityHidden} {
		if !strings.Contains(rangeErr.Error(), want) {
			t.Fatalf("expected %q in %q", want, rangeErr.Error())
		}
	}
}
