package errors

import (
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestErrorsIs(t *testing.T) {
	cases := map[string]struct {
		kind    *Error
		err     error
		wantHit bool
	}{
		"instance of the same root error": {
			kind:    ErrNotFound,
			err:     ErrNotFound,
			wantHit: true,
		},
		"wrapped root error": {
			kind:    ErrNotFound,
			err:     Wrap(ErrNotFound, "in a test"),
			wantHit: true,
		},
		"double wrapped root error": {
			kind:    ErrNotFound,
			err:     Wrap(Wrap(ErrNotFound, "inner"), "outer"),
			wantHit: true,
		},
		"different root error": {
			kind:    ErrNotFound,
			err:     ErrUnauthorized,
			wantHit: false,
		},
		"stdlib error": {
			kind:    ErrNotFound,
			err:     fmt.Errorf("not found"),
			wantHit: false,
		},
		"nil error": {
			kind:    ErrNotFound,
			err:     nil,
			wantHit: false,
		},
		"multi error containing the root error": {
			kind:    ErrNotFound,
			err:     Append(ErrUnauthorized, Wrap(ErrNotFound, "x")),
			wantHit: true,
		},
		"multi error without the root error": {
			kind:    ErrNotFound,
			err:     Append(ErrUnauthorized, ErrState),
			wantHit: false,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.kind.Is(tc.err); got != tc.wantHit {
				t.Fatalf("unexpected match result: %v", got)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "some description"); err != nil {
		t.Fatalf("wrapping nil must return nil, got %+v", err)
	}
}

func TestWrapPreservesABCICode(t *testing.T) {
	err := Wrap(ErrUnauthorized, "no signature")
	if code := abciCode(err); code != ErrUnauthorized.ABCICode() {
		t.Fatalf("want %d, got %d", ErrUnauthorized.ABCICode(), code)
	}
}

func TestStackTraceAttachedOnce(t *testing.T) {
	inner := Wrap(ErrState, "inner")
	outer := Wrap(inner, "outer")

	if stackTrace(inner) == nil {
		t.Fatal("first wrap must attach a stack trace")
	}
	// The trace of the outer error must be the one collected by the
	// innermost wrap.
	if fmt.Sprintf("%v", stackTrace(outer)[0]) != fmt.Sprintf("%v", stackTrace(inner)[0]) {
		t.Fatal("outer wrap must not overwrite the inner stack trace")
	}
}

func TestRegisterPanicsOnDuplicateCode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("reusing an error code must panic")
		}
	}()
	Register(ErrNotFound.ABCICode(), "colliding registration")
}

func TestAppend(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Fatalf("appending nils must result in nil, got %q", err)
	}

	single := Wrap(ErrInput, "bad field")
	if err := Append(nil, single); err != single {
		t.Fatalf("appending a single error must return it unchanged, got %q", err)
	}

	combined := Append(Wrap(ErrInput, "a"), Wrap(ErrEmpty, "b"))
	if !ErrInput.Is(combined) || !ErrEmpty.Is(combined) {
		t.Fatalf("combined error must match all members: %q", combined)
	}
}

func TestRecover(t *testing.T) {
	var err error
	func() {
		defer Recover(&err)
		panic("totally unexpected")
	}()
	if !ErrPanic.Is(err) {
		t.Fatalf("want a panic error, got %+v", err)
	}
}

func TestWrapExternalError(t *testing.T) {
	base := pkgerrors.New("external failure")
	err := Wrap(base, "doing something")
	if code := abciCode(err); code != internalABCICode {
		t.Fatalf("external errors must map to the internal code, got %d", code)
	}
}
