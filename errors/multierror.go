package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// Use this function to let a validation process continue after the first
// failure and return information about all violations at once.
func Append(errs ...error) error {
	var collection []error
	for _, err := range errs {
		switch e := err.(type) {
		case nil:
			// Ignore.
		case *multiError:
			collection = append(collection, e.errs...)
		default:
			collection = append(collection, e)
		}
	}

	switch len(collection) {
	case 0:
		return nil
	case 1:
		return collection[0]
	default:
		return &multiError{errs: collection}
	}
}

type multiError struct {
	errs []error
}

var _ unpacker = (*multiError)(nil)

func (e *multiError) Unpack() []error {
	return e.errs
}

func (e *multiError) Error() string {
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s", len(e.errs), strings.Join(msgs, "\n\t"))
}
