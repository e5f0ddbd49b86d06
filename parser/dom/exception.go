package dom

import (
	"fmt"

	"github.com/pkg/errors"
)

// DOMException names used by this package.
// https://webidl.spec.whatwg.org/#idl-DOMException-error-names
const (
	SyntaxError           = "SyntaxError"
	InvalidCharacterError = "InvalidCharacterError"
	NotFoundError         = "NotFoundError"
)

// DOMException is https://webidl.spec.whatwg.org/#idl-DOMException
type DOMException struct {
	Name    string
	Message string
}

func (e *DOMException) Error() string {
	return e.Name + ": " + e.Message
}

// NewDOMException returns an exception with a formatted message.
func NewDOMException(name, format string, args ...interface{}) *DOMException {
	return &DOMException{Name: name, Message: fmt.Sprintf(format, args...)}
}

// IsDOMException reports whether the root cause of err is a DOMException with the given name.
func IsDOMException(err error, name string) bool {
	e, ok := errors.Cause(err).(*DOMException)
	return ok && e.Name == name
}
