package httpdeco

import (
	"errors"
	"fmt"

	"github.com/brizzai/httpdeco/pkg/metadata"
)

// ErrUndeclared is returned when resolving a method that has no recorded route.
var ErrUndeclared = errors.New("method is not declared")

// DeclarationError reports an annotation that cannot be applied. It is raised while declaring, never
// deferred to call time.
type DeclarationError struct {
	Annotation string
	Key        metadata.Key
	Reason     string
}

func (e *DeclarationError) Error() string {
	if e.Key == (metadata.Key{}) {
		return fmt.Sprintf("@%s: %s", e.Annotation, e.Reason)
	}
	return fmt.Sprintf("declare %s: @%s: %s", e.Key, e.Annotation, e.Reason)
}

func declarationErrorf(annotation, format string, args ...any) *DeclarationError {
	return &DeclarationError{Annotation: annotation, Reason: fmt.Sprintf(format, args...)}
}
