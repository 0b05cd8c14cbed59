package sqlgen

import (
	"errors"
	"fmt"

	"github.com/shepherrrd/efmigrate/internal/models"
)

var ErrUnsupported = errors.New("operation not supported")

// UnsupportedError reports an operation the dialect cannot express.
type UnsupportedError struct {
	Dialect string
	Kind    models.OperationKind
	Reason  string
}

func (e *UnsupportedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not supported by %s", e.Kind, e.Dialect)
	}
	return fmt.Sprintf("%s is not supported by %s: %s", e.Kind, e.Dialect, e.Reason)
}

func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupported }
