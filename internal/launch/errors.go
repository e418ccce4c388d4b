package launch

import (
	"errors"
	"fmt"
)

// MissingInformationError aborts a launch when a complete record
// cannot be assembled. No partial record is ever produced.
type MissingInformationError struct {
	Field string
}

func (e *MissingInformationError) Error() string {
	return fmt.Sprintf("missing information: no %s could be determined for this launch", e.Field)
}

// IsMissingInformation reports whether err is a
// MissingInformationError.
func IsMissingInformation(err error) bool {
	var me *MissingInformationError
	return errors.As(err, &me)
}
