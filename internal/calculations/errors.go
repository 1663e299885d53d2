package calculations

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTerms возвращается при некорректных параметрах кредита
	ErrInvalidTerms = errors.New("invalid loan terms")
	// ErrUnsupportedMethod возвращается для неизвестного способа амортизации
	ErrUnsupportedMethod = errors.New("unsupported amortization method")
)

func invalidTerms(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTerms, fmt.Sprintf(format, args...))
}

func unsupportedMethod(m Method) error {
	return fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(m))
}
