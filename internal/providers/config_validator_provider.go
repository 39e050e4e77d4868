package providers

import (
	"fmt"

	"github.com/gookit/validate"

	"habitd/internal/structures"
)

// CnfValidator checks a decoded config against the validate struct
// tags before anything else starts up.
type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return fmt.Errorf("config validation: %s", v.Errors.One())
	}
	return nil
}
