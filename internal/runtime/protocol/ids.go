package protocol

import (
	"fmt"

	"github.com/drblury/toolbus/internal/runtime/subjects"
)

func fieldError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}

func requiredID(field, value string) error {
	if err := subjects.ValidID(value); err != nil {
		return fieldError(field, err)
	}
	return nil
}

func optionalID(field, value string) error {
	if value == "" {
		return nil
	}
	return requiredID(field, value)
}
