package config

import (
	"fmt"
	"reflect"
)

// InvalidTargetError is returned when loadEnv receives anything but a pointer
// to a struct.
type InvalidTargetError struct {
	Value reflect.Type
}

func (e *InvalidTargetError) Error() string {
	if e.Value.Kind() != reflect.Ptr {
		return fmt.Sprintf("config: target must be a pointer to struct, got %s", e.Value.Kind())
	}
	return fmt.Sprintf("config: target must be a pointer to struct, got pointer to %s", e.Value.Elem().Kind())
}

// FieldError wraps a conversion failure while setting one field from its
// environment variable.
type FieldError struct {
	FieldName string
	EnvVar    string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: setting field %s from env %s=%s: %v",
		e.FieldName, e.EnvVar, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// UnsupportedTypeError is returned for struct fields whose type the env
// loader cannot convert into.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("config: unsupported field type %s", e.Type)
}
