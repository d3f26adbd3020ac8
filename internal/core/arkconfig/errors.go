package arkconfig

import (
	"errors"
	"fmt"
	"strings"

	"arkman.dev/cli/internal/core/document"
)

var (
	// ErrStructural marks failures in the shape of a configuration document.
	ErrStructural = errors.New("structural configuration error")

	// ErrMissingEnvVar is returned under the strict environment policy.
	ErrMissingEnvVar = errors.New("environment variable is not set")

	// ErrEncodingDetection means neither UTF-8 nor UTF-16 decoded the file.
	ErrEncodingDetection = errors.New("unable to detect text encoding")

	ErrMissingInclude = document.ErrMissingInclude
	ErrIncludeCycle   = document.ErrIncludeCycle
)

// IncludeError reports a failed !include directive.
type IncludeError = document.IncludeError

// StructuralError names the location of a structural failure.
type StructuralError struct {
	Section string
	Key     string
	Line    int
	Reason  string
	Err     error
}

func (e *StructuralError) Error() string {
	var where []string
	if e.Line > 0 {
		where = append(where, fmt.Sprintf("line %d", e.Line))
	}
	if e.Section != "" {
		where = append(where, fmt.Sprintf("section [%s]", e.Section))
	}
	if e.Key != "" {
		where = append(where, fmt.Sprintf("key %q", e.Key))
	}

	msg := e.Reason
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if len(where) == 0 {
		return msg
	}
	return strings.Join(where, ", ") + ": " + msg
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// EnvVarError reports a ${NAME} placeholder whose variable is unset.
type EnvVarError struct {
	Name    string
	Section string
	Key     string
}

func (e *EnvVarError) Error() string {
	return fmt.Sprintf("[%s] %s: environment variable %s is not set", e.Section, e.Key, e.Name)
}

func (e *EnvVarError) Unwrap() error {
	return ErrMissingEnvVar
}

// EncodingError is returned by Read when the file is neither UTF-8 nor UTF-16.
type EncodingError struct {
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Path, ErrEncodingDetection, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, ErrEncodingDetection)
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncodingDetection
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
