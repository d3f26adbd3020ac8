package arkconfig

import (
	"os"

	"arkman.dev/cli/internal/core/document"
)

const (
	// DefaultIncludesDir is where !include fragments are looked up.
	DefaultIncludesDir = "./configs/yml/includes"

	// CRLF is the line terminator the game server writes.
	CRLF = "\r\n"
	LF   = "\n"
)

// EnvPolicy decides what happens to ${NAME} placeholders of unset variables.
type EnvPolicy int

const (
	// EnvLenient substitutes an empty string.
	EnvLenient EnvPolicy = iota
	// EnvStrict fails with an EnvVarError.
	EnvStrict
)

type options struct {
	includes  document.IncludeResolver
	envPolicy EnvPolicy
	lookupEnv func(string) (string, bool)
	newline   string
	encoding  Encoding
}

// Option tunes reading, writing and YAML conversion.
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		includes:  document.DirIncludes(DefaultIncludesDir),
		envPolicy: EnvLenient,
		lookupEnv: os.LookupEnv,
		newline:   CRLF,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithIncludesDir resolves !include fragments relative to dir.
func WithIncludesDir(dir string) Option {
	return func(o *options) {
		o.includes = document.DirIncludes(dir)
	}
}

// WithIncludes installs a custom fragment resolver. A nil resolver disables
// includes.
func WithIncludes(resolver document.IncludeResolver) Option {
	return func(o *options) {
		o.includes = resolver
	}
}

func WithEnvPolicy(policy EnvPolicy) Option {
	return func(o *options) {
		o.envPolicy = policy
	}
}

// WithLookupEnv replaces os.LookupEnv for placeholder expansion.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookupEnv = lookup
	}
}

// WithNewline sets the line terminator used by Dump and Write.
func WithNewline(newline string) Option {
	return func(o *options) {
		o.newline = newline
	}
}

// WithEncoding overrides the recorded encoding on Write.
func WithEncoding(enc Encoding) Option {
	return func(o *options) {
		o.encoding = enc
	}
}
