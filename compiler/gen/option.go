package gen

import (
	"errors"
	"go/token"
	"log/slog"
	"path"
	"runtime"
	"strings"
)

// DefaultHeader is the first line of every generated file.
const DefaultHeader = "Code generated by casgen. DO NOT EDIT."

// Config holds the global codegen configuration.
type Config struct {
	// Target is the directory generated files are written to.
	Target string
	// Package is the import path of the generated package, for example
	// "github.com/org/project/store". Its last element is the package name.
	Package string
	// Header is an additional comment placed above the generated-code
	// marker of every file, such as a license notice.
	Header string
	// Workers limits the number of files rendered in parallel. It
	// defaults to GOMAXPROCS.
	Workers int
	// Logger receives debug logs of the generation. It defaults to
	// slog.Default().
	Logger *slog.Logger
	// Format runs goimports over every rendered file.
	Format bool
}

// PackageName returns the name of the generated package.
func (c *Config) PackageName() string {
	return path.Base(c.Package)
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets an additional file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = strings.TrimSpace(header)
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/store".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		if name := path.Base(pkg); !token.IsIdentifier(name) {
			return NewConfigError("Package", pkg, "last path element must be a valid package name")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithWorkers sets the number of files rendered in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "workers cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger used for generation debug logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithFormat enables goimports formatting of the rendered files.
func WithFormat(enabled bool) Option {
	return func(c *Config) error {
		c.Format = enabled
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Target == "" {
		errs = append(errs, NewConfigError("Target", nil, "missing target directory in config"))
	}
	if c.Package == "" {
		errs = append(errs, NewConfigError("Package", nil, "missing package import path in config"))
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
