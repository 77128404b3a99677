// Command casgen compiles an entity description into a Go package of
// versioned accessors backed by SQLite.
//
// Usage:
//
//	casgen -schema schema.json -target ./store -package example.com/app/store
//	casgen -config casgen.yaml -docs ./docs -install ./app.db
//	casgen -jsonschema > description.schema.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/syssam/casgen/compiler/load"
)

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

// errUsage marks errors caused by a misuse of the command line.
var errUsage = errors.New("usage")

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("casgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		fv         options
		configPath = fs.String("config", "", "YAML config file")
		jsonSchema = fs.Bool("jsonschema", false, "Print the JSON Schema of the description format and exit")
		watch      = fs.Bool("watch", false, "Regenerate when the description file changes")
		logLevel   = fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	fs.StringVar(&fv.Schema, "schema", "", "Description file (.json, .yaml, .yml)")
	fs.StringVar(&fv.Target, "target", "", "Output directory")
	fs.StringVar(&fv.Package, "package", "", "Import path of the generated package")
	fs.StringVar(&fv.Header, "header", "", "Comment placed above the generated-code marker, such as a license notice")
	fs.StringVar(&fv.Docs, "docs", "", "Also write Markdown and Graphviz docs to this directory")
	fs.StringVar(&fv.Install, "install", "", "Apply the install DDL to this SQLite database")
	fs.BoolVar(&fv.Format, "format", false, "Run goimports over the generated files")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "casgen: unknown arguments: %v\n", fs.Args())
		return 2
	}

	if *jsonSchema {
		b, err := load.JSONSchema()
		if err != nil {
			fmt.Fprintf(stderr, "casgen: %v\n", err)
			return 1
		}
		if _, err := stdout.Write(b); err != nil {
			return 1
		}
		return 0
	}

	var ll slog.Level
	if err := ll.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(stderr, "casgen: invalid -log-level %q\n", *logLevel)
		return 2
	}
	log := newLogger(stderr, ll)

	o, err := resolve(*configPath, fv, visited(fs))
	if err == nil {
		if *watch {
			err = watchSchema(ctx, o, log)
		} else {
			err = run(ctx, o, log)
		}
	}
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "casgen: %v\n", err)
		fs.Usage()
		return 2
	default:
		fmt.Fprintf(stderr, "casgen: %v\n", err)
		return 1
	}
}

// newLogger returns a console logger writing to w. Colors are enabled only
// when w is a terminal.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

// visited returns the names of the flags set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// resolve merges the config file at path with the flags set on the command
// line. Flags win.
func resolve(path string, fv options, set map[string]bool) (*options, error) {
	o := &options{}
	if path != "" {
		c, err := readConfig(path)
		if err != nil {
			return nil, err
		}
		o = c
	}
	for _, f := range []struct {
		name string
		dst  *string
		src  string
	}{
		{"schema", &o.Schema, fv.Schema},
		{"target", &o.Target, fv.Target},
		{"package", &o.Package, fv.Package},
		{"header", &o.Header, fv.Header},
		{"docs", &o.Docs, fv.Docs},
		{"install", &o.Install, fv.Install},
	} {
		if set[f.name] {
			*f.dst = f.src
		}
	}
	if set["format"] {
		o.Format = fv.Format
	}
	var missing []string
	for _, m := range []struct{ name, value string }{
		{"schema", o.Schema},
		{"target", o.Target},
		{"package", o.Package},
	} {
		if m.value == "" {
			missing = append(missing, "-"+m.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", errUsage, strings.Join(missing, ", "))
	}
	return o, nil
}
