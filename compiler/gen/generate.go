package gen

import (
	"bytes"
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/casgen/schema/field"
)

// Import paths referenced by generated code.
const (
	casgenPkg  = "github.com/syssam/casgen"
	runtimePkg = casgenPkg + "/runtime"
	dialectPkg = casgenPkg + "/dialect"
	sqlPkg     = casgenPkg + "/dialect/sql"
	fieldPkg   = casgenPkg + "/schema/field"
)

// File is a rendered file. Path is relative to the target directory and
// uses forward slashes.
type File struct {
	Path    string
	Content []byte
}

// JenniferGenerator renders the graph with a dialect using Jennifer.
// Files are rendered in parallel and kept in memory, so a failing file
// leaves the target untouched.
type JenniferGenerator struct {
	graph   *Graph
	workers int
	dialect Dialect
}

// NewJenniferGenerator creates a new Jennifer-based generator.
// You must call WithDialect() to set a dialect before calling Generate().
//
// Example:
//
//	import "github.com/syssam/casgen/compiler/gen/sql"
//
//	gen := gen.NewJenniferGenerator(graph)
//	gen.WithDialect(sql.NewDialect(gen))
//	gen.Generate(ctx)
func NewJenniferGenerator(g *Graph) *JenniferGenerator {
	return &JenniferGenerator{
		graph:   g,
		workers: g.workers(),
	}
}

// WithWorkers sets the number of parallel workers.
func (g *JenniferGenerator) WithWorkers(n int) *JenniferGenerator {
	if n > 0 {
		g.workers = n
	}
	return g
}

// WithDialect sets the dialect generator.
func (g *JenniferGenerator) WithDialect(d Dialect) *JenniferGenerator {
	if d != nil {
		g.dialect = d
	}
	return g
}

// task is a single file of the output.
type task struct {
	path string
	gen  func() *jen.File
}

func (g *JenniferGenerator) tasks() []task {
	var tasks []task
	for _, t := range g.graph.Nodes {
		name := t.FileName()
		tasks = append(tasks,
			task{name + ".go", func() *jen.File { return g.dialect.GenEntity(t) }},
			task{name + "_create.go", func() *jen.File { return g.dialect.GenCreate(t) }},
			task{name + "_query.go", func() *jen.File { return g.dialect.GenQuery(t) }},
			task{name + "_update.go", func() *jen.File { return g.dialect.GenUpdate(t) }},
			task{name + "_delete.go", func() *jen.File { return g.dialect.GenDelete(t) }},
			task{path.Join(t.PackageDir(), t.PackageDir()+".go"), func() *jen.File { return g.dialect.GenPackage(t) }},
		)
	}
	return append(tasks,
		task{"client.go", g.dialect.GenClient},
		task{"casgen.go", g.dialect.GenCasgen},
		task{"schema.go", g.dialect.GenSchema},
	)
}

// Render renders all files in memory. The result is sorted by path and
// is byte-identical for equal graphs and configs.
func (g *JenniferGenerator) Render(ctx context.Context) ([]File, error) {
	if g.dialect == nil {
		return nil, NewConfigError("Dialect", nil, "no dialect set: call WithDialect() before Generate()")
	}
	if err := g.graph.CheckTypes(); err != nil {
		return nil, err
	}
	tasks := g.tasks()
	files := make([]File, len(tasks))

	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers)
	for i, t := range tasks {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := g.render(t)
			if err != nil {
				return err
			}
			files[i] = File{Path: t.path, Content: b}
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (g *JenniferGenerator) render(t task) ([]byte, error) {
	start := time.Now()
	f := t.gen()
	if f == nil {
		return nil, NewGenerationError("render", t.path, "dialect returned no file", nil)
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("render", t.path, "", err)
	}
	b := buf.Bytes()
	if g.graph.Format {
		formatted, err := imports.Process(filepath.Join(g.graph.Target, t.path), b, nil)
		if err != nil {
			return nil, NewGenerationError("format", t.path, "", err)
		}
		b = formatted
	}
	g.graph.logger().Debug("rendered file",
		"file", t.path,
		"bytes", len(b),
		"duration", time.Since(start),
	)
	return b, nil
}

// Generate renders all files and writes them to the target directory.
// Nothing is written when rendering fails.
func (g *JenniferGenerator) Generate(ctx context.Context) error {
	files, err := g.Render(ctx)
	if err != nil {
		return err
	}
	w := NewWriter(g.graph.Target)
	if err := w.WriteAll(files); err != nil {
		return err
	}
	m := w.Metrics()
	g.graph.logger().Debug("generated package",
		"target", g.graph.Target,
		"package", g.graph.Package,
		"files", m.FilesWritten,
		"bytes", m.TotalBytes,
		"kept", m.FilesKept,
		"removed", m.FilesRemoved,
	)
	return nil
}

// NewFile creates a new Jennifer file with the standard header comment.
// pkg is either the output package name or an entity package name.
func (g *JenniferGenerator) NewFile(pkg string) *jen.File {
	p := g.graph.Package
	if pkg != g.Pkg() {
		p = path.Join(p, pkg)
	}
	f := jen.NewFilePathName(p, pkg)
	f.ImportNames(g.importNames())
	if g.graph.Header != "" {
		for _, line := range strings.Split(g.graph.Header, "\n") {
			if line = strings.TrimRight(line, " \t"); line == "" {
				line = "//"
			}
			f.HeaderComment(line)
		}
	}
	f.HeaderComment(DefaultHeader)
	return f
}

// importNames maps the packages generated code may import to their names,
// so the import block carries no aliases.
func (g *JenniferGenerator) importNames() map[string]string {
	names := map[string]string{
		casgenPkg:  "casgen",
		runtimePkg: "runtime",
		dialectPkg: "dialect",
		sqlPkg:     "sql",
		fieldPkg:   "field",
	}
	for _, t := range g.graph.Nodes {
		names[g.EntityPkgPath(t)] = t.Package()
	}
	return names
}

// GoType returns the Jennifer code for a field's Go type. Nullable fields
// are pointers.
func (g *JenniferGenerator) GoType(f *Field) jen.Code {
	if f.Nullable {
		return jen.Id("*" + f.Type.GoType())
	}
	return g.BaseType(f)
}

// BaseType returns the Jennifer code for a field's base type (without pointer).
func (g *JenniferGenerator) BaseType(f *Field) jen.Code {
	return jen.Id(f.Type.GoType())
}

// ZeroValue returns the Jennifer code for a field's zero value.
func (g *JenniferGenerator) ZeroValue(f *Field) jen.Code {
	if f.Nullable {
		return jen.Nil()
	}
	switch f.Type {
	case field.TypeText:
		return jen.Lit("")
	case field.TypeBool:
		return jen.False()
	default:
		return jen.Lit(0)
	}
}

// CasgenPkg returns the import path for the casgen package.
func (g *JenniferGenerator) CasgenPkg() string { return casgenPkg }

// RuntimePkg returns the import path for the runtime package.
func (g *JenniferGenerator) RuntimePkg() string { return runtimePkg }

// DialectPkg returns the import path for the dialect package.
func (g *JenniferGenerator) DialectPkg() string { return dialectPkg }

// SQLPkg returns the import path for the dialect/sql package.
func (g *JenniferGenerator) SQLPkg() string { return sqlPkg }

// EntityPkgPath returns the full import path for an entity's subpackage.
func (g *JenniferGenerator) EntityPkgPath(t *Type) string {
	return path.Join(g.graph.Package, t.PackageDir())
}

// Graph returns the schema graph.
func (g *JenniferGenerator) Graph() *Graph {
	return g.graph
}

// Pkg returns the output package name.
func (g *JenniferGenerator) Pkg() string {
	return g.graph.PackageName()
}

// Verify JenniferGenerator implements GeneratorHelper at compile time.
var _ GeneratorHelper = (*JenniferGenerator)(nil)
