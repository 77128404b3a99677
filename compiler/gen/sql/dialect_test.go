package sql

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/casgen/compiler/gen"
	"github.com/syssam/casgen/compiler/load"
)

func TestDialect_Name(t *testing.T) {
	assert.Equal(t, "sqlite", NewDialect(nil).Name())
}

func TestGenerate(t *testing.T) {
	g := newGraph(t, ledger)
	require.NoError(t, Generate(context.Background(), g))

	files := readTree(t, g.Target)
	assert.Len(t, files, 15)
	for _, name := range []string{
		"casgen.go",
		"client.go",
		"schema.go",
		"account.go",
		"account_create.go",
		"account_query.go",
		"account_update.go",
		"account_delete.go",
		filepath.Join("account", "account.go"),
		filepath.Join("user", "user.go"),
	} {
		assert.Contains(t, files, name)
	}

	fset := token.NewFileSet()
	for name, b := range files {
		_, err := parser.ParseFile(fset, name, b, parser.AllErrors)
		assert.NoError(t, err, name)
	}
}

func TestGenerate_Format(t *testing.T) {
	g := newGraph(t, ledger, gen.WithFormat(true), gen.WithHeader("Copyright 2026 Acme."))
	require.NoError(t, Generate(context.Background(), g))

	for name, b := range readTree(t, g.Target) {
		assert.Contains(t, string(b), "// Copyright 2026 Acme.\n// "+gen.DefaultHeader+"\n", name)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first := newGraph(t, ledger, gen.WithWorkers(1))
	second := newGraph(t, ledger, gen.WithWorkers(8))
	require.NoError(t, Generate(context.Background(), first))
	require.NoError(t, Generate(context.Background(), second))

	assert.Equal(t, readTree(t, first.Target), readTree(t, second.Target))
}

func TestGenerate_Snapshot(t *testing.T) {
	g := newGraph(t, ledger)
	require.NoError(t, Generate(context.Background(), g))

	b, err := os.ReadFile(filepath.Join(g.Target, "schema.go"))
	require.NoError(t, err)
	f, err := parser.ParseFile(token.NewFileSet(), "schema.go", b, 0)
	require.NoError(t, err)

	var (
		snapshot string
		install  int
	)
	ast.Inspect(f, func(n ast.Node) bool {
		spec, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		switch spec.Names[0].Name {
		case "Snapshot":
			snapshot, err = strconv.Unquote(spec.Values[0].(*ast.BasicLit).Value)
			require.NoError(t, err)
		case "InstallStatements":
			install = len(spec.Values[0].(*ast.CompositeLit).Elts)
		}
		return false
	})
	assert.Equal(t, len(g.Install), install)

	s, err := load.ParseSnapshot([]byte(snapshot))
	require.NoError(t, err)
	assert.Equal(t, g.Schema.Description(), s.Description())
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("nil graph", func(t *testing.T) {
		err := Generate(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("unsupported type", func(t *testing.T) {
		g := newGraph(t, ledger)
		g.Target = filepath.Join(g.Target, "store")
		g.Nodes[1].Fields[1].Ref = nil

		err := Generate(context.Background(), g)
		require.Error(t, err)
		assert.True(t, gen.IsUnsupportedTypeError(err))
		assert.NoDirExists(t, g.Target)
	})
}

// readTree returns the files under dir keyed by relative path.
func readTree(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[rel] = b
		return nil
	})
	require.NoError(t, err)
	return files
}
