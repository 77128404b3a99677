package doc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/casgen/compiler/gen"
	"github.com/syssam/casgen/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.New(&schema.Description{Entities: []schema.EntityDescription{
		{
			Name:     "User",
			Comment:  "A person holding accounts.",
			Category: "people",
			Attributes: []schema.AttributeDescription{
				{Name: "email", Type: "text", Unique: true, Comment: "Login | contact address."},
				{Name: "password", Type: "text", Sensitive: true},
			},
		},
		{
			Name:     "Account",
			Table:    "ledger_accounts",
			Category: "payment methods",
			Attributes: []schema.AttributeDescription{
				{Name: "balance", Type: "integer"},
				{Name: "owner", Type: "reference", Ref: "User", Nullable: true},
			},
		},
		{
			Name: "Audit",
			Attributes: []schema.AttributeDescription{
				{Name: "account", Type: "reference", Ref: "Account", Immutable: true},
			},
		},
	}})
	require.NoError(t, err)
	return s
}

func TestMarkdown(t *testing.T) {
	b, err := Markdown(testSchema(t), "ledger")
	require.NoError(t, err)
	md := string(b)

	assert.True(t, strings.HasPrefix(md, "# Data Model\n\n## Table of Contents\n\n1. [General](#category-general)\n"), md)
	// Categories are sorted by name, uncategorized entities first.
	assert.Contains(t, md, "1. [General](#category-general)\n    1. [Audit](#audit)\n2. [Payment Methods](#category-payment-methods)\n    1. [Account](#account)\n3. [People](#category-people)\n    1. [User](#user)\n4. [Diagram](#diagram)\n")
	assert.Contains(t, md, "<a name=\"category-people\"></a>\n## 3. People\n")
	assert.Contains(t, md, "<a name=\"user\"></a>\n### 3.1. User\n\nA person holding accounts.\n\n*Table*: `users`\n")
	assert.Contains(t, md, "| email | unique text | Login \\| contact address. |\n")
	assert.Contains(t, md, "| password | sensitive text |  |\n")
	assert.Contains(t, md, "| owner | optional reference to [User](#user) |  |\n")
	assert.Contains(t, md, "| account | immutable reference to [Account](#account) |  |\n")
	assert.Contains(t, md, "## 4. Diagram\n")
	assert.True(t, strings.HasSuffix(md, "![Data model diagram](./ledger.svg)\n"), md)
}

func TestDot(t *testing.T) {
	b, err := Dot(testSchema(t), "")
	require.NoError(t, err)
	dot := string(b)

	assert.True(t, strings.HasPrefix(dot, "digraph \"datamodel\" {\n  graph [rankdir=\"LR\"];\n"), dot)
	assert.Contains(t, dot, "  subgraph cluster_1 {\n    label=\"Payment Methods\";\n    color=lightgrey;\n")
	assert.Contains(t, dot, `<TD PORT="n"><B>User</B></TD></TR><TR><TD PORT="f0">email</TD></TR><TR><TD PORT="f1">password</TD></TR></TABLE>>];`)
	assert.Contains(t, dot, "\n  \"Account\":f1 -> \"User\":n [style=dashed];\n")
	assert.Contains(t, dot, "\n  \"Audit\":f0 -> \"Account\":n;\n")
	assert.True(t, strings.HasSuffix(dot, "\n}\n"), dot)
}

func TestFiles(t *testing.T) {
	files, err := Files(testSchema(t), "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "datamodel.md", files[0].Path)
	assert.Equal(t, "datamodel.dot", files[1].Path)

	for _, name := range []string{"a/b", `a\b`, ".hidden"} {
		_, err := Files(testSchema(t), name)
		require.Error(t, err, name)
		assert.True(t, gen.IsConfigError(err), name)
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, Write(dir, "ledger", testSchema(t)))

	md, err := os.ReadFile(filepath.Join(dir, "ledger.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Data Model")
	assert.FileExists(t, filepath.Join(dir, "ledger.dot"))
}

func TestWrite_Deterministic(t *testing.T) {
	first, err := Files(testSchema(t), "ledger")
	require.NoError(t, err)
	second, err := Files(testSchema(t), "ledger")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
