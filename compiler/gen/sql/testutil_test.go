package sql

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/casgen/compiler/gen"
	"github.com/syssam/casgen/schema"
)

// ledger is the description used by the emitter tests. Account covers a
// nullable reference, a predeclared identifier and a field named like the
// entity receiver.
var ledger = &schema.Description{Entities: []schema.EntityDescription{
	{
		Name:    "User",
		Comment: "A person holding accounts.",
		Attributes: []schema.AttributeDescription{
			{Name: "email", Type: "text", Unique: true},
			{Name: "password", Type: "text", Sensitive: true},
			{Name: "createdAt", Type: "integer", Immutable: true},
		},
	},
	{
		Name:  "Account",
		Table: "ledger_accounts",
		Attributes: []schema.AttributeDescription{
			{Name: "balance", Type: "integer"},
			{Name: "user", Type: "reference", Ref: "User", Nullable: true},
			{Name: "len", Type: "text"},
			{Name: "a", Type: "boolean"},
			{Name: "rate", Type: "real", Nullable: true},
		},
	},
}}

// validated is ledger with a validator on Account.
func validated() *schema.Description {
	d := *ledger
	d.Entities = append([]schema.EntityDescription(nil), ledger.Entities...)
	d.Entities[1].Validator = "validateAccount"
	return &d
}

func newGraph(t *testing.T, d *schema.Description, opts ...gen.Option) *gen.Graph {
	t.Helper()
	s, err := schema.New(d)
	require.NoError(t, err)
	opts = append([]gen.Option{
		gen.WithTarget(t.TempDir()),
		gen.WithPackage("github.com/acme/ledger/store"),
	}, opts...)
	c, err := gen.NewConfig(opts...)
	require.NoError(t, err)
	g, err := gen.NewGraph(c, s)
	require.NoError(t, err)
	return g
}

// newHelper returns a generator over the ledger graph, and its User and
// Account types.
func newHelper(t *testing.T) (*gen.JenniferGenerator, *gen.Type, *gen.Type) {
	t.Helper()
	g := newGraph(t, ledger)
	h := gen.NewJenniferGenerator(g)
	h.WithDialect(NewDialect(h))
	return h, g.Nodes[0], g.Nodes[1]
}
