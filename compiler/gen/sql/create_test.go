package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/casgen/compiler/gen"
	"github.com/syssam/casgen/schema"
)

func TestGenCreate(t *testing.T) {
	h, user, account := newHelper(t)

	code := genCreate(h, account).GoString()
	assert.Contains(t, code, "func (c *AccountClient) Create(ctx context.Context, balance int64, _user *uint64, _len string, _a bool, rate *float64) (*Account, error)")
	assert.Regexp(t, `version:\s+casgen\.InitialVersion`, code)
	assert.Regexp(t, `user:\s+clone\(_user\)`, code)
	assert.Regexp(t, `len_:\s+_len`, code)
	assert.Contains(t, code, "runtime.Create(ctx, c.driver, account.Label, account.InsertStmt, func(id uint64) []any {")
	assert.Contains(t, code, "return []any{id, v.version, v.balance, v.user, v.len_, v.a, v.rate}")
	assert.Contains(t, code, "v.id = id")
	assert.Contains(t, code, `"github.com/acme/ledger/store/account"`)

	assert.NotContains(t, code, "NewValidationError")

	code = genCreate(h, user).GoString()
	assert.Contains(t, code, "func (c *UserClient) Create(ctx context.Context, email string, password string, createdAt int64) (*User, error)")
}

func TestGenCreate_Bulk(t *testing.T) {
	h, _, account := newHelper(t)

	code := genCreate(h, account).GoString()
	assert.Contains(t, code, "type AccountCreate struct")
	assert.Regexp(t, `User\s+\*uint64`, code)
	assert.Regexp(t, `Len\s+string`, code)
	assert.Contains(t, code, "func (c *AccountClient) CreateBulk(ctx context.Context, rows ...AccountCreate) ([]*Account, error)")
	assert.Contains(t, code, "vs := make([]*Account, len(rows))")
	assert.Contains(t, code, "for i, row := range rows {")
	assert.Regexp(t, `user:\s+clone\(row\.User\)`, code)
	assert.Regexp(t, `len_:\s+row\.Len`, code)
	assert.Contains(t, code, "ids, err := runtime.CreateBulk(ctx, c.driver, account.Label, account.InsertStmt, len(vs), func(i int, id uint64) []any {")
	assert.Contains(t, code, "return []any{id, vs[i].version, vs[i].balance, vs[i].user, vs[i].len_, vs[i].a, vs[i].rate}")
	assert.Contains(t, code, "vs[i].id = id")
}

func TestGenCreate_BulkNoFields(t *testing.T) {
	g := newGraph(t, &schema.Description{Entities: []schema.EntityDescription{{Name: "Marker"}}})
	code := genCreate(gen.NewJenniferGenerator(g), g.Nodes[0]).GoString()
	assert.Contains(t, code, "type MarkerCreate struct{}")
	assert.Contains(t, code, "for i := range rows {")
	assert.NotContains(t, code, "row.")
}

func TestGenCreate_Validator(t *testing.T) {
	g := newGraph(t, validated())
	h := gen.NewJenniferGenerator(g)
	user, account := g.Nodes[0], g.Nodes[1]

	code := genCreate(h, account).GoString()
	assert.Contains(t, code, "if err := validateAccount(ctx, v); err != nil {")
	assert.Contains(t, code, "if err := validateAccount(ctx, vs[i]); err != nil {")
	assert.Contains(t, code, `return nil, casgen.NewValidationError(account.Label, "create", err)`)
	// The instance is checked before the id is allocated.
	assert.Less(t, strings.Index(code, "validateAccount(ctx, v)"), strings.Index(code, "runtime.Create("))

	assert.NotContains(t, genCreate(h, user).GoString(), "NewValidationError")
}
