package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenPackage(t *testing.T) {
	h, user, account := newHelper(t)

	code := genPackage(h, account).GoString()
	assert.Contains(t, code, "package account\n")
	assert.Contains(t, code, "// Package account holds the table layout and statements of the Account entity.")
	assert.Regexp(t, `Label\s+= "account"`, code)
	assert.Regexp(t, `Table\s+= "ledger_accounts"`, code)
	assert.Regexp(t, `FieldID\s+= "id"`, code)
	assert.Regexp(t, `FieldVersion\s+= "version"`, code)
	assert.Regexp(t, `FieldBalance\s+= "balance"`, code)
	assert.Contains(t, code, "var Columns = []string{FieldID, FieldVersion, FieldBalance, FieldUser, FieldLen, FieldA, FieldRate}")
	assert.Contains(t, code, "func ValidColumn(column string) bool")

	// Statements are quoted as Go literals.
	assert.Regexp(t, "InsertStmt\\s+= \"INSERT INTO `ledger_accounts`", code)
	assert.Contains(t, code, "UpdateBalanceStmt")
	assert.Contains(t, code, "ListStmt")
	assert.NotContains(t, code, "SelectBy")
	assert.Regexp(t, "ListByUserStmt\\s+= \"SELECT .* FROM `ledger_accounts` WHERE `user` = \\? ORDER BY `id`\"", code)

	code = genPackage(h, user).GoString()
	assert.NotContains(t, code, "ListBy")
	assert.Regexp(t, `FieldCreatedAt\s+= "created_at"`, code)
	assert.Contains(t, code, "SelectByEmailStmt")
	assert.Contains(t, code, "UpdatePasswordStmt")
	assert.NotContains(t, code, "UpdateCreatedAtStmt")
}

func TestGenPackage_Attributes(t *testing.T) {
	h, user, account := newHelper(t)

	code := genPackage(h, account).GoString()
	assert.Contains(t, code, "var Attributes = []casgen.Attribute{")
	assert.Contains(t, code, `"github.com/syssam/casgen/schema/field"`)
	assert.Regexp(t, `Column:\s+FieldUser,\s+Mutable:\s+true,\s+Name:\s+"user",\s+Nullable:\s+true,\s+Ref:\s+"user",\s+Type:\s+field\.TypeRef,`, code)
	assert.Regexp(t, `Name:\s+"rate",\s+Nullable:\s+true,\s+Type:\s+field\.TypeFloat,`, code)

	// Sensitive attributes are not listed.
	code = genPackage(h, user).GoString()
	assert.Regexp(t, `Column:\s+FieldEmail,\s+Mutable:\s+true,\s+Name:\s+"email",\s+Type:\s+field\.TypeText,\s+Unique:\s+true,`, code)
	assert.Regexp(t, `Column:\s+FieldCreatedAt,\s+Name:\s+"createdAt",\s+Type:\s+field\.TypeInt,`, code)
	assert.NotRegexp(t, `Name:\s+"password"`, code)
}

func TestGenPackage_Statements(t *testing.T) {
	h, _, account := newHelper(t)

	code := genPackage(h, account).GoString()
	for _, stmt := range []string{
		account.Statements.Insert,
		account.Statements.Select,
		account.Statements.Delete,
		account.Statements.Count,
		account.Statements.List,
		account.Statements.Update["balance"],
	} {
		assert.Contains(t, code, `"`+stmt+`"`)
	}
}
