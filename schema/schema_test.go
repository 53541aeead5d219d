package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildUser() Entity {
	return NewEntity("user").
		Field(Field{Name: "name", Type: "string", Required: true}).
		Field(Field{Name: "email", Type: "string", Required: true, Indexed: true}).
		Field(Field{Name: "age", Type: "int"}).
		Field(Field{Name: "active", Type: "bool", Default: true}).
		Build()
}

func TestDefineTable(t *testing.T) {
	assert.Equal(t, "DEFINE TABLE user SCHEMAFULL;", DefineTable(buildUser()))

	loose := NewEntity("events").Schemaless().StringField("kind").Build()
	assert.Equal(t, "DEFINE TABLE events SCHEMALESS;", DefineTable(loose))
}

func TestDefineFields(t *testing.T) {
	stmts, err := DefineFields(buildUser())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"DEFINE FIELD name ON user TYPE string ASSERT $value != NONE;",
		"DEFINE FIELD email ON user TYPE string ASSERT $value != NONE;",
		"DEFINE FIELD age ON user TYPE int;",
		"DEFINE FIELD active ON user TYPE bool VALUE true;",
	}, stmts)
}

func TestDefineFields_StorageNameWins(t *testing.T) {
	e := NewEntity("person").
		Field(Field{Name: "FullName", StorageName: "full_name", Type: "string"}).
		Build()
	stmts, err := DefineFields(e)
	require.NoError(t, err)
	assert.Equal(t, []string{"DEFINE FIELD full_name ON person TYPE string;"}, stmts)
}

func TestDefineIndexes(t *testing.T) {
	assert.Equal(t, []string{
		"DEFINE INDEX idx_user_email ON user FIELDS email;",
	}, DefineIndexes(buildUser()))
}

func TestDDL_Bundle(t *testing.T) {
	ddl, err := DDL(buildUser())
	require.NoError(t, err)

	assert.Contains(t, ddl, "DEFINE TABLE user SCHEMAFULL;")
	assert.Contains(t, ddl, "DEFINE FIELD name ON user TYPE string")
	assert.Contains(t, ddl, "DEFINE INDEX idx_user_email ON user FIELDS email;")
}

func TestBuilderHelpers(t *testing.T) {
	e := NewEntity("order").
		RecordField("customer", "user").
		FloatField("amount").
		StringField("status").
		Build()

	assert.Equal(t, []string{"customer", "amount", "status"}, e.FieldNames())
	assert.Equal(t, "record<user>", e.Fields[0].Type)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(buildUser()))

	err := r.Register(buildUser())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	e, ok := r.Get("user")
	require.True(t, ok)
	assert.Equal(t, "user", e.Collection)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	require.NoError(t, r.Register(NewEntity("order").StringField("status").Build()))
	assert.Equal(t, []string{"order", "user"}, r.Names())
}
