package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchema(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadStructMessage(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "instantiate_msg.json", `{
		"title": "InstantiateMsg",
		"type": "object",
		"required": ["name", "decimals"],
		"properties": {
			"name": {"type": "string"},
			"decimals": {"type": "integer"},
			"cap": {"anyOf": [{"$ref": "#/definitions/Uint128"}, {"type": "null"}]},
			"owners": {"type": "array", "items": {"type": "string"}}
		},
		"definitions": {
			"Uint128": {"type": "string"}
		}
	}`)

	a := New()
	require.NoError(t, a.LoadDir(dir))

	assert.Equal(t, []string{"InstantiateMsg"}, a.MessageTitles())
	assert.False(t, a.Enums["InstantiateMsg"])
	assert.Equal(t, "string", a.BaseTypes["Uint128"])

	members := a.Messages["InstantiateMsg"]["InstantiateMsg"]
	require.Equal(t, []Member{
		{Name: "cap", Def: "Uint128?"},
		{Name: "decimals", Def: "integer"},
		{Name: "name", Def: "string"},
		{Name: "owners", Def: "[string]"},
	}, members)
}

func TestLoadEnumMessage(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "execute_msg.json", `{
		"title": "ExecuteMsg",
		"anyOf": [
			{
				"type": "object",
				"required": ["transfer"],
				"properties": {
					"transfer": {
						"type": "object",
						"required": ["recipient", "amount"],
						"properties": {
							"recipient": {"$ref": "#/definitions/HumanAddr"},
							"amount": {"allOf": [{"$ref": "#/definitions/Uint128"}]}
						}
					}
				}
			},
			{
				"type": "object",
				"required": ["burn"],
				"properties": {
					"burn": {
						"type": "object",
						"required": ["amount"],
						"properties": {
							"amount": {"$ref": "#/definitions/Uint128"}
						}
					}
				}
			}
		],
		"definitions": {
			"HumanAddr": {"type": "string"},
			"Uint128": {"type": "string"}
		}
	}`)

	a := New()
	require.NoError(t, a.LoadDir(dir))

	assert.True(t, a.Enums["ExecuteMsg"])
	assert.Equal(t, []string{"burn", "transfer"}, a.Variants("ExecuteMsg"))
	assert.Equal(t, []Member{
		{Name: "amount", Def: "Uint128"},
		{Name: "recipient", Def: "HumanAddr"},
	}, a.Messages["ExecuteMsg"]["transfer"])
}

func TestStructDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "query_msg.json", `{
		"title": "QueryMsg",
		"anyOf": [
			{
				"type": "object",
				"required": ["balance"],
				"properties": {
					"balance": {
						"type": "object",
						"required": ["address"],
						"properties": {"address": {"type": "string"}}
					}
				}
			}
		],
		"definitions": {
			"Coin": {
				"type": "object",
				"required": ["denom", "amount"],
				"properties": {
					"denom": {"type": "string"},
					"amount": {"type": "string"}
				}
			}
		}
	}`)

	a := New()
	require.NoError(t, a.LoadDir(dir))

	assert.Equal(t, map[string]string{"denom": "string", "amount": "string"}, a.Structs["Coin"])
}

func TestSkipsNonMessageFiles(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "untitled.json", `{"type": "object"}`)
	writeSchema(t, dir, "readme.txt", `not a schema`)

	a := New()
	require.NoError(t, a.LoadDir(dir))
	assert.Empty(t, a.Messages)
}

func TestFromContractFileMissingDir(t *testing.T) {
	a := FromContractFile(filepath.Join(t.TempDir(), "token.wasm"))
	require.NotNil(t, a)
	assert.Empty(t, a.Messages)
}
