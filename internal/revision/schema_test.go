// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/revision"
)

func compilePayloadSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()

	data, err := revision.PayloadSchema()
	require.NoError(t, err, "generate schema")

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	require.NoError(t, err, "parse schema document")

	compiler := jsonschema.NewCompiler()
	require.NoError(t, compiler.AddResource("payload.json", doc))

	schema, err := compiler.Compile("payload.json")
	require.NoError(t, err, "compile schema")
	return schema
}

func TestPayloadSchema_ValidDocument(t *testing.T) {
	schema := compilePayloadSchema(t)

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(`{
		"entity_ids": ["01HZN3XS000000000000000000"],
		"read_mode": "selective",
		"write_mode": "unchanged",
		"read_user_ids": ["01HZN3XS000000000000000001"],
		"description": "grant the scribe"
	}`))
	require.NoError(t, err)

	assert.NoError(t, schema.Validate(doc))
}

func TestPayloadSchema_RejectsMalformedDocuments(t *testing.T) {
	schema := compilePayloadSchema(t)

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing entity_ids",
			doc:  `{"read_mode": "global", "write_mode": "unchanged"}`,
		},
		{
			name: "empty entity_ids",
			doc:  `{"entity_ids": [], "read_mode": "global", "write_mode": "unchanged"}`,
		},
		{
			name: "malformed ulid",
			doc:  `{"entity_ids": ["not-a-ulid"], "read_mode": "global", "write_mode": "unchanged"}`,
		},
		{
			name: "unknown mode value",
			doc:  `{"entity_ids": ["01HZN3XS000000000000000000"], "read_mode": "public", "write_mode": "unchanged"}`,
		},
		{
			name: "unknown property",
			doc:  `{"entity_ids": ["01HZN3XS000000000000000000"], "read_mode": "global", "write_mode": "unchanged", "note": "x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := jsonschema.UnmarshalJSON(strings.NewReader(tt.doc))
			require.NoError(t, err)
			assert.Error(t, schema.Validate(doc))
		})
	}
}

func TestPayloadSchema_ShapeMatchesValidate(t *testing.T) {
	// A document the schema admits must unmarshal cleanly into a Payload
	// that Validate can judge; the schema gates shape, Validate gates
	// semantics.
	schema := compilePayloadSchema(t)

	raw := `{
		"entity_ids": ["01HZN3XS000000000000000000"],
		"read_mode": "hidden",
		"write_mode": "selective",
		"write_user_ids": ["01HZN3XS000000000000000001"]
	}`
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	require.NoError(t, err)
	require.NoError(t, schema.Validate(doc))

	var p revision.Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	_, err = p.Validate()
	assert.Error(t, err, "hidden read with selective write is a semantic error, not a shape error")
}
