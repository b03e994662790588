// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ulidPattern matches a canonical 26-character Crockford base32 ULID.
const ulidPattern = "^[0-9A-HJKMNP-TV-Z]{26}$"

// PayloadSchema returns the JSON Schema for bulk revision payloads. Clients
// submitting payload documents over a transport can validate against it
// before the request ever reaches Validate; the schema covers shape only,
// the cross-field rules stay in Validate.
func PayloadSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         schemaForType,
	}
	schema := reflector.Reflect(&Payload{})
	schema.Title = "Bulk access revision payload"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_MARSHAL_FAILED").Wrap(err)
	}
	return data, nil
}

func schemaForType(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeOf(ulid.ULID{}):
		return &jsonschema.Schema{
			Type:    "string",
			Pattern: ulidPattern,
		}
	case reflect.TypeOf(ModeSelection("")):
		return &jsonschema.Schema{
			Type: "string",
			Enum: []any{"unchanged", "global", "selective", "hidden", "owner_only"},
		}
	}
	return nil
}
