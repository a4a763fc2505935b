package refdata

import "github.com/santhosh-tekuri/jsonschema/v5"

// Schemas check document shape only. Row-level junk (a null planet type, a
// non-integer value) is skipped by the parsers instead of rejecting the file.

const planetValuesSchema = `{
  "oneOf": [
    {"type": "array", "items": {"type": "object"}},
    {
      "type": "object",
      "properties": {
        "entries": {"type": "array", "items": {"type": "object"}},
        "rows": {"type": "array", "items": {"type": "object"}}
      }
    }
  ]
}`

const organismValuesSchema = `{
  "type": "object",
  "properties": {
    "species": {
      "type": "object",
      "additionalProperties": {"type": "object"}
    }
  }
}`

const poisSchema = `{
  "type": "object",
  "properties": {
    "systems": {"type": "object", "additionalProperties": {"type": "array"}},
    "system_addresses": {"type": "object", "additionalProperties": {"type": "array"}}
  }
}`

const farmingSchema = `{
  "type": "object",
  "properties": {
    "last_updated": {"type": ["string", "null"]},
    "farming_locations": {"type": "object", "additionalProperties": {"type": "array"}},
    "bgs_tips": {"type": "object"}
  }
}`

const catalogSchema = `{
  "type": "object",
  "properties": {
    "last_updated": {"type": ["string", "null"]},
    "items": {"type": "array", "items": {"type": "object"}}
  }
}`

var (
	planetValuesJSONSchema   = jsonschema.MustCompileString("planet_values.schema.json", planetValuesSchema)
	organismValuesJSONSchema = jsonschema.MustCompileString("exo_values.schema.json", organismValuesSchema)
	poisJSONSchema           = jsonschema.MustCompileString("external_pois.schema.json", poisSchema)
	farmingJSONSchema        = jsonschema.MustCompileString("farming_locations.schema.json", farmingSchema)
	catalogJSONSchema        = jsonschema.MustCompileString("items_catalog.schema.json", catalogSchema)
)
