package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"fieldmind/plan"
)

// planResponseSchema is the contract every LLM response must satisfy before
// the plan validator ever sees it. Action names and condition signals are
// checked semantically downstream; this layer enforces shape.
const planResponseSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["plans"],
  "properties": {
    "plans": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["unit_ids"],
        "properties": {
          "unit_ids": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string"}
          },
          "steps": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["action"],
              "properties": {
                "action": {"type": "string"},
                "params": {"type": "object"},
                "speech": {"type": "string"},
                "duration": {"type": "number", "minimum": 0}
              }
            }
          },
          "triggers": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["condition", "action"],
              "properties": {
                "condition": {"$ref": "#/$defs/condition"},
                "prerequisites": {
                  "type": "array",
                  "items": {"$ref": "#/$defs/condition"}
                },
                "action": {"type": "string"},
                "params": {"type": "object"},
                "priority": {"type": "integer"},
                "speech": {"type": "string"},
                "cooldown": {"type": "number", "minimum": 0}
              }
            }
          },
          "priority_list": {
            "type": "array",
            "items": {"type": "string", "enum": ["attack", "defend", "retreat", "follow"]}
          }
        }
      }
    },
    "message": {"type": "string"},
    "summary": {"type": "string"}
  },
  "$defs": {
    "condition": {
      "type": "object",
      "properties": {
        "kind": {"type": "string"},
        "operator": {"type": "string"},
        "threshold": {"type": "number"},
        "secondary_threshold": {"type": "number"},
        "list_values": {"type": "array", "items": {"type": "string"}},
        "logical_op": {"type": "string", "enum": ["and", "or", "not"]},
        "children": {"type": "array", "items": {"$ref": "#/$defs/condition"}}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("plan_response.json", planResponseSchema)

// ValidateResponse checks raw LLM output against the plan response schema.
func ValidateResponse(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("response violates plan schema: %w", err)
	}
	return nil
}

// DecodePlan validates and unmarshals a raw response into a CommandPlan.
func DecodePlan(raw []byte) (plan.CommandPlan, error) {
	var p plan.CommandPlan
	if err := ValidateResponse(raw); err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("decode plan: %w", err)
	}
	return p, nil
}
