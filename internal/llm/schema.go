package llm

type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema is the subset of JSON Schema every provider can express.
type Schema struct {
	Type        SchemaType
	Description string
	// Properties are emitted in this order; every property is required.
	Properties []Property
	Items      *Schema
	Enum       []string
	MinItems   *int64
	MaxItems   *int64
	Minimum    *float64
	Maximum    *float64
}

type Property struct {
	Name   string
	Schema *Schema
}

func Object(props ...Property) *Schema {
	return &Schema{Type: TypeObject, Properties: props}
}

func Field(name string, s *Schema) Property {
	return Property{Name: name, Schema: s}
}

func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

func Boolean(description string) *Schema {
	return &Schema{Type: TypeBoolean, Description: description}
}

func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

func Array(description string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: description, Items: items}
}

// WithEnum restricts a string schema to the given values.
func (s *Schema) WithEnum(values ...string) *Schema {
	s.Enum = append([]string(nil), values...)
	return s
}

func (s *Schema) WithItemRange(lo, hi int64) *Schema {
	s.MinItems = &lo
	s.MaxItems = &hi
	return s
}

func (s *Schema) WithRange(lo, hi float64) *Schema {
	s.Minimum = &lo
	s.Maximum = &hi
	return s
}

// JSONSchema renders the schema as a JSON Schema document. Objects are closed
// (additionalProperties false) so it satisfies OpenAI strict mode.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Type == TypeObject {
		props := make(map[string]any, len(s.Properties))
		required := make([]string, 0, len(s.Properties))
		for _, p := range s.Properties {
			props[p.Name] = p.Schema.JSONSchema()
			required = append(required, p.Name)
		}
		out["properties"] = props
		out["required"] = required
		out["additionalProperties"] = false
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if s.MinItems != nil {
		out["minItems"] = *s.MinItems
	}
	if s.MaxItems != nil {
		out["maxItems"] = *s.MaxItems
	}
	if s.Minimum != nil {
		out["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		out["maximum"] = *s.Maximum
	}
	return out
}
