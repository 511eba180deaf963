package prescription

import (
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
)

// Schema returns the JSON Schema of the /chat response envelope. It is
// reflected from the document types once and shared afterwards.
func Schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			DoNotReference: true,
		}
		schema = r.Reflect(&Envelope{})
		schema.Title = "Prescription response"
		schema.Description = "Normalized prescription document. Unknown values are null, keys are never omitted."
	})
	return schema
}
