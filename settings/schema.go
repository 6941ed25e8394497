package settings

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaURI is the JSON Schema dialect of [Schema].
const SchemaURI = "https://json-schema.org/draft/2020-12/schema"

// Schema returns the JSON Schema describing a settings file: a mapping of
// string keys to string values, with [KeyEnabled] and [KeyOverride]
// documented.
func Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Schema:      SchemaURI,
		Title:       "logchan settings",
		Description: "Persisted log channel state.",
		Type:        "object",
		Properties: map[string]*jsonschema.Schema{
			KeyEnabled: {
				Type: "string",
				Description: "Comma-delimited channel names or full names that were " +
					"enabled on the previous run.",
			},
			KeyOverride: {
				Type: "string",
				Description: "One-shot comma-delimited override applied on the next run. " +
					"Tokens are 'name', '+name', '-name' or '=name'; any '=' token " +
					"replaces the enabled list.",
			},
		},
		AdditionalProperties: &jsonschema.Schema{Type: "string"},
	}
}

var resolvedSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return Schema().Resolve(nil)
})

// Validate checks a decoded settings document against [Schema].
func Validate(doc any) error {
	rs, err := resolvedSchema()
	if err != nil {
		return fmt.Errorf("resolve settings schema: %w", err)
	}

	err = rs.Validate(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	return nil
}
