package settings_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/logchan/settings"
)

func TestSchema(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(settings.Schema())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, settings.SchemaURI, doc["$schema"])
	assert.Equal(t, "object", doc["type"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, settings.KeyEnabled)
	assert.Contains(t, props, settings.KeyOverride)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		doc     any
		wantErr bool
	}{
		"valid": {
			doc: map[string]any{"enabled": "net", "override": ""},
		},
		"empty object": {
			doc: map[string]any{},
		},
		"number": {
			doc:     map[string]any{"enabled": 1},
			wantErr: true,
		},
		"extra non-string": {
			doc:     map[string]any{"other": true},
			wantErr: true,
		},
		"array": {
			doc:     []any{"net"},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := settings.Validate(tc.doc)
			if tc.wantErr {
				require.ErrorIs(t, err, settings.ErrInvalidSettings)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
