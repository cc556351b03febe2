package docs

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocRenders(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]struct {
			Responses map[string]any `json:"responses"`
		} `json:"paths"`
		Definitions map[string]any `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	contact, ok := doc.Paths["/api/v1/contact"]["post"]
	require.True(t, ok)
	assert.Contains(t, contact.Responses, "201")
	assert.NotContains(t, contact.Responses, "200")

	track, ok := doc.Paths["/api/v1/track"]["post"]
	require.True(t, ok)
	assert.Contains(t, track.Responses, "201")

	assert.Contains(t, doc.Definitions, "dto.SubmitContactResponse")
	assert.Contains(t, doc.Definitions, "dto.APIResponse")
}
