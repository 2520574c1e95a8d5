package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_AllKinds(t *testing.T) {
	raw := "<generated_sql> SELECT 1 </generated_sql>\n" +
		"<response format=\"json\">{\"chartType\":\"pie\"}</response>\n" +
		"```sql\nSELECT 2\n```"

	c := Extract(raw)

	require.NotNil(t, c.TaggedSQL)
	assert.Equal(t, KindTaggedSQL, c.TaggedSQL.Kind)
	assert.Equal(t, " SELECT 1 ", c.TaggedSQL.Text)

	require.NotNil(t, c.Response)
	assert.Equal(t, FormatJSON, c.Response.Format)
	assert.Equal(t, `{"chartType":"pie"}`, c.Response.Text)

	require.NotNil(t, c.FencedSQL)
	assert.Equal(t, "SELECT 2", c.FencedSQL.Text)

	assert.Equal(t, "SELECT 1 \n{\"chartType\":\"pie\"}\n```sql\nSELECT 2\n```", c.Residual)
}

func TestExtract_FirstMatchOnly(t *testing.T) {
	c := Extract(`<response format="text">a</response><response format="json">{}</response>`)

	require.NotNil(t, c.Response)
	assert.Equal(t, FormatText, c.Response.Format)
	assert.Equal(t, "a", c.Response.Text)
}

func TestExtract_Missing(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose", "no tags here"},
		{"unterminated sql tag", "<generated_sql>SELECT 1"},
		{"unterminated response", `<response format="text">hi`},
		{"empty format", `<response format="">hi</response>`},
		{"unterminated fence", "```sql\nSELECT 1"},
		{"fence with other language", "```python\nprint(1)\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Extract(tt.raw)
			assert.Nil(t, c.TaggedSQL)
			assert.Nil(t, c.Response)
			assert.Nil(t, c.FencedSQL)
		})
	}
}

func TestExtract_ResidualKeepsUnknownTags(t *testing.T) {
	c := Extract("<note>keep me</note> <response format=\"text\">x</response>")
	assert.Equal(t, "<note>keep me</note> x", c.Residual)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "generated_sql", KindTaggedSQL.String())
	assert.Equal(t, "response", KindResponse.String())
	assert.Equal(t, "fenced_sql", KindFencedSQL.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
