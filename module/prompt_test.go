package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptflow/types"
)

func TestTemplatePrompt(t *testing.T) {
	p, err := NewTemplatePrompt("Q: {{.question}}\nCtx: {{.context}}\nRaw: {{json .}}")
	require.NoError(t, err)
	assert.Equal(t, "Q: {{.question}}\nCtx: {{.context}}\nRaw: {{json .}}", p.Source())

	got, err := p.Build(types.Record{"question": "why?"})
	require.NoError(t, err)
	assert.Equal(t, "Q: why?\nCtx: \nRaw: {\"context\":\"\",\"question\":\"why?\"}", got)

	got, err = p.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, "Q: \nCtx: \nRaw: {\"context\":\"\",\"question\":\"\"}", got)
}

func TestTemplatePrompt_KeepsLiteralNoValueText(t *testing.T) {
	p := MustTemplatePrompt("Q: {{.text}}")
	input := types.Record{"text": "what does <no value> mean?"}

	got, err := p.Build(input)
	require.NoError(t, err)
	assert.Equal(t, "Q: what does <no value> mean?", got)
	assert.Equal(t, types.Record{"text": "what does <no value> mean?"}, input)
}

func TestTemplatePrompt_MissingFields(t *testing.T) {
	p := MustTemplatePrompt("{{if .hint}}Hint: {{.hint}}\n{{end}}Q: {{.q}}|{{.none}}|{{range .items}}[{{.}}]{{end}}")

	got, err := p.Build(types.Record{"q": "x", "none": nil})
	require.NoError(t, err)
	assert.Equal(t, "Q: x||", got)

	got, err = p.Build(types.Record{"q": "x", "hint": "h", "items": []any{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "Hint: h\nQ: x||[a][b]", got)
}

func TestTemplatePrompt_ParseError(t *testing.T) {
	_, err := NewTemplatePrompt("{{.broken")
	assert.Error(t, err)
	assert.Panics(t, func() { MustTemplatePrompt("{{end}}") })
}

func TestFieldPrompt(t *testing.T) {
	p := FieldPrompt("n")
	got, err := p.Build(types.Record{"n": 3.5})
	require.NoError(t, err)
	assert.Equal(t, "3.5", got)

	got, err = p.Build(types.Record{})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
