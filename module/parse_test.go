package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/types"
)

func TestParseOutput_Decoding(t *testing.T) {
	c := contract.MustNew(nil, []contract.FieldSpec{
		contract.Field("a", contract.TypeString),
		contract.Field("b", contract.TypeNumber),
	})

	tests := []struct {
		name    string
		text    string
		want    types.Record
		wantErr bool
	}{
		{name: "object", text: `{"a":"x","b":1}`, want: types.Record{"a": "x", "b": 1.0}},
		{name: "surrounding whitespace", text: "\n  {\"a\":\"x\"}  \n", want: types.Record{"a": "x"}},
		{name: "bare fence", text: "```\n{\"a\":\"x\"}\n```", want: types.Record{"a": "x"}},
		{name: "nested object kept", text: `{"a":{"k":[1,2]}}`, want: types.Record{"a": map[string]any{"k": []any{1.0, 2.0}}}},
		{name: "trailing garbage", text: `{"a":"x"} and more`, wantErr: true},
		{name: "prose around object", text: `Sure! {"a":"x"}`, wantErr: true},
		{name: "null", text: `null`, wantErr: true},
		{name: "number", text: `42`, wantErr: true},
		{name: "empty", text: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(c, tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOutput_FallbackBindsRawText(t *testing.T) {
	c := contract.MustNew(nil, []contract.FieldSpec{contract.Field("answer", contract.TypeString)})

	got, err := ParseOutput(c, "  not json  ")
	require.NoError(t, err)
	// 原始文本不做裁剪
	assert.Equal(t, types.Record{"answer": "  not json  "}, got)

	// 可解码的 JSON 对象优先于回退
	got, err = ParseOutput(c, `{"other":"v"}`)
	require.NoError(t, err)
	assert.Equal(t, types.Record{"other": "v"}, got)
}

// 对任意后端文本，Run 要么返回满足输出契约的记录，要么返回分类错误。
func TestProperty_RunNeverReturnsUnvalidatedOutput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		outputs := []contract.FieldSpec{contract.Field("answer", contract.TypeString)}
		if rapid.Bool().Draw(t, "second_required") {
			outputs = append(outputs, contract.Field("score", contract.TypeNumber))
		}
		c := contract.MustNew(nil, outputs)

		text := rapid.OneOf(
			rapid.String(),
			rapid.SampledFrom([]string{
				`{"answer":"x","score":1}`,
				`{"answer":1}`,
				`{"score":2}`,
				`{}`,
				"```json\n{\"answer\":\"y\",\"score\":0.5}\n```",
				`[1,2]`,
			}),
		).Draw(t, "text")

		out, err := ParseOutput(c, text)
		if err != nil {
			return
		}
		if verr := contract.ValidateOutput(c, out); verr != nil {
			// Run 会把这种情况报告为 CONTRACT_VIOLATION，而不是返回记录
			return
		}
		for _, f := range c.RequiredOutputs() {
			if !contract.Matches(f.Type, out[f.Name]) {
				t.Fatalf("validated output has bad field %q: %#v", f.Name, out)
			}
		}
	})
}
