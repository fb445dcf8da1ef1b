package module

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/llm"
	"github.com/BaSui01/promptflow/testutil/mocks"
	"github.com/BaSui01/promptflow/types"
)

type qaIn struct {
	Question string `json:"question"`
}

type qaOut struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

func TestTyped_Run(t *testing.T) {
	c := contract.MustNew(
		[]contract.FieldSpec{contract.Field("question", contract.TypeString)},
		[]contract.FieldSpec{contract.Field("answer", contract.TypeString), contract.Field("confidence", contract.TypeNumber)},
	)
	backend := mocks.NewMockBackend().WithResponse(`{"answer":"4","confidence":0.75}`)
	m := MustNew(llm.NewRuntime(llm.WithBackend(backend)), "qa", c, MustTemplatePrompt("Q: {{.question}}"))
	typed := NewTyped[qaIn, qaOut](m)

	out, err := typed.Run(context.Background(), qaIn{Question: "2+2?"})
	require.NoError(t, err)
	assert.Equal(t, qaOut{Answer: "4", Confidence: 0.75}, out)
	assert.Equal(t, "Q: 2+2?", backend.LastPrompt())
	assert.Same(t, m, typed.Module())
}

func TestTyped_PropagatesModuleErrors(t *testing.T) {
	c := contract.MustNew(
		[]contract.FieldSpec{contract.Field("question", contract.TypeString)},
		[]contract.FieldSpec{contract.Field("answer", contract.TypeString), contract.Field("confidence", contract.TypeNumber)},
	)
	m := MustNew(llm.NewRuntime(llm.WithBackend(mocks.NewMockBackend().WithResponse("nope"))), "qa", c, FieldPrompt("question"))

	_, err := NewTyped[qaIn, qaOut](m).Run(context.Background(), qaIn{Question: "?"})
	assert.Equal(t, types.ErrParse, types.GetErrorCode(err))
}

func TestToRecord(t *testing.T) {
	r, err := ToRecord(qaIn{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, types.Record{"question": "q"}, r)

	_, err = ToRecord([]int{1})
	assert.Error(t, err)
	_, err = ToRecord(nil)
	assert.Error(t, err)
}
