// =============================================================================
// 📦 测试数据工厂 - 契约与输入记录
// =============================================================================
package fixtures

import (
	"github.com/BaSui01/promptflow/contract"
	"github.com/BaSui01/promptflow/types"
)

// TextContract 输入输出都是单个必填 string 字段 text，可首尾相接
func TextContract() contract.Contract {
	return contract.MustNew(
		[]contract.FieldSpec{contract.Field("text", contract.TypeString)},
		[]contract.FieldSpec{contract.Field("text", contract.TypeString)},
	)
}

// XYContract x(string) → y(string)，单个必填 string 输出，适用回退解析
func XYContract() contract.Contract {
	return contract.MustNew(
		[]contract.FieldSpec{contract.Field("x", contract.TypeString)},
		[]contract.FieldSpec{contract.Field("y", contract.TypeString)},
	)
}

// ClassifyContract 文本分类：两个必填输出，不适用回退解析
func ClassifyContract() contract.Contract {
	return contract.MustNew(
		[]contract.FieldSpec{
			contract.Field("text", contract.TypeString),
			contract.Field("context", contract.TypeObject).AsOptional(),
		},
		[]contract.FieldSpec{
			contract.Field("label", contract.TypeString),
			contract.Field("confidence", contract.TypeNumber),
			contract.Field("reason", contract.TypeString).AsOptional().WithDescription("short justification"),
		},
	)
}

// ClassifyInputs 分类样例输入
func ClassifyInputs() []types.Record {
	return []types.Record{
		{"text": "I love this product"},
		{"text": "Terrible support, never again"},
		{"text": "It arrived on Tuesday", "context": map[string]any{"channel": "email"}},
	}
}
