package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/BaSui01/promptflow/types"
)

// Metric scores a candidate output. expected is nil for unlabeled examples.
type Metric func(ctx context.Context, input, output, expected types.Record) (float64, error)

// ExactMatch 精确匹配指标
// 对每个字段比较实际输出与期望输出，返回匹配字段所占比例。
// 字符串比较忽略大小写与首尾空白；没有期望输出时返回 1.0（默认通过）。
func ExactMatch(fields ...string) Metric {
	return func(_ context.Context, _, output, expected types.Record) (float64, error) {
		if expected == nil {
			return 1.0, nil
		}
		keys := fields
		if len(keys) == 0 {
			keys = expected.Keys()
		}
		if len(keys) == 0 {
			return 1.0, nil
		}
		matched := 0
		for _, k := range keys {
			if valuesEqual(output[k], expected[k]) {
				matched++
			}
		}
		return float64(matched) / float64(len(keys)), nil
	}
}

// FieldsPresent 字段完整度指标
// 返回输出中非空字段所占比例。
func FieldsPresent(fields ...string) Metric {
	return func(_ context.Context, _, output, _ types.Record) (float64, error) {
		if len(fields) == 0 {
			return 0, fmt.Errorf("fields_present: no fields configured")
		}
		present := 0
		for _, f := range fields {
			v, ok := output[f]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			present++
		}
		return float64(present) / float64(len(fields)), nil
	}
}

// StringSimilarity 字符相似度指标
// 使用归一化 Levenshtein 距离比较 field 的字符串值。
// 没有期望输出时返回 1.0。
func StringSimilarity(field string) Metric {
	return func(_ context.Context, _, output, expected types.Record) (float64, error) {
		if expected == nil {
			return 1.0, nil
		}
		want, ok := expected[field].(string)
		if !ok {
			return 0, fmt.Errorf("string_similarity: expected field %q is not a string", field)
		}
		got, _ := output[field].(string)
		return computeStringSimilarity(normalize(want), normalize(got)), nil
	}
}

func valuesEqual(a, b any) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return normalize(as) == normalize(bs)
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// toFloat 统一数值类型：JSON 解码得到 float64 或 json.Number，Go 字面量常为 int
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// computeStringSimilarity 使用 Levenshtein 距离的归一化版本
func computeStringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+1)
			}
		}
		prev, curr = curr, prev
	}

	distance := prev[len(rb)]
	return 1.0 - float64(distance)/float64(max(len(ra), len(rb)))
}

// 内置指标名称
const (
	MetricExactMatch       = "exact_match"
	MetricFieldsPresent    = "fields_present"
	MetricStringSimilarity = "string_similarity"
)

// MetricByName returns a built-in metric. fields narrows exact_match,
// lists the fields for fields_present and names the single compared field
// for string_similarity.
func MetricByName(name string, fields ...string) (Metric, error) {
	switch name {
	case MetricExactMatch, "":
		return ExactMatch(fields...), nil
	case MetricFieldsPresent:
		if len(fields) == 0 {
			return nil, types.NewError(types.ErrInvalidConfig, "fields_present needs at least one field")
		}
		return FieldsPresent(fields...), nil
	case MetricStringSimilarity:
		if len(fields) != 1 {
			return nil, types.NewError(types.ErrInvalidConfig, "string_similarity needs exactly one field")
		}
		return StringSimilarity(fields[0]), nil
	default:
		return nil, types.NewError(types.ErrInvalidConfig, fmt.Sprintf("unknown metric %q", name))
	}
}
