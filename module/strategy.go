package module

import "fmt"

// Strategy 执行策略标签
type Strategy string

const (
	// Predict 直接预测：一次生成调用
	Predict Strategy = "Predict"

	// 保留的扩展点，尚未实现
	ChainOfThought       Strategy = "ChainOfThought"
	ReAct                Strategy = "ReAct"
	ProgramOfThought     Strategy = "ProgramOfThought"
	MultiChainComparison Strategy = "MultiChainComparison"
)

// Implemented reports whether Run can execute the strategy.
func (s Strategy) Implemented() bool {
	return s == Predict
}

// Known reports whether s is a recognised tag, implemented or reserved.
func (s Strategy) Known() bool {
	switch s {
	case Predict, ChainOfThought, ReAct, ProgramOfThought, MultiChainComparison:
		return true
	}
	return false
}

// ParseStrategy parses a strategy tag. The empty string yields Predict.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return Predict, nil
	}
	st := Strategy(s)
	if !st.Known() {
		return "", fmt.Errorf("unknown strategy %q", s)
	}
	return st, nil
}
