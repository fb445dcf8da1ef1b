package optimizer

import "github.com/BaSui01/promptflow/types"

// Example is one training example. A nil Output marks it unlabeled.
type Example struct {
	Input  types.Record `json:"input" yaml:"input"`
	Output types.Record `json:"output,omitempty" yaml:"output,omitempty"`
}

// Labeled reports whether the example carries an expected output.
func (e Example) Labeled() bool { return e.Output != nil }

// Demonstration is an input/output pair embedded into an augmented prompt.
type Demonstration struct {
	Input  types.Record `json:"input" yaml:"input"`
	Output types.Record `json:"output" yaml:"output"`
}

// indexedExample keeps the trainset position across the split.
type indexedExample struct {
	index int
	Example
}

// split separates labeled and unlabeled examples, keeping trainset order.
func split(trainset []Example) (labeled, unlabeled []indexedExample) {
	for i, ex := range trainset {
		ie := indexedExample{index: i, Example: ex}
		if ex.Labeled() {
			labeled = append(labeled, ie)
		} else {
			unlabeled = append(unlabeled, ie)
		}
	}
	return labeled, unlabeled
}
