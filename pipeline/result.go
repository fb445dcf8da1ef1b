package pipeline

import (
	"time"

	"github.com/BaSui01/promptflow/types"
)

// StepResult is the record of one executed step. It is built once and not
// modified afterwards.
type StepResult struct {
	Index    int           `json:"index"`
	Module   string        `json:"module"`
	Input    types.Record  `json:"input"`
	Output   types.Record  `json:"output,omitempty"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`

	// Error 为最终失败原因；ErrorMessage 是其文本形式，便于序列化
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// Failed reports whether the step exhausted its attempts.
func (s StepResult) Failed() bool { return s.Error != nil }

// Result is the record of one pipeline run.
type Result struct {
	RunID       string        `json:"run_id"`
	Pipeline    string        `json:"pipeline"`
	FinalOutput types.Record  `json:"final_output,omitempty"`
	Steps       []StepResult  `json:"steps"`
	Duration    time.Duration `json:"duration"`
	Success     bool          `json:"success"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`

	// Error 仅在 StopOnError 模式下终止运行时设置
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// Aborted reports whether the run stopped before executing every step.
func (r *Result) Aborted() bool { return r.Error != nil }

// FailedSteps returns the records of failed steps.
func (r *Result) FailedSteps() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Failed() {
			out = append(out, s)
		}
	}
	return out
}

// TotalAttempts sums attempts across steps.
func (r *Result) TotalAttempts() int {
	n := 0
	for _, s := range r.Steps {
		n += s.Attempts
	}
	return n
}
