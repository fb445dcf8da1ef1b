package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/BaSui01/promptflow/optimizer"
	"github.com/BaSui01/promptflow/pipeline"
	"github.com/BaSui01/promptflow/types"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetRowLine(true)
	table.SetHeader(header)
	return table
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func compactJSON(r types.Record) string {
	if r == nil {
		return "-"
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

func stepStatus(s pipeline.StepResult) string {
	if s.Failed() {
		return "failed"
	}
	return "ok"
}

// printResult 打印单次运行的步骤表与最终输出
func printResult(w io.Writer, format string, r *pipeline.Result) error {
	if format == formatJSON {
		return writeJSON(w, r)
	}

	fmt.Fprintf(w, "Run %s (pipeline %s)\n", r.RunID, r.Pipeline)
	table := newTable(w, []string{"#", "Module", "Status", "Attempts", "Duration", "Error"})
	for _, s := range r.Steps {
		table.Append([]string{
			strconv.Itoa(s.Index),
			s.Module,
			stepStatus(s),
			strconv.Itoa(s.Attempts),
			s.Duration.String(),
			s.ErrorMessage,
		})
	}
	table.Render()

	if r.Aborted() {
		fmt.Fprintf(w, "Aborted: %s\n", r.ErrorMessage)
		return nil
	}
	fmt.Fprintf(w, "Output: %s\n", compactJSON(r.FinalOutput))
	return nil
}

// printBatch 打印批量运行汇总，每次运行一行
func printBatch(w io.Writer, format string, results []*pipeline.Result) error {
	if format == formatJSON {
		return writeJSON(w, results)
	}

	table := newTable(w, []string{"#", "Run", "Success", "Steps", "Attempts", "Duration", "Output"})
	for i, r := range results {
		output := compactJSON(r.FinalOutput)
		if r.Aborted() {
			output = r.ErrorMessage
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.RunID,
			strconv.FormatBool(r.Success),
			strconv.Itoa(len(r.Steps)),
			strconv.Itoa(r.TotalAttempts()),
			r.Duration.String(),
			output,
		})
	}
	table.Render()
	return nil
}

// printReport 打印自举报告：每个参与评估的示例一行
func printReport(w io.Writer, format string, report *optimizer.Report) error {
	if format == formatJSON {
		return writeJSON(w, report)
	}

	fmt.Fprintf(w, "Module %s: %d labeled, %d bootstrapped, %d skipped (%s)\n",
		report.Module, len(report.Labeled), len(report.Bootstrapped), report.Skipped(), report.Duration)
	table := newTable(w, []string{"Example", "Score", "Accepted", "Stage", "Error"})
	for _, o := range report.Outcomes {
		score := strconv.FormatFloat(o.Score, 'f', 3, 64)
		if o.Skipped() {
			score = "-"
		}
		table.Append([]string{
			strconv.Itoa(o.Index),
			score,
			strconv.FormatBool(o.Accepted),
			string(o.Stage),
			o.ErrorMessage,
		})
	}
	table.Render()
	return nil
}

// printEvaluation 打印开发集评估结果
func printEvaluation(w io.Writer, ev *optimizer.Evaluation) {
	fmt.Fprintf(w, "Dev-set average: %.3f over %d examples (%d failed)\n", ev.Average, len(ev.Outcomes), ev.Failed())
}

// printArtifact 打印制品摘要与示例
func printArtifact(w io.Writer, format, key string, a *optimizer.Artifact) error {
	if format == formatJSON {
		return writeJSON(w, a)
	}

	fmt.Fprintf(w, "Artifact %s: module %s, strategy %s, version %d\n", key, a.Program.Name, a.Program.Strategy, a.Version)
	fmt.Fprintf(w, "Config: max_labeled_demos=%d max_bootstrapped_demos=%d min_score=%g\n",
		a.Config.MaxLabeledDemos, a.Config.MaxBootstrappedDemos, a.Config.MinScore)

	demos := a.Demonstrations()
	if len(demos) == 0 {
		fmt.Fprintln(w, "No demonstrations.")
		return nil
	}
	table := newTable(w, []string{"#", "Input", "Output"})
	for i, d := range demos {
		table.Append([]string{strconv.Itoa(i + 1), compactJSON(d.Input), compactJSON(d.Output)})
	}
	table.Render()
	return nil
}

// printKeys 打印存储中的制品键
func printKeys(w io.Writer, keys []string) {
	table := newTable(w, []string{"Key"})
	for _, k := range keys {
		table.Append([]string{k})
	}
	table.Render()
}
