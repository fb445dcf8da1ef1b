package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/internal/pool"
	"github.com/BaSui01/promptflow/pipeline"
	"github.com/BaSui01/promptflow/types"
)

type RunCmd struct {
	flags *globalFlags
}

func NewRunCmd(flags *globalFlags) *RunCmd {
	return &RunCmd{flags: flags}
}

func (c *RunCmd) Command() *cobra.Command {
	var definitionPath string
	var input string
	var inputsPath string
	var format string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a pipeline definition against JSON input",
		Example: `  promptflow run --definition pipeline.yaml --input '{"text":"hi"}'
  promptflow run --definition pipeline.yaml --inputs batch.jsonl`,
		RunE: withApp(c.flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if (input == "") == (inputsPath == "") {
				return fmt.Errorf("exactly one of --input or --inputs is required")
			}
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unsupported output format %q", format)
			}

			def, err := pipeline.LoadDefinitionFile(definitionPath)
			if err != nil {
				return fmt.Errorf("failed to load definition: %w", err)
			}

			history := pipeline.NewHistoryStore(a.cfg.Pipeline.HistorySize)
			opts := []pipeline.Option{
				pipeline.WithOptions(def.Options.Apply(a.cfg.Pipeline.Options())),
				pipeline.WithLogger(a.logger),
				pipeline.WithHistory(history),
			}
			if a.collector != nil {
				opts = append(opts, pipeline.WithRecorder(a.collector))
			}
			p, err := pipeline.Build(ctx, a.runtime, def, a.Resolver(), opts...)
			if err != nil {
				return err
			}

			if input != "" {
				var record types.Record
				if err := json.Unmarshal([]byte(input), &record); err != nil {
					return fmt.Errorf("failed to parse --input: %w", err)
				}
				result, runErr := p.Run(ctx, record)
				if err := printResult(cmd.OutOrStdout(), format, result); err != nil {
					return err
				}
				return runErr
			}

			records, err := readRecords(inputsPath)
			if err != nil {
				return err
			}
			type outcome struct {
				result *pipeline.Result
				err    error
			}
			// 每次运行内部仍严格顺序执行；并发只发生在相互独立的输入之间
			outcomes, err := pool.Map(ctx, concurrency, records, func(ctx context.Context, _ int, record types.Record) outcome {
				result, runErr := p.Run(ctx, record)
				return outcome{result: result, err: runErr}
			})
			if err != nil {
				return err
			}
			results := make([]*pipeline.Result, len(outcomes))
			failed := 0
			for i, o := range outcomes {
				results[i] = o.result
				if !o.result.Success {
					failed++
				}
				if o.err != nil {
					a.logger.Warn("batch run failed", zap.Int("record", i+1), zap.Error(o.err))
				}
			}
			if err := printBatch(cmd.OutOrStdout(), format, results); err != nil {
				return err
			}
			a.logger.Info("batch finished",
				zap.Int("runs", len(results)),
				zap.Int("failed", failed),
				zap.Int("history", history.Len()))
			if failed > 0 {
				return fmt.Errorf("%d of %d runs failed", failed, len(results))
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&definitionPath, "definition", "d", "", "pipeline definition file (YAML or JSON)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "input record as a JSON object")
	cmd.Flags().StringVar(&inputsPath, "inputs", "", "JSONL file with one input record per line")
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format (table, json)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "number of --inputs records run in parallel")
	_ = cmd.MarkFlagRequired("definition")

	return cmd
}
