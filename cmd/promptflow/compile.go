package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/module"
	"github.com/BaSui01/promptflow/optimizer"
	"github.com/BaSui01/promptflow/pipeline"
)

type CompileCmd struct {
	flags *globalFlags
}

func NewCompileCmd(flags *globalFlags) *CompileCmd {
	return &CompileCmd{flags: flags}
}

func (c *CompileCmd) Command() *cobra.Command {
	var definitionPath string
	var moduleName string
	var trainsetPath string
	var devsetPath string
	var key string
	var outPath string
	var metricName string
	var fields []string
	var format string

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Bootstrap demonstrations for a module and save the compiled artifact",
		Example: `  promptflow compile --definition pipeline.yaml --module classify --trainset train.jsonl --key classify/v1
  promptflow compile -d pipeline.yaml -m classify --trainset train.jsonl --devset dev.jsonl --out classify.yaml`,
		RunE: withApp(c.flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if key == "" && outPath == "" {
				return fmt.Errorf("at least one of --key or --out is required")
			}
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unsupported output format %q", format)
			}

			def, err := pipeline.LoadDefinitionFile(definitionPath)
			if err != nil {
				return fmt.Errorf("failed to load definition: %w", err)
			}
			md, ok := def.Module(moduleName)
			if !ok {
				return fmt.Errorf("module %q is not defined inline in %s", moduleName, definitionPath)
			}
			base, err := md.BuildModule(a.runtime, module.WithLogger(a.logger))
			if err != nil {
				return err
			}

			trainset, err := readTrainset(trainsetPath)
			if err != nil {
				return err
			}
			metric, err := optimizer.MetricByName(metricName, fields...)
			if err != nil {
				return err
			}

			opts := []optimizer.Option{
				optimizer.WithConfig(a.cfg.Bootstrap.OptimizerConfig()),
				optimizer.WithLogger(a.logger),
			}
			if a.collector != nil {
				opts = append(opts, optimizer.WithRecorder(a.collector))
			}
			bootstrapper, err := optimizer.NewBootstrapper(metric, opts...)
			if err != nil {
				return err
			}

			compiled, err := bootstrapper.Compile(ctx, base, trainset)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}
			if err := printReport(cmd.OutOrStdout(), format, compiled.Report); err != nil {
				return err
			}

			if devsetPath != "" {
				if err := evaluateBoth(ctx, cmd, devsetPath, base, compiled.Module, metric, format); err != nil {
					return err
				}
			}

			artifact := compiled.Artifact()
			if key != "" {
				s, err := a.Store()
				if err != nil {
					return err
				}
				if err := optimizer.SaveArtifact(ctx, s, key, artifact); err != nil {
					return err
				}
				a.logger.Info("artifact saved", zap.String("key", key), zap.String("store", a.cfg.Store.Type))
			}
			if outPath != "" {
				if err := artifact.SaveFile(outPath); err != nil {
					return err
				}
				a.logger.Info("artifact written", zap.String("path", outPath))
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&definitionPath, "definition", "d", "", "pipeline definition file holding the module")
	cmd.Flags().StringVarP(&moduleName, "module", "m", "", "name of the inline module to compile")
	cmd.Flags().StringVar(&trainsetPath, "trainset", "", "JSONL training set ({\"input\":{...},\"output\":{...}} per line)")
	cmd.Flags().StringVar(&devsetPath, "devset", "", "optional JSONL dev set scored before and after compiling")
	cmd.Flags().StringVarP(&key, "key", "k", "", "artifact key in the configured store")
	cmd.Flags().StringVar(&outPath, "out", "", "also write the artifact to a .json or .yaml file")
	cmd.Flags().StringVar(&metricName, "metric", optimizer.MetricExactMatch, "metric (exact_match, fields_present, string_similarity)")
	cmd.Flags().StringSliceVar(&fields, "field", nil, "fields the metric looks at (repeatable)")
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format (table, json)")
	_ = cmd.MarkFlagRequired("definition")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("trainset")

	return cmd
}

func evaluateBoth(ctx context.Context, cmd *cobra.Command, devsetPath string, base, compiled *module.Module, metric optimizer.Metric, format string) error {
	devset, err := readTrainset(devsetPath)
	if err != nil {
		return err
	}
	before, err := optimizer.Evaluate(ctx, base, devset, metric)
	if err != nil {
		return err
	}
	after, err := optimizer.Evaluate(ctx, compiled, devset, metric)
	if err != nil {
		return err
	}
	if format == formatJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]*optimizer.Evaluation{"base": before, "compiled": after})
	}
	w := cmd.OutOrStdout()
	fmt.Fprint(w, "Base ")
	printEvaluation(w, before)
	fmt.Fprint(w, "Compiled ")
	printEvaluation(w, after)
	return nil
}
