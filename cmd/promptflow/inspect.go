package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BaSui01/promptflow/optimizer"
)

type InspectCmd struct {
	flags *globalFlags
}

func NewInspectCmd(flags *globalFlags) *InspectCmd {
	return &InspectCmd{flags: flags}
}

func (c *InspectCmd) Command() *cobra.Command {
	var key string
	var filePath string
	var list bool
	var prefix string
	var format string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show a compiled artifact's config and demonstrations",
		Example: `  promptflow inspect --key classify/v1
  promptflow inspect --file classify.yaml
  promptflow inspect --list --prefix classify/`,
		RunE: withApp(c.flags, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("unsupported output format %q", format)
			}

			if list {
				s, err := a.Store()
				if err != nil {
					return err
				}
				keys, err := s.List(ctx, prefix)
				if err != nil {
					return err
				}
				if format == formatJSON {
					return writeJSON(cmd.OutOrStdout(), keys)
				}
				printKeys(cmd.OutOrStdout(), keys)
				return nil
			}

			var artifact *optimizer.Artifact
			var err error
			switch {
			case key != "" && filePath != "":
				return fmt.Errorf("--key and --file are mutually exclusive")
			case key != "":
				s, serr := a.Store()
				if serr != nil {
					return serr
				}
				artifact, err = optimizer.LoadArtifact(ctx, s, key)
			case filePath != "":
				artifact, err = optimizer.LoadFile(filePath)
				key = filePath
			default:
				return fmt.Errorf("one of --key, --file or --list is required")
			}
			if err != nil {
				return err
			}
			return printArtifact(cmd.OutOrStdout(), format, key, artifact)
		}),
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "artifact key in the configured store")
	cmd.Flags().StringVar(&filePath, "file", "", "artifact file (.json or .yaml)")
	cmd.Flags().BoolVar(&list, "list", false, "list artifact keys in the store")
	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix for --list")
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "output format (table, json)")

	return cmd
}
