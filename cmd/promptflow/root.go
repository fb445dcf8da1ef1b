package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type ExitCode int

const (
	exitCodeSuccess ExitCode = 0
	exitCodeError   ExitCode = 1
)

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	configPath string
	envFile    string
	verbose    bool
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) ExitCode {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "promptflow",
		Short:         "Run, compile and inspect contract-bound prompt pipelines.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "path to a .env file (ignored when missing)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "set debug logging level")

	rootCmd.AddCommand(
		NewRunCmd(flags).Command(),
		NewCompileCmd(flags).Command(),
		NewInspectCmd(flags).Command(),
		NewVersionCmd().Command(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeError
	}
	return exitCodeSuccess
}

// withApp 为子命令装配 app，并在命令返回后释放资源
func withApp(flags *globalFlags, fn func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, flags, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))
		return fn(ctx, a, cmd, args)
	}
}
