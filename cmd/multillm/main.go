package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/multillm/internal/agentrunner"
	"github.com/efebarandurmaz/multillm/internal/cli"
	"github.com/efebarandurmaz/multillm/internal/config"
	"github.com/efebarandurmaz/multillm/internal/llm"
	"github.com/efebarandurmaz/multillm/internal/llmutil"
	"github.com/efebarandurmaz/multillm/internal/server"
)

func main() {
	ctx, stop := rootContext()
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:           "multillm",
		Short:         "One call, many LLM backends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	setup := func(cmd *cobra.Command) (*cli.App, error) {
		return cli.Setup(cmd.Context(), cli.Options{
			ConfigPath: configPath,
			LogLevel:   logLevel,
			Stderr:     cmd.ErrOrStderr(),
		})
	}

	sendCmd := &cobra.Command{
		Use:   "send <agent_name> <prompt...>",
		Short: "Send one prompt and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			fmt.Fprintln(cmd.OutOrStdout(), app.Handler.SendMessage(cmd.Context(), args[0], strings.Join(args[1:], " ")))
			return nil
		},
	}
	sendCmd.Flags().SetInterspersed(false)

	var (
		outputRoot  string
		metricsAddr string
		agentName   string
	)
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Scaffold projects from markdown context files read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			ctx := cmd.Context()
			if metricsAddr != "" {
				srv := server.New(app.Metrics.Handler(), app.Logger)
				srv.RegisterCheck("backend", server.BackendChecker(app.Handler.ActiveModel(), app.Handler.APIKey(), llmutil.NewDefaultFactory()))

				var cancel context.CancelFunc
				ctx, cancel = context.WithCancel(ctx)
				done := make(chan struct{})
				go func() {
					defer close(done)
					if err := srv.Serve(ctx, metricsAddr); err != nil {
						app.Logger.Error("metrics server", "error", err)
					}
				}()
				defer func() {
					cancel()
					<-done
				}()
			}

			runner := &agentrunner.Runner{
				Sender:     app.Handler,
				AgentName:  agentName,
				OutputRoot: outputRoot,
				Out:        cmd.OutOrStdout(),
				Logger:     app.Logger,
			}
			return runner.Run(ctx, cmd.InOrStdin())
		},
	}
	agentCmd.Flags().StringVar(&outputRoot, "output", ".", "Directory project folders are created in")
	agentCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9090)")
	agentCmd.Flags().StringVar(&agentName, "agent-name", agentrunner.DefaultAgentName, "Agent name attached to each request")

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List LLM backends and whether they are compiled in",
		Run: func(cmd *cobra.Command, args []string) {
			printProviders(cmd, llmutil.NewDefaultFactory())
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(configPath); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}
			if err := config.Template().Save(configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s. Set api_key there or export %s.\n", configPath, config.EnvAPIKey)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	rootCmd.AddCommand(sendCmd, agentCmd, providersCmd, initCmd)
	return rootCmd
}

func printProviders(cmd *cobra.Command, factory *llm.ProviderFactory) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "LLM backends (active_model):")
	fmt.Fprintln(out)
	for _, b := range llm.Backends {
		status := "available"
		if !factory.Registered(b) {
			lib := llm.OptionalLibraries[b]
			status = fmt.Sprintf("not installed (built with -tags %s)", lib.ExcludeTag)
		}
		fmt.Fprintf(out, "  %-8s %-50s %s\n", b, llm.DefaultEndpoints[b], status)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configure in config.yaml or via environment:")
	fmt.Fprintf(out, "  %s=sk-...\n", config.EnvAPIKey)
	fmt.Fprintf(out, "  %s_ACTIVE_MODEL=qwen\n", config.EnvPrefix)
}

// rootContext cancels on SIGINT/SIGTERM.
func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
