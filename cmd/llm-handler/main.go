// Command llm-handler sends one prompt to the configured backend and prints
// the reply.
//
//	llm-handler <agent_name> <prompt...>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/multillm/internal/cli"
	"github.com/efebarandurmaz/multillm/internal/config"
)

const usage = "Usage: llm-handler <agent_name> <prompt>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "llm-handler <agent_name> <prompt...>",
		Short:         "Send one prompt to the configured LLM backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errUsage
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := cli.Setup(ctx, cli.Options{ConfigPath: configPath, Stderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer app.Close(context.Background())

			fmt.Fprintln(cmd.OutOrStdout(), app.Handler.SendMessage(ctx, args[0], strings.Join(args[1:], " ")))
			return nil
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "Config file path")
	// Prompts may contain words that look like flags.
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

var errUsage = errors.New("missing arguments")
