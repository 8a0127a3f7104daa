package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ann82/dv-assistant-sub003/internal/app"
	"github.com/ann82/dv-assistant-sub003/internal/config"
	"github.com/ann82/dv-assistant-sub003/internal/logging"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
	"github.com/ann82/dv-assistant-sub003/internal/service/assistant"
)

type options struct {
	channel    string
	sessionKey string
	language   string
	intent     string
	jsonOutput bool
}

// engineFactory is swapped in tests.
var engineFactory = func(ctx context.Context) (*assistant.Engine, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logging.Setup(cfg.Log)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return a.Engine, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "dvchat",
		Short:         "Operator console for the DV assistant engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.channel, "channel", "voice", "reply channel: voice, sms or web")
	root.PersistentFlags().StringVar(&opts.sessionKey, "session", "console", "session key")
	root.PersistentFlags().StringVar(&opts.language, "lang", "", "caller language tag")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print raw JSON")

	classifyCmd := &cobra.Command{
		Use:   "classify [utterance]",
		Short: "Classify an utterance into an intent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := engineFactory(cmd.Context())
			if err != nil {
				return err
			}
			result := engine.ClassifyIntent(cmd.Context(), strings.Join(args, " "))
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (confidence %.2f, %s)\n", result.Intent, result.Confidence, result.Source)
			return nil
		},
	}

	rewriteCmd := &cobra.Command{
		Use:   "rewrite [utterance]",
		Short: "Show the search query built for an utterance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := engineFactory(cmd.Context())
			if err != nil {
				return err
			}
			utterance := strings.Join(args, " ")
			intent := engine.ClassifyIntent(cmd.Context(), utterance).Intent
			if opts.intent != "" {
				parsed, ok := conversation.ParseIntent(opts.intent)
				if !ok {
					return fmt.Errorf("unknown intent %q", opts.intent)
				}
				intent = parsed
			}
			fmt.Fprintln(cmd.OutOrStdout(), engine.RewriteQuery(cmd.Context(), utterance, intent, opts.sessionKey))
			return nil
		},
	}
	rewriteCmd.Flags().StringVar(&opts.intent, "intent", "", "override the classified intent")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation (/context, /reset, /quit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := engineFactory(cmd.Context())
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), engine, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	root.AddCommand(classifyCmd, rewriteCmd, chatCmd)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
