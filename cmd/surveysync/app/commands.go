package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/surveysync/cmd/surveysync/cmd/answers"
	"github.com/agentstation/surveysync/cmd/surveysync/cmd/questions"
	"github.com/agentstation/surveysync/cmd/surveysync/cmd/reconcile"
	"github.com/agentstation/surveysync/cmd/surveysync/cmd/schema"
	"github.com/agentstation/surveysync/cmd/surveysync/cmd/upload"
	"github.com/agentstation/surveysync/cmd/surveysync/cmd/version"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(upload.NewCommand(a))
	rootCmd.AddCommand(answers.NewCommand(a))
	rootCmd.AddCommand(reconcile.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(schema.NewCommand(a))
	rootCmd.AddCommand(questions.NewCommand(a))

	rootCmd.AddCommand(version.NewCommand(a))
}
