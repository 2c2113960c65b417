// Package schema provides the schema command implementation.
package schema

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/surveysync/internal/appcontext"
)

// NewCommand creates the schema command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schema",
		GroupID: "management",
		Short:   "Manage the surveysync database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewInitCommand(app))
	return cmd
}

// NewInitCommand creates the schema init subcommand.
func NewInitCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the respondent log and answer tables",
		Long: `Init creates the respondent log and answer tables if they do not
exist yet. Running it again is harmless. Supported on PostgreSQL and SQLite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := app.Database(ctx)
			if err != nil {
				return err
			}
			tables := app.Tables()
			if err := db.CreateSchema(ctx, tables.Log, tables.Answer); err != nil {
				return err
			}

			app.Logger().Info().
				Str("log_table", tables.Log).
				Str("answer_table", tables.Answer).
				Msg("Schema ready")
			cmd.Printf("Created tables %s and %s\n", tables.Log, tables.Answer)
			return nil
		},
	}
}
