// Package questions provides the questions command implementation.
package questions

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/surveysync/internal/appcontext"
	"github.com/agentstation/surveysync/internal/cmd/output"
	"github.com/agentstation/surveysync/internal/cmd/table"
)

// NewCommand creates the questions command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var survey string

	cmd := &cobra.Command{
		Use:     "questions",
		GroupID: "management",
		Short:   "List the questions of a survey",
		Long: `Questions fetches a survey's questionnaire and lists every question
with its text and coded choices.`,
		Example: `  surveysync questions --survey 123456
  surveysync questions --survey 123456 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := output.Resolve(app.OutputFormat())
			if err != nil {
				return err
			}
			client, err := app.SurveyClient()
			if err != nil {
				return err
			}
			index, err := client.Questionnaire(cmd.Context(), survey)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), format, index, table.QuestionsToTableData(index))
		},
	}

	cmd.Flags().StringVar(&survey, "survey", "", "survey id (required)")
	_ = cmd.MarkFlagRequired("survey")
	return cmd
}
