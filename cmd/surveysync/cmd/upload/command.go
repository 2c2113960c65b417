// Package upload provides the upload command implementation.
package upload

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/surveysync/internal/appcontext"
	"github.com/agentstation/surveysync/internal/cmd/output"
	"github.com/agentstation/surveysync/internal/cmd/table"
	"github.com/agentstation/surveysync/internal/mapping"
	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/internal/upload"
)

// DefaultJob is the job name recorded for uploads of the base survey.
const DefaultJob = "BASESURVEY"

// Flags holds the upload command flags.
type Flags struct {
	Survey   string
	Job      string
	Table    string
	FailFast bool
	DryRun   bool
}

func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	cmd.Flags().StringVar(&flags.Survey, "survey", "", "survey id to create respondents in (required)")
	cmd.Flags().StringVar(&flags.Job, "job", DefaultJob, "job name recorded in the respondent log")
	cmd.Flags().StringVar(&flags.Table, "table", "", "source table (default from source_table)")
	cmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "stop at the first failing row")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "print the payloads without contacting the survey service")
	_ = cmd.MarkFlagRequired("survey")
	return flags
}

// NewCommand creates the upload command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "upload",
		GroupID: "core",
		Short:   "Create survey respondents from a source table",
		Long: `Upload reads every row of the source table, maps it to a respondent
payload and creates the respondent in the survey. Each created respondent
is recorded in the respondent log with status "Not Answered" so its answers
can be collected later.

Failing rows are logged and counted; use --fail-fast to stop at the first one.`,
		Example: `  surveysync upload --survey 123456
  surveysync upload --survey 123456 --job FOLLOWUP --table followup_cpr_level
  surveysync upload --survey 123456 --dry-run -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	flags = addFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	ctx := cmd.Context()

	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}
	fields, err := app.FieldMap()
	if err != nil {
		return err
	}
	if err := fields.Validate(); err != nil {
		return err
	}

	tables := app.Tables()
	source := flags.Table
	if source == "" {
		source = tables.Source
	}

	db, err := app.Database(ctx)
	if err != nil {
		return err
	}
	rows, err := store.NewExtractor(db).FetchRows(ctx, source)
	if err != nil {
		return err
	}
	app.Logger().Info().Str("table", source).Int("rows", len(rows)).Msg("Extracted source rows")

	if flags.DryRun {
		payloads, err := buildPayloads(fields, rows)
		if err != nil {
			return err
		}
		return output.Write(cmd.OutOrStdout(), format, payloads, table.PayloadsToTableData(payloads))
	}

	client, err := app.SurveyClient()
	if err != nil {
		return err
	}
	log, err := store.NewRespondentLog(db, tables.Log, app.RetryPolicy())
	if err != nil {
		return err
	}

	uploader := upload.New(client, log,
		upload.WithFieldMap(fields),
		upload.WithFailFast(flags.FailFast),
	)
	result, runErr := uploader.Run(ctx, flags.Survey, flags.Job, rows)
	if result != nil {
		if err := output.Write(cmd.OutOrStdout(), format, result, table.UploadResultToTableData(result)); err != nil {
			return err
		}
	}
	return runErr
}

func buildPayloads(fields mapping.FieldMap, rows []store.Row) ([]mapping.Payload, error) {
	payloads := make([]mapping.Payload, 0, len(rows))
	for i, row := range rows {
		p, err := fields.Apply(row)
		if err != nil {
			return nil, &upload.RowError{Row: i + 1, Err: err}
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}
