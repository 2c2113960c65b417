// Package answers provides the answers command implementation.
package answers

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/surveysync/internal/appcontext"
	"github.com/agentstation/surveysync/internal/cmd/output"
	"github.com/agentstation/surveysync/internal/cmd/table"
	"github.com/agentstation/surveysync/internal/collect"
	"github.com/agentstation/surveysync/internal/store"
	"github.com/agentstation/surveysync/pkg/reconciler"
)

// Flags holds the answers command flags.
type Flags struct {
	Survey      string
	Respondents []string
	Save        bool
	NoOverride  bool
}

func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	cmd.Flags().StringVar(&flags.Survey, "survey", "", "survey id the respondents belong to (required)")
	cmd.Flags().StringSliceVar(&flags.Respondents, "respondent", nil, "respondent external key (repeatable, default all pending)")
	cmd.Flags().BoolVar(&flags.Save, "save", false, "store the answers and mark respondents answered")
	cmd.Flags().BoolVar(&flags.NoOverride, "no-override", false, "keep coded choice texts even when a free text answer exists")
	_ = cmd.MarkFlagRequired("survey")
	return flags
}

// NewCommand creates the answers command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "answers",
		GroupID: "core",
		Short:   "Fetch and reconcile respondent answers",
		Long: `Answers fetches the survey questionnaire once, then fetches each
respondent's raw answers and reconciles them into readable records.

Without --respondent every respondent of the survey still marked "Not Answered"
in the respondent log is collected. With --save the records replace any
earlier records of the respondent in the answer table and the respondent is
marked "Answered"; otherwise the records are only printed.

Respondents whose documents cannot be fetched or are malformed are skipped
and reported.`,
		Example: `  surveysync answers --survey 123456 --respondent ABCD1234
  surveysync answers --survey 123456 --save
  surveysync answers --survey 123456 --respondent ABCD1234 -o wide`,
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

	client, err := app.SurveyClient()
	if err != nil {
		return err
	}

	r, err := reconciler.New(reconciler.WithTextOverride(!flags.NoOverride))
	if err != nil {
		return err
	}
	opts := []collect.Option{
		collect.WithReconciler(r),
		collect.WithConcurrency(app.Concurrency()),
	}

	if flags.Save || len(flags.Respondents) == 0 {
		db, err := app.Database(ctx)
		if err != nil {
			return err
		}
		tables := app.Tables()
		log, err := store.NewRespondentLog(db, tables.Log, app.RetryPolicy())
		if err != nil {
			return err
		}
		opts = append(opts, collect.WithTracker(log))
		if flags.Save {
			answers, err := store.NewAnswerStore(db, tables.Answer)
			if err != nil {
				return err
			}
			opts = append(opts, collect.WithSaver(answers))
		}
	}

	collector, err := collect.New(client, opts...)
	if err != nil {
		return err
	}
	result, runErr := collector.Run(ctx, flags.Survey, flags.Respondents)
	if result == nil {
		return runErr
	}

	tableData := table.AnswersToTableData(result.Answers, format == output.FormatWide)
	if flags.Save {
		tableData = table.CollectResultToTableData(result)
	}
	if err := output.Write(cmd.OutOrStdout(), format, result, tableData); err != nil {
		return err
	}
	return runErr
}
