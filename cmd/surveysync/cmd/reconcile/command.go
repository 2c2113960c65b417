// Package reconcile provides the offline reconcile command implementation.
package reconcile

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/surveysync/internal/appcontext"
	"github.com/agentstation/surveysync/internal/cmd/output"
	"github.com/agentstation/surveysync/internal/cmd/table"
	"github.com/agentstation/surveysync/pkg/errors"
	"github.com/agentstation/surveysync/pkg/logging"
	"github.com/agentstation/surveysync/pkg/questionnaire"
	"github.com/agentstation/surveysync/pkg/reconciler"
	"github.com/agentstation/surveysync/pkg/respondent"
)

// Flags holds the reconcile command flags.
type Flags struct {
	Questionnaire string
	Answers       string
	Survey        string
	NoOverride    bool
}

func addFlags(cmd *cobra.Command) *Flags {
	flags := &Flags{}
	cmd.Flags().StringVar(&flags.Questionnaire, "questionnaire", "", "questionnaire XML file (required)")
	cmd.Flags().StringVar(&flags.Answers, "answers", "", "respondent answer XML file (required)")
	cmd.Flags().StringVar(&flags.Survey, "survey", "", "survey id stamped on the records")
	cmd.Flags().BoolVar(&flags.NoOverride, "no-override", false, "keep coded choice texts even when a free text answer exists")
	_ = cmd.MarkFlagRequired("questionnaire")
	_ = cmd.MarkFlagRequired("answers")
	return flags
}

// NewCommand creates the reconcile command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var flags *Flags

	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Reconcile saved answer documents offline",
		Long: `Reconcile turns a saved respondent answer document into readable
records using a saved questionnaire document. Nothing is fetched or stored.`,
		Example: `  surveysync reconcile --questionnaire questionnaire.xml --answers answers.xml
  surveysync reconcile --questionnaire q.xml --answers a.xml --survey 123456 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	flags = addFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	ctx := logging.WithOperation(cmd.Context(), "reconcile")

	format, err := output.Resolve(app.OutputFormat())
	if err != nil {
		return err
	}

	index, err := loadQuestionnaire(flags.Questionnaire)
	if err != nil {
		return err
	}
	doc, err := loadAnswers(flags.Answers)
	if err != nil {
		return err
	}

	r, err := reconciler.New(reconciler.WithTextOverride(!flags.NoOverride))
	if err != nil {
		return err
	}
	result, err := r.Document(ctx, doc, index, flags.Survey)
	if err != nil {
		return err
	}
	app.Logger().Info().Msg(result.Summary())

	return output.Write(cmd.OutOrStdout(), format, result.Answers,
		table.AnswersToTableData(result.Answers, format == output.FormatWide))
}

func loadQuestionnaire(path string) (questionnaire.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck

	return questionnaire.Load(f)
}

func loadAnswers(path string) (*respondent.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck

	return respondent.Parse(f)
}
