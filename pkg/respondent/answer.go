package respondent

// RawAnswer is one answer entry of a respondent. It is either a ChoiceAnswer
// or a TextAnswer.
type RawAnswer interface {
	QuestionName() string
	rawAnswer()
}

// ChoiceAnswer is a coded answer whose display text lives in the questionnaire.
type ChoiceAnswer struct {
	Question string
	Value    string
}

// QuestionName implements RawAnswer.
func (a ChoiceAnswer) QuestionName() string { return a.Question }

func (ChoiceAnswer) rawAnswer() {}

// TextAnswer is a free-text answer. Text is "" when the respondent left it empty.
type TextAnswer struct {
	Question string
	Text     string
}

// QuestionName implements RawAnswer.
func (a TextAnswer) QuestionName() string { return a.Question }

func (TextAnswer) rawAnswer() {}

// Sheet is the typed answer set of one respondent.
type Sheet struct {
	RespondentID string
	Answers      []RawAnswer
}

// NewSheet builds a sheet from already typed answers.
func NewSheet(respondentID string, answers ...RawAnswer) *Sheet {
	return &Sheet{RespondentID: respondentID, Answers: answers}
}

// Choices returns the coded answers in sheet order.
func (s *Sheet) Choices() []ChoiceAnswer {
	var out []ChoiceAnswer
	for _, a := range s.Answers {
		if c, ok := a.(ChoiceAnswer); ok {
			out = append(out, c)
		}
	}
	return out
}

// Texts returns the free-text answers in sheet order.
func (s *Sheet) Texts() []TextAnswer {
	var out []TextAnswer
	for _, a := range s.Answers {
		if t, ok := a.(TextAnswer); ok {
			out = append(out, t)
		}
	}
	return out
}
