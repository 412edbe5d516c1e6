package grade

import (
	"reflect"
	"testing"

	"github.com/varna8104/AssessmentGen/internal/model"
)

func text(s string) model.Answer    { return model.Answer{Text: s} }
func list(s ...string) model.Answer { return model.Answer{Blanks: s} }

func TestQuestionSingleChoice(t *testing.T) {
	q := model.Question{
		ID:            "q1",
		Type:          model.TypeSingleChoice,
		Prompt:        "2+2?",
		CorrectAnswer: text("B"),
		Points:        5,
	}

	tests := []struct {
		name        string
		answer      model.Answer
		wantCorrect bool
		wantPoints  int
	}{
		{"exact match", text("B"), true, 5},
		{"wrong case", text("b"), false, 0},
		{"wrong answer", text("A"), false, 0},
		{"empty answer", model.Answer{}, false, 0},
		{"list shaped answer", list("B"), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := Question(q, tt.answer)
			if fb.IsCorrect != tt.wantCorrect || fb.PointsEarned != tt.wantPoints {
				t.Errorf("got correct=%v points=%d, want correct=%v points=%d",
					fb.IsCorrect, fb.PointsEarned, tt.wantCorrect, tt.wantPoints)
			}
		})
	}
}

func TestQuestionDeterminism(t *testing.T) {
	q := model.Question{ID: "q1", Type: model.TypeFillInBlank, CorrectAnswer: list("Paris", "1789"), Points: 10}
	a := list("paris", "1790")

	first := Question(q, a)
	for i := 0; i < 5; i++ {
		if got := Question(q, a); !reflect.DeepEqual(got, first) {
			t.Fatalf("grading not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestQuestionFillInBlank(t *testing.T) {
	q := model.Question{
		ID:            "q1",
		Type:          model.TypeFillInBlank,
		CorrectAnswer: list("Paris", "1789"),
		Points:        10,
	}

	tests := []struct {
		name        string
		answer      model.Answer
		wantCorrect bool
		wantPoints  int
	}{
		{"all correct", list("Paris", "1789"), true, 10},
		{"case insensitive partial", list("paris", "1790"), false, 5},
		{"substring match", list("paris is nice", "1789"), true, 10},
		{"superset key match", list("Par", "1789"), true, 10},
		{"all wrong", list("London", "1066"), false, 0},
		{"missing second slot", list("Paris"), false, 5},
		{"empty blanks never match", list("", ""), false, 0},
		{"string instead of list", text("Paris 1789"), false, 0},
		{"no answer", model.Answer{}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := Question(q, tt.answer)
			if fb.IsCorrect != tt.wantCorrect || fb.PointsEarned != tt.wantPoints {
				t.Errorf("got correct=%v points=%d, want correct=%v points=%d",
					fb.IsCorrect, fb.PointsEarned, tt.wantCorrect, tt.wantPoints)
			}
		})
	}
}

func TestQuestionFillInBlankRounding(t *testing.T) {
	q := model.Question{Type: model.TypeFillInBlank, CorrectAnswer: list("a", "b", "c"), Points: 10}
	// 1 of 3 slots: round(10/3) = 3. 2 of 3: round(20/3) = 7.
	if fb := Question(q, list("a", "x", "y")); fb.PointsEarned != 3 {
		t.Errorf("1/3 slots: expected 3 points, got %d", fb.PointsEarned)
	}
	if fb := Question(q, list("a", "b", "y")); fb.PointsEarned != 7 {
		t.Errorf("2/3 slots: expected 7 points, got %d", fb.PointsEarned)
	}
}

func TestQuestionOpenText(t *testing.T) {
	q := model.Question{Type: model.TypeOpenText, CorrectAnswer: text("model answer"), Points: 4}

	tests := []struct {
		name        string
		answer      model.Answer
		wantCorrect bool
	}{
		{"eleven chars", text("12345678901"), true},
		{"ten chars", text("1234567890"), false},
		{"padded to eleven", text("   1234567890   "), false},
		{"long answer", text("a thoughtful paragraph about the topic"), true},
		{"empty", model.Answer{}, false},
		{"whitespace only", text("            "), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := Question(q, tt.answer)
			if fb.IsCorrect != tt.wantCorrect {
				t.Errorf("got correct=%v, want %v", fb.IsCorrect, tt.wantCorrect)
			}
			wantPoints := 0
			if tt.wantCorrect {
				wantPoints = 4
			}
			if fb.PointsEarned != wantPoints {
				t.Errorf("got %d points, want %d", fb.PointsEarned, wantPoints)
			}
		})
	}
}

func TestQuestionUnknownTypeFallsThrough(t *testing.T) {
	q := model.Question{Type: "matching", CorrectAnswer: text("A-1,B-2"), Points: 2}
	if fb := Question(q, text("A-1,B-2")); !fb.IsCorrect || fb.PointsEarned != 2 {
		t.Errorf("unknown type should grade by exact match: %+v", fb)
	}
	if fb := Question(q, text("A-2,B-1")); fb.IsCorrect || fb.PointsEarned != 0 {
		t.Errorf("unknown type mismatch should be zero credit: %+v", fb)
	}
}

func TestQuestionFeedbackPassthrough(t *testing.T) {
	q := model.Question{
		ID:            "q7",
		Type:          model.TypeSingleChoice,
		Prompt:        "Capital of France?",
		CorrectAnswer: text("Paris"),
		Explanation:   "Paris has been the capital since 987.",
		Points:        3,
	}
	fb := Question(q, text("Lyon"))
	if fb.QuestionID != "q7" || fb.Question != q.Prompt || fb.Explanation != q.Explanation {
		t.Errorf("feedback should carry question text and explanation: %+v", fb)
	}
	if fb.UserAnswer.Text != "Lyon" || fb.CorrectAnswer.Text != "Paris" {
		t.Errorf("feedback should carry both answers: %+v", fb)
	}
	if fb.MaxPoints != 3 || fb.Type != model.TypeSingleChoice {
		t.Errorf("feedback should carry max points and type: %+v", fb)
	}
}

func TestSubmission(t *testing.T) {
	questions := []model.Question{
		{ID: "q1", Type: model.TypeSingleChoice, CorrectAnswer: text("4"), Points: 5},
		{ID: "q2", Type: model.TypeSingleChoice, CorrectAnswer: text("True"), Points: 5},
	}
	answers := map[string]model.Answer{
		"q1": text("4"),
		"q2": text("False"),
	}

	total, feedback := Submission(questions, answers)
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(feedback) != 2 {
		t.Fatalf("expected 2 feedback entries, got %d", len(feedback))
	}
	if !feedback[0].IsCorrect || feedback[0].PointsEarned != 5 {
		t.Errorf("q1 should be correct for 5 points: %+v", feedback[0])
	}
	if feedback[1].IsCorrect || feedback[1].PointsEarned != 0 {
		t.Errorf("q2 should be wrong for 0 points: %+v", feedback[1])
	}
}

func TestSubmissionGradesOmittedAnswers(t *testing.T) {
	questions := []model.Question{
		{ID: "q1", Type: model.TypeSingleChoice, CorrectAnswer: text("A"), Points: 2},
		{ID: "q2", Type: model.TypeSingleChoice, CorrectAnswer: text("B"), Points: 2},
		{ID: "q3", Type: model.TypeSingleChoice, CorrectAnswer: text("C"), Points: 2},
	}
	total, feedback := Submission(questions, map[string]model.Answer{"q2": text("B")})
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(feedback) != 3 {
		t.Fatalf("omitted answers must still appear in feedback, got %d entries", len(feedback))
	}
	// Feedback stays in assessment order regardless of answer-map order.
	if feedback[0].QuestionID != "q1" || feedback[1].QuestionID != "q2" || feedback[2].QuestionID != "q3" {
		t.Errorf("feedback out of assessment order: %v", []string{feedback[0].QuestionID, feedback[1].QuestionID, feedback[2].QuestionID})
	}
}

func TestAnswered(t *testing.T) {
	questions := []model.Question{
		{ID: "q1", Type: model.TypeSingleChoice, CorrectAnswer: text("A"), Points: 2},
		{ID: "q2", Type: model.TypeSingleChoice, CorrectAnswer: text("B"), Points: 2},
		{ID: "q3", Type: model.TypeSingleChoice, CorrectAnswer: text("C"), Points: 2},
	}
	score, feedback := Answered(questions, map[string]model.Answer{
		"q1": text("A"),
		"q2": text("X"),
	})
	if score != 2 {
		t.Errorf("expected partial score 2, got %d", score)
	}
	if len(feedback) != 2 {
		t.Errorf("expected feedback only for answered questions, got %d entries", len(feedback))
	}
}
