package monitor

import (
	"testing"
	"time"

	"github.com/varna8104/AssessmentGen/internal/model"
)

var base = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func active(name string, score int, answered int, startedAt time.Time) model.Session {
	s := model.Session{
		StudentName: name,
		Status:      model.SessionInProgress,
		StartedAt:   startedAt,
		Score:       score,
	}
	for i := 0; i < answered; i++ {
		s.Responses = append(s.Responses, model.QuestionFeedback{
			UserAnswer: model.Answer{Text: "x"},
		})
	}
	return s
}

func completed(name string, score int, startedAt time.Time, took time.Duration) model.Session {
	done := startedAt.Add(took)
	return model.Session{
		StudentName: name,
		Status:      model.SessionCompleted,
		StartedAt:   startedAt,
		CompletedAt: &done,
		Score:       score,
	}
}

func names(entries []LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.StudentName
	}
	return out
}

func TestPartition(t *testing.T) {
	sessions := []model.Session{
		active("alice", 0, 0, base),
		completed("bob", 5, base, 4*time.Minute),
		active("carol", 3, 2, base),
	}
	act, comp := Partition(sessions)
	if len(act) != 2 || len(comp) != 1 {
		t.Fatalf("expected 2 active / 1 completed, got %d/%d", len(act), len(comp))
	}
	if comp[0].StudentName != "bob" {
		t.Errorf("expected bob completed, got %q", comp[0].StudentName)
	}
}

func TestActiveLeaderboardOrdering(t *testing.T) {
	sessions := []model.Session{
		active("slow-starter", 10, 3, base.Add(2*time.Minute)),
		active("early-bird", 10, 3, base),
		active("behind", 5, 3, base),
		active("ahead", 10, 4, base.Add(5*time.Minute)),
	}

	entries := ActiveLeaderboard(sessions, 20, 10, 15, base.Add(6*time.Minute))
	want := []string{"ahead", "early-bird", "slow-starter", "behind"}
	got := names(entries)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestActiveLeaderboardTieBreakStartedAt(t *testing.T) {
	// Equal score and progress: the earlier start ranks first.
	sessions := []model.Session{
		active("late", 8, 2, base.Add(time.Minute)),
		active("early", 8, 2, base),
	}
	entries := ActiveLeaderboard(sessions, 10, 5, 10, base.Add(3*time.Minute))
	if entries[0].StudentName != "early" || entries[1].StudentName != "late" {
		t.Errorf("expected early before late, got %v", names(entries))
	}
	if !entries[0].IsLeading || entries[1].IsLeading {
		t.Errorf("only rank 1 should be leading")
	}
}

func TestActiveLeaderboardMetrics(t *testing.T) {
	s := active("alice", 5, 3, base)
	entries := ActiveLeaderboard([]model.Session{s}, 20, 10, 15, base.Add(5*time.Minute))
	e := entries[0]

	if e.CompletionPercentage != 30 {
		t.Errorf("expected 30%% completion (3 of 10), got %d", e.CompletionPercentage)
	}
	if e.ScorePercentage != 25 {
		t.Errorf("expected 25%% score (5 of 20), got %d", e.ScorePercentage)
	}
	if e.CurrentQuestion != 4 {
		t.Errorf("expected current question 4, got %d", e.CurrentQuestion)
	}
	if e.TimeRemaining != 10 {
		t.Errorf("expected 10 minutes remaining, got %d", e.TimeRemaining)
	}
	if e.TimeLeft != "10:00 left" {
		t.Errorf("expected %q, got %q", "10:00 left", e.TimeLeft)
	}
}

func TestActiveLeaderboardCurrentQuestionClamped(t *testing.T) {
	s := active("alice", 0, 10, base)
	entries := ActiveLeaderboard([]model.Session{s}, 10, 10, 15, base)
	if entries[0].CurrentQuestion != 10 {
		t.Errorf("current question must not exceed total, got %d", entries[0].CurrentQuestion)
	}
}

func TestActiveLeaderboardOverdueClampsToZero(t *testing.T) {
	s := active("alice", 0, 1, base)
	entries := ActiveLeaderboard([]model.Session{s}, 10, 10, 5, base.Add(30*time.Minute))
	if entries[0].TimeRemaining != 0 {
		t.Errorf("expected 0 remaining when overdue, got %d", entries[0].TimeRemaining)
	}
	if entries[0].TimeLeft != "0:00 left" {
		t.Errorf("expected %q, got %q", "0:00 left", entries[0].TimeLeft)
	}
}

func TestCompletedLeaderboardTieBreakDuration(t *testing.T) {
	sessions := []model.Session{
		completed("slow", 10, base, 8*time.Minute),
		completed("fast", 10, base, 3*time.Minute),
		completed("low", 12, base, 20*time.Minute),
	}
	entries := CompletedLeaderboard(sessions, 20, 5)
	want := []string{"low", "fast", "slow"}
	got := names(entries)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	if entries[1].CompletionTime != "3 min" {
		t.Errorf("expected completion time %q, got %q", "3 min", entries[1].CompletionTime)
	}
	if entries[0].CompletionPercentage != 100 || entries[0].TimeLeft != "Finished" {
		t.Errorf("completed entries must show 100%% and Finished: %+v", entries[0])
	}
}

func TestCompletedLeaderboardStableOnExactTie(t *testing.T) {
	sessions := []model.Session{
		completed("first-in", 10, base, 5*time.Minute),
		completed("second-in", 10, base, 5*time.Minute),
	}
	entries := CompletedLeaderboard(sessions, 20, 5)
	if entries[0].StudentName != "first-in" || entries[1].StudentName != "second-in" {
		t.Errorf("exact ties must preserve input order, got %v", names(entries))
	}
}

func TestRankDensity(t *testing.T) {
	// All-tied scores still produce ranks 1..N with no gaps or duplicates.
	var act []model.Session
	var comp []model.Session
	for i := 0; i < 6; i++ {
		act = append(act, active("a", 5, 2, base.Add(time.Duration(i)*time.Second)))
		comp = append(comp, completed("c", 5, base, 4*time.Minute))
	}
	for name, entries := range map[string][]LeaderboardEntry{
		"active":    ActiveLeaderboard(act, 10, 5, 10, base.Add(time.Minute)),
		"completed": CompletedLeaderboard(comp, 10, 5),
	} {
		for i, e := range entries {
			if e.Rank != i+1 {
				t.Errorf("%s: expected rank %d at position %d, got %d", name, i+1, i, e.Rank)
			}
		}
	}
}

func TestZeroTotalsNeverError(t *testing.T) {
	sessions := []model.Session{active("alice", 5, 2, base)}
	entries := ActiveLeaderboard(sessions, 0, 0, 0, base)
	if entries[0].ScorePercentage != 0 || entries[0].CompletionPercentage != 0 {
		t.Errorf("zero totals must yield zero percentages: %+v", entries[0])
	}

	comp := []model.Session{completed("bob", 5, base, time.Minute)}
	if got := AverageScore(comp, 0); got != 0 {
		t.Errorf("zero possible score must yield 0 average, got %d", got)
	}
	if got := AverageScore(nil, 100); got != 0 {
		t.Errorf("no completed sessions must yield 0 average, got %d", got)
	}
}

func TestAverageScore(t *testing.T) {
	sessions := []model.Session{
		completed("a", 10, base, time.Minute), // 50%
		completed("b", 20, base, time.Minute), // 100%
		completed("c", 5, base, time.Minute),  // 25%
	}
	// mean(50, 100, 25) = 58.33 -> 58
	if got := AverageScore(sessions, 20); got != 58 {
		t.Errorf("expected average 58, got %d", got)
	}
}

func TestOverallStats(t *testing.T) {
	now := base.Add(2 * time.Hour)
	yesterday := completed("old", 10, base.Add(-25*time.Hour), 10*time.Minute)

	sessions := []model.Session{
		active("alice", 3, 1, base),
		active("bob", 0, 0, base),
		completed("carol", 10, base, 5*time.Minute),
		yesterday,
	}
	for i := range sessions {
		sessions[i].AssessmentCode = "ABC123"
	}

	st := OverallStats(2, sessions, map[string]int{"ABC123": 20}, now)
	if st.ActiveAssessments != 2 {
		t.Errorf("expected 2 active assessments, got %d", st.ActiveAssessments)
	}
	if st.StudentsOnline != 2 {
		t.Errorf("expected 2 students online, got %d", st.StudentsOnline)
	}
	if st.CompletedToday != 1 {
		t.Errorf("expected 1 completed today, got %d", st.CompletedToday)
	}
	// carol 50%, old 50% -> 50
	if st.AvgScore != 50 {
		t.Errorf("expected avg 50, got %d", st.AvgScore)
	}
}
