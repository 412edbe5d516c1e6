// Package monitor derives live dashboard views from stored sessions:
// active/completed partitioning, per-session progress metrics, and ranked
// leaderboards. Everything here is a pure computation over values.
package monitor

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/varna8104/AssessmentGen/internal/model"
)

// LeaderboardEntry is one ranked row of an assessment leaderboard.
type LeaderboardEntry struct {
	Rank                 int        `json:"rank"`
	StudentName          string     `json:"studentName"`
	CurrentQuestion      int        `json:"currentQuestion"`
	TotalQuestions       int        `json:"totalQuestions"`
	Score                int        `json:"score"`
	ScorePercentage      int        `json:"scorePercentage"`
	CompletionPercentage int        `json:"completionPercentage"`
	TimeRemaining        int        `json:"timeRemaining"`
	TimeLeft             string     `json:"timeLeft"`
	Status               string     `json:"status"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	CompletionTime       string     `json:"completionTime,omitempty"`
	IsLeading            bool       `json:"isLeading"`
}

// Stats summarizes activity across every assessment for the dashboard header.
type Stats struct {
	ActiveAssessments int `json:"activeAssessments"`
	StudentsOnline    int `json:"studentsOnline"`
	CompletedToday    int `json:"completedToday"`
	AvgScore          int `json:"avgScore"`
}

// Partition splits sessions into active and completed buckets. A session is
// completed iff it has a completion timestamp.
func Partition(sessions []model.Session) (active, completed []model.Session) {
	for _, s := range sessions {
		if s.Completed() {
			completed = append(completed, s)
		} else {
			active = append(active, s)
		}
	}
	return active, completed
}

// ActiveLeaderboard ranks in-progress sessions: score descending, then
// answered-response count descending (more progress wins), then start time
// ascending (first mover wins a full tie). Ranks are dense 1-based and the
// top entry is flagged as leading.
func ActiveLeaderboard(active []model.Session, totalPossible, totalQuestions, estimatedMinutes int, now time.Time) []LeaderboardEntry {
	sorted := make([]model.Session, len(active))
	copy(sorted, active)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if na, nb := answeredCount(a), answeredCount(b); na != nb {
			return na > nb
		}
		return a.StartedAt.Before(b.StartedAt)
	})

	entries := make([]LeaderboardEntry, 0, len(sorted))
	for i, s := range sorted {
		answered := answeredCount(s)
		remaining := time.Duration(estimatedMinutes)*time.Minute - now.Sub(s.StartedAt)
		if remaining < 0 {
			remaining = 0
		}
		entries = append(entries, LeaderboardEntry{
			Rank:                 i + 1,
			StudentName:          s.StudentName,
			CurrentQuestion:      min(answered+1, totalQuestions),
			TotalQuestions:       totalQuestions,
			Score:                s.Score,
			ScorePercentage:      percent(s.Score, totalPossible),
			CompletionPercentage: percent(answered, totalQuestions),
			TimeRemaining:        int(math.Round(remaining.Minutes())),
			TimeLeft:             fmt.Sprintf("%d:%02d left", int(remaining.Minutes()), int(remaining.Seconds())%60),
			Status:               "active",
			IsLeading:            i == 0,
		})
	}
	return entries
}

// CompletedLeaderboard ranks finished sessions: score descending, then
// elapsed duration ascending (faster completion wins). Exact ties keep their
// input order; the sort is stable so ranking stays deterministic.
func CompletedLeaderboard(completed []model.Session, totalPossible, totalQuestions int) []LeaderboardEntry {
	sorted := make([]model.Session, len(completed))
	copy(sorted, completed)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return duration(a) < duration(b)
	})

	entries := make([]LeaderboardEntry, 0, len(sorted))
	for i, s := range sorted {
		minutes := int(math.Round(duration(s).Minutes()))
		entries = append(entries, LeaderboardEntry{
			Rank:                 i + 1,
			StudentName:          s.StudentName,
			CurrentQuestion:      totalQuestions,
			TotalQuestions:       totalQuestions,
			Score:                s.Score,
			ScorePercentage:      percent(s.Score, totalPossible),
			CompletionPercentage: 100,
			TimeRemaining:        0,
			TimeLeft:             "Finished",
			Status:               "completed",
			CompletedAt:          s.CompletedAt,
			CompletionTime:       fmt.Sprintf("%d min", minutes),
			IsLeading:            i == 0,
		})
	}
	return entries
}

// AverageScore returns the rounded mean score percentage across completed
// sessions, 0 when there are none or nothing was scoreable.
func AverageScore(completed []model.Session, totalPossible int) int {
	if len(completed) == 0 || totalPossible <= 0 {
		return 0
	}
	sum := 0.0
	for _, s := range completed {
		sum += float64(s.Score) / float64(totalPossible) * 100
	}
	return int(math.Round(sum / float64(len(completed))))
}

// OverallStats aggregates every session across assessments. totalsByCode maps
// assessment code to total possible score; sessions whose assessment is
// unknown or has zero possible points contribute zero to the average but
// still count toward it.
func OverallStats(activeAssessments int, sessions []model.Session, totalsByCode map[string]int, now time.Time) Stats {
	st := Stats{ActiveAssessments: activeAssessments}
	sum := 0.0
	completedCount := 0
	for _, s := range sessions {
		if !s.Completed() {
			st.StudentsOnline++
			continue
		}
		completedCount++
		if sameDay(*s.CompletedAt, now) {
			st.CompletedToday++
		}
		if total := totalsByCode[s.AssessmentCode]; total > 0 {
			sum += float64(s.Score) / float64(total) * 100
		}
	}
	if completedCount > 0 {
		st.AvgScore = int(math.Round(sum / float64(completedCount)))
	}
	return st
}

func answeredCount(s model.Session) int {
	n := 0
	for _, fb := range s.Responses {
		if !fb.UserAnswer.IsEmpty() {
			n++
		}
	}
	return n
}

func duration(s model.Session) time.Duration {
	if s.CompletedAt == nil {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// percent computes a rounded percentage with a zero-division guard.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
