// Package unlock computes which curriculum chapters are available to a
// student at a point in time. The computation is pure: the same schedule
// and instant always produce the same result, and nothing here talks to
// the network or the store.
package unlock

import "time"

// Schedule holds the parameters of a student's preparation window.
type Schedule struct {
	// StartDate is the reference date the preparation period began.
	StartDate time.Time `json:"start_date"`

	// TargetDate is the exam date.
	TargetDate time.Time `json:"target_date"`

	// CurriculumOrder is the canonical ordering of chapter IDs. Chapters
	// unlock front to back as months elapse.
	CurriculumOrder []string `json:"curriculum_order"`

	// BonusUnlocked is the set of chapter IDs unlocked early through the
	// bonus quiz, independent of elapsed time.
	BonusUnlocked map[string]bool `json:"bonus_unlocked"`
}

// Result is the computed unlock state at a given instant.
type Result struct {
	// Unlocked is the set of unlocked chapter IDs.
	Unlocked map[string]bool

	// TimeUnlockedCount is how many leading chapters of CurriculumOrder
	// are unlocked by elapsed time alone.
	TimeUnlockedCount int

	// MonthsElapsed is whole months since StartDate, clamped to
	// [0, TotalMonths].
	MonthsElapsed int

	// TotalMonths is whole months between StartDate and TargetDate.
	TotalMonths int

	// MonthsUntilExam is TotalMonths - MonthsElapsed, never negative.
	MonthsUntilExam int
}

// IsUnlocked reports whether the chapter is in the unlocked set.
func (r Result) IsUnlocked(chapterID string) bool {
	return r.Unlocked[chapterID]
}

// Compute partitions the curriculum into TotalMonths near-equal slices and
// unlocks slices 0..MonthsElapsed inclusive, then unions in the bonus set.
// A degenerate schedule (target at or before start) unlocks everything.
// Compute never fails: a nil BonusUnlocked set is simply empty.
func Compute(s Schedule, now time.Time) Result {
	total := MonthsBetween(s.StartDate, s.TargetDate)
	elapsed := MonthsBetween(s.StartDate, now)
	if elapsed > total {
		elapsed = total
	}

	n := len(s.CurriculumOrder)
	var cutoff int
	if total < 1 {
		cutoff = n
	} else {
		// Slice i covers chapters [i*n/total, (i+1)*n/total); slices
		// 0..elapsed inclusive are open.
		cutoff = (elapsed + 1) * n / total
		if cutoff > n {
			cutoff = n
		}
	}

	unlocked := make(map[string]bool, cutoff+len(s.BonusUnlocked))
	for _, id := range s.CurriculumOrder[:cutoff] {
		unlocked[id] = true
	}
	for id, ok := range s.BonusUnlocked {
		if ok {
			unlocked[id] = true
		}
	}

	return Result{
		Unlocked:          unlocked,
		TimeUnlockedCount: cutoff,
		MonthsElapsed:     elapsed,
		TotalMonths:       total,
		MonthsUntilExam:   total - elapsed,
	}
}

// MonthsBetween returns the number of whole months from from to to,
// floored. Returns 0 when to is not after from.
func MonthsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	m := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if m > 0 && from.AddDate(0, m, 0).After(to) {
		m--
	}
	if m < 0 {
		m = 0
	}
	return m
}
