package attendance

import "sort"

// ClassSummary is one student's attendance in one class.
// Total counts every session recorded for the class, across students.
type ClassSummary struct {
	Class      string  `json:"class"`
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Percentage float64 `json:"percentage"`
}

// Percentage returns the share of the class's recorded sessions the student was present at, in [0, 100].
// A class with no recorded sessions yields 0.
func Percentage(records []Attendance, studentID, classID string) float64 {
	var total, present int
	for _, rec := range records {
		if rec.Class != classID {
			continue
		}
		total++
		if rec.Student == studentID && rec.Status == StatusPresent {
			present++
		}
	}
	return ratio(present, total)
}

// Summarize computes the student's ClassSummary for every class they have a record in.
// records must hold all the records of those classes for the totals to be meaningful.
func Summarize(records []Attendance, studentID string) []ClassSummary {
	byClass := make(map[string]*ClassSummary)
	for _, rec := range records {
		if rec.Student == studentID {
			if _, ok := byClass[rec.Class]; !ok {
				byClass[rec.Class] = &ClassSummary{Class: rec.Class}
			}
		}
	}

	for _, rec := range records {
		sum, ok := byClass[rec.Class]
		if !ok {
			continue
		}
		sum.Total++
		if rec.Student != studentID {
			continue
		}
		switch rec.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		}
	}

	summaries := make([]ClassSummary, 0, len(byClass))
	for _, sum := range byClass {
		sum.Percentage = ratio(sum.Present, sum.Total)
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Class < summaries[j].Class })
	return summaries
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
