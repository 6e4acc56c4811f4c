// Package grading holds the one rule used to turn marks into a percentage and a letter grade.
// Every write path that stores marks goes through Compute.
package grading

// Letter grades
const (
	GradeAPlus = "A+"
	GradeA     = "A"
	GradeBPlus = "B+"
	GradeB     = "B"
	GradeC     = "C"
	GradeD     = "D"
	GradeF     = "F"
)

// bands are ordered from the highest lower bound down. A percentage gets the first
// band whose bound it reaches, so bounds are closed-above (90 is an A+).
var bands = []struct {
	min   float64
	grade string
}{
	{90, GradeAPlus},
	{80, GradeA},
	{70, GradeBPlus},
	{60, GradeB},
	{50, GradeC},
	{40, GradeD},
}

// Percentage returns marks as a percentage of totalMarks.
// A non-positive totalMarks yields 0.
func Percentage(marks, totalMarks float64) float64 {
	if totalMarks <= 0 {
		return 0
	}
	return marks / totalMarks * 100
}

// Grade maps a percentage to its letter grade.
func Grade(percentage float64) string {
	for _, b := range bands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return GradeF
}

// Compute returns both derived fields of a mark.
func Compute(marks, totalMarks float64) (percentage float64, grade string) {
	percentage = Percentage(marks, totalMarks)
	return percentage, Grade(percentage)
}
