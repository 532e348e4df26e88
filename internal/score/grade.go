package score

// Grade maps a score to a letter: A >= 90, B >= 75, C >= 50, D >= 25, F otherwise.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 50:
		return "C"
	case score >= 25:
		return "D"
	default:
		return "F"
	}
}
