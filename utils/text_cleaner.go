package utils

import "strings"

// CleanOCRText drops carriage returns and blank lines and trims each line.
// Line structure is kept; the model relies on it to pair labels with values.
func CleanOCRText(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	rawLines := strings.Split(text, "\n")

	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n")
}
