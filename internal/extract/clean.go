package extract

import "strings"

// bracketStripper removes defanging brackets, e.g. 192[.]168[.]1[.]1
var bracketStripper = strings.NewReplacer("[", "", "]", "")

// CleanValue strips every '[' and ']' from v and trims surrounding whitespace
func CleanValue(v string) string {
	return strings.TrimSpace(bracketStripper.Replace(v))
}

// Clean applies CleanValue to each value. The result has the same length
// and order as values; empty results are kept.
func Clean(values []string) []string {
	cleaned := make([]string, len(values))
	for i, v := range values {
		cleaned[i] = CleanValue(v)
	}
	return cleaned
}
