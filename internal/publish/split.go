package publish

import "strings"

// Split breaks text into parts that fit within limit display characters,
// walking line by line and counting one separator per line. A line is never
// split mid-line: a single line longer than the limit becomes its own
// oversized part.
func Split(text string, limit int) []string {
	var parts []string
	var buf []string
	count := 0

	for _, line := range strings.Split(text, "\n") {
		if count+len(line)+1 > limit && len(buf) > 0 {
			parts = append(parts, strings.Join(buf, "\n"))
			buf, count = nil, 0
		}
		buf = append(buf, line)
		count += len(line) + 1
	}
	if len(buf) > 0 {
		parts = append(parts, strings.Join(buf, "\n"))
	}
	return parts
}
