package text

import "strings"

// SplitUtterances breaks text into utterances for batch synthesis. Every
// non-blank line is split after '.', '!' and '?', and neighbouring sentences
// on the same line are joined while the result stays within maxChars. A
// sentence longer than maxChars is kept whole. maxChars <= 0 splits by line
// only.
func SplitUtterances(s string, maxChars int) []string {
	var out []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' }) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if maxChars <= 0 {
			out = append(out, line)
			continue
		}

		current := ""
		for _, sentence := range sentences(line) {
			switch {
			case current == "":
				current = sentence
			case len(current)+1+len(sentence) <= maxChars:
				current += " " + sentence
			default:
				out = append(out, current)
				current = sentence
			}
		}
		if current != "" {
			out = append(out, current)
		}
	}
	return out
}

func sentences(line string) []string {
	var out []string
	rest := line
	for rest != "" {
		i := strings.IndexAny(rest, ".!?")
		if i < 0 {
			break
		}
		if s := strings.TrimSpace(rest[:i+1]); s != "" {
			out = append(out, s)
		}
		rest = rest[i+1:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		out = append(out, s)
	}
	return out
}
