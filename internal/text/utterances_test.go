package text

import (
	"reflect"
	"testing"
)

func TestSplitUtterances(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     []string
	}{
		{"single sentence", "Hello world.", 100, []string{"Hello world."}},
		{"joins sentences within limit", "Hello. World.", 100, []string{"Hello. World."}},
		{"splits sentences over limit", "Hello. World.", 8, []string{"Hello.", "World."}},
		{"mixed terminators", "First. Second! Third?", 10, []string{"First.", "Second!", "Third?"}},
		{"long sentence kept whole", "This sentence is long. Hi.", 5, []string{"This sentence is long.", "Hi."}},
		{"trailing text without terminator", "One. two", 4, []string{"One.", "two"}},
		{"lines are separate utterances", "One.\nTwo.", 100, []string{"One.", "Two."}},
		{"blank lines skipped", "One.\r\n\r\n  \nTwo", 0, []string{"One.", "Two"}},
		{"zero limit keeps lines", "A. B. C.", 0, []string{"A. B. C."}},
		{"empty text", "   ", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitUtterances(tt.text, tt.maxChars)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitUtterances(%q, %d) = %q; want %q", tt.text, tt.maxChars, got, tt.want)
			}
		})
	}
}
