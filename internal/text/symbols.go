package text

const (
	// Pad is the padding symbol; its id is 0.
	Pad = '_'
	// EOS terminates every sequence.
	EOS = '~'

	characters = `ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz!'"(),-.:;? `
)

// Symbols lists the synthesizer's vocabulary in id order.
var Symbols = append([]rune{Pad, EOS}, []rune(characters)...)

var symbolIDs = func() map[rune]int64 {
	ids := make(map[rune]int64, len(Symbols))
	for i, r := range Symbols {
		ids[r] = int64(i)
	}
	return ids
}()

// PadID is the id used to pad sequences in a batch.
const PadID int64 = 0

// ToSequence cleans s and maps it to symbol ids followed by the end-of-sequence
// id. Characters outside the vocabulary, including the pad and end symbols
// themselves, are dropped.
func ToSequence(s string) []int64 {
	cleaned := Clean(s)
	seq := make([]int64, 0, len(cleaned)+1)
	for _, r := range cleaned {
		if r == Pad || r == EOS {
			continue
		}
		if id, ok := symbolIDs[r]; ok {
			seq = append(seq, id)
		}
	}
	return append(seq, symbolIDs[EOS])
}

// FromSequence maps ids back to text, skipping pad and end symbols and ids out
// of range.
func FromSequence(ids []int64) string {
	out := make([]rune, 0, len(ids))
	for _, id := range ids {
		if id <= 1 || id >= int64(len(Symbols)) {
			continue
		}
		out = append(out, Symbols[id])
	}
	return string(out)
}
