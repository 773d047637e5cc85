package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunk_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if got := Chunk(input, 100, 0, 500, 50); got != nil {
			t.Errorf("Chunk(%q) = %v, want nil", input, got)
		}
	}
}

func TestChunk_SingleShortText(t *testing.T) {
	got := Chunk("A short sentence.", 10, 0, 500, 50)
	if len(got) != 1 {
		t.Fatalf("Chunk() returned %d chunks, want 1", len(got))
	}
	if got[0] != "A short sentence." {
		t.Errorf("Chunk() = %q", got[0])
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("One sentence here. Another one follows! A third, why not? ", 40)

	a := Chunk(text, 100, 400, 500, 80)
	b := Chunk(text, 100, 400, 500, 80)

	if len(a) != len(b) {
		t.Fatalf("run lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunk_NeverExceedsHardCeiling(t *testing.T) {
	inputs := []string{
		strings.Repeat("word ", 5000),
		strings.Repeat("x", 8000), // one giant word, no spaces
		strings.Repeat("A sentence of reasonable length that repeats endlessly. ", 300),
		strings.Repeat("NOSPACESATALLJUSTCAPS", 500),
	}

	for i, text := range inputs {
		// Deliberately ask for a max above the ceiling.
		for _, chunk := range Chunk(text, 100, 0, 4000, 200) {
			if n := utf8.RuneCountInString(chunk); n > HardCeiling {
				t.Errorf("input %d: chunk of %d runes exceeds ceiling %d", i, n, HardCeiling)
			}
		}
		if len(Chunk(text, 100, 0, 4000, 200)) == 0 {
			t.Errorf("input %d: no chunks for non-empty text", i)
		}
	}
}

func TestChunk_NoPunctuationFallsBackToWordSplit(t *testing.T) {
	text := strings.Repeat("plainword ", 200) // ~2000 runes, no sentence punctuation

	chunks := Chunk(text, 50, 0, 300, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected word-split chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 300 {
			t.Errorf("chunk exceeds max: %d runes", utf8.RuneCountInString(c))
		}
	}
}

func TestChunk_OverlapPrefix(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog near the river bank today. ", 30)

	chunks := Chunk(text, 50, 0, 400, 60)
	if len(chunks) < 2 {
		t.Fatalf("need at least 2 chunks, got %d", len(chunks))
	}

	plain := Chunk(text, 50, 0, 400, 0)
	for i := 1; i < len(chunks); i++ {
		prev := plain[i-1]
		prefix := strings.TrimSuffix(chunks[i], plain[i])
		if prefix == "" {
			t.Errorf("chunk %d has no overlap prefix", i)
			continue
		}
		if !strings.HasSuffix(prev+" ", prefix) {
			t.Errorf("chunk %d prefix %q is not a suffix of previous chunk", i, prefix)
		}
	}
}

func TestChunk_OverlapDisabled(t *testing.T) {
	text := strings.Repeat("Short sentence one. Short sentence two. ", 30)

	chunks := Chunk(text, 20, 0, 200, 0)
	for i := 1; i < len(chunks); i++ {
		if !strings.HasPrefix(chunks[i], "Short sentence") {
			t.Errorf("chunk %d unexpectedly carries an overlap prefix: %q", i, chunks[i][:30])
		}
	}
}

func TestChunk_ShortFinalChunkMerged(t *testing.T) {
	// Two sentences: one near max, then a tiny one that must be merged
	// back because it is below min.
	text := strings.Repeat("word ", 50) + "end. Tiny."

	chunks := Chunk(text, 40, 0, 300, 0)
	last := chunks[len(chunks)-1]
	if utf8.RuneCountInString(last) < 40 && len(chunks) > 1 {
		t.Errorf("final chunk of %d runes was not merged", utf8.RuneCountInString(last))
	}
	found := false
	for _, c := range chunks {
		if strings.Contains(c, "Tiny.") {
			found = true
		}
	}
	if !found {
		t.Error("merged text lost the trailing sentence")
	}
}

func TestRepairSpaces(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"dominant:Charisma", "dominant: Charisma"},
		{"MOTIVATIONRole", "MOTIVATION Role"},
		{"standard.Origins", "standard. Origins"},
		{"lowerUpper", "lower Upper"},
		{"already spaced. Fine", "already spaced. Fine"},
	}

	for _, tt := range tests {
		if got := repairSpaces(tt.in); got != tt.want {
			t.Errorf("repairSpaces(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one! Third one? Trailing tail")
	want := []string{"First one.", "Second one!", "Third one?", "Trailing tail"}

	if len(got) != len(want) {
		t.Fatalf("splitSentences() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTrailingWords(t *testing.T) {
	prev := "alpha beta gamma delta"

	got := trailingWords(prev, 11)
	if got != "gamma delta " {
		t.Errorf("trailingWords() = %q, want %q", got, "gamma delta ")
	}

	if got := trailingWords(prev, 0); got != "" {
		t.Errorf("trailingWords(limit=0) = %q, want empty", got)
	}

	// Last word longer than the limit is still taken.
	if got := trailingWords("supercalifragilistic", 5); got != "supercalifragilistic " {
		t.Errorf("trailingWords(long word) = %q", got)
	}
}
