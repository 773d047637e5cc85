// Package chunker turns extracted document text into bounded, overlapping
// chunks ready for embedding. Chunking is pure and deterministic: the same
// input and parameters always produce the same chunk sequence.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// HardCeiling is the absolute upper bound on chunk length, in runes. It is
// independent of the configured max and protects backends that reject
// oversized single inputs. No chunk ever exceeds it.
const HardCeiling = 1500

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Space-repair heuristics for text extractors that glue words together.
	punctLetterRe = regexp.MustCompile(`([.!?;:,])(\pL)`)
	capsCapRe     = regexp.MustCompile(`(\p{Lu}{2,})(\p{Lu}\p{Ll})`)
	lowerUpperRe  = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)

	// A sentence: a run of non-terminal runes followed by terminal
	// punctuation and any closing quotes/brackets.
	sentenceRe = regexp.MustCompile(`[^.!?…]+[.!?…]+["'”’)\]]*`)
)

// Chunk splits text into chunks of at most max runes (clamped to HardCeiling),
// packing whole sentences greedily and falling back to word splitting for
// sentences that are longer than max on their own. A final chunk shorter than
// min is merged into its predecessor when the merge stays within HardCeiling.
// When overlap is positive, every chunk after the first is prefixed with the
// trailing words of the previous chunk, roughly overlap runes worth, shrunk
// as needed so the ceiling is never exceeded. target, when positive, closes a
// chunk early once the buffer reaches it.
//
// Empty or whitespace-only input yields no chunks.
func Chunk(text string, min, target, max, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	text = repairSpaces(text)
	text = whitespaceRe.ReplaceAllString(text, " ")

	if max <= 0 || max > HardCeiling {
		max = HardCeiling
	}
	if min < 0 {
		min = 0
	}

	chunks := packSentences(splitSentences(text), target, max)
	if len(chunks) == 0 {
		return nil
	}

	// Merge a too-short trailing chunk into its predecessor.
	if n := len(chunks); n > 1 && runeLen(chunks[n-1]) < min {
		if runeLen(chunks[n-2])+1+runeLen(chunks[n-1]) <= HardCeiling {
			chunks[n-2] = chunks[n-2] + " " + chunks[n-1]
			chunks = chunks[:n-1]
		}
	}

	if overlap <= 0 {
		return chunks
	}
	return injectOverlap(chunks, overlap)
}

// splitSentences returns the sentences of text in order. Text without any
// terminal punctuation comes back as a single sentence.
func splitSentences(text string) []string {
	matches := sentenceRe.FindAllString(text, -1)

	var sentences []string
	consumed := 0
	for _, m := range matches {
		consumed += len(m)
		if s := strings.TrimSpace(m); s != "" {
			sentences = append(sentences, s)
		}
	}

	// Trailing text after the last terminal punctuation.
	if consumed < len(text) {
		if s := strings.TrimSpace(text[consumed:]); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// packSentences greedily packs sentences into chunks of at most max runes.
func packSentences(sentences []string, target, max int) []string {
	var chunks []string
	var buf string

	flush := func() {
		if buf != "" {
			chunks = append(chunks, buf)
			buf = ""
		}
	}

	for _, s := range sentences {
		sLen := runeLen(s)

		// A single sentence longer than max cannot be packed: split it
		// on word boundaries on its own.
		if sLen > max {
			flush()
			chunks = append(chunks, splitWords(s, max)...)
			continue
		}

		if buf == "" {
			buf = s
		} else if runeLen(buf)+1+sLen <= max {
			buf += " " + s
		} else {
			flush()
			buf = s
		}

		if target > 0 && runeLen(buf) >= target {
			flush()
		}
	}
	flush()

	return chunks
}

// splitWords splits an oversized sentence into pieces of at most max runes,
// cutting at word boundaries. A single word longer than max is sliced hard.
func splitWords(sentence string, max int) []string {
	words := strings.Fields(sentence)

	var pieces []string
	var buf string

	for _, w := range words {
		wLen := runeLen(w)

		if wLen > max {
			if buf != "" {
				pieces = append(pieces, buf)
				buf = ""
			}
			pieces = append(pieces, sliceRunes(w, max)...)
			continue
		}

		switch {
		case buf == "":
			buf = w
		case runeLen(buf)+1+wLen <= max:
			buf += " " + w
		default:
			pieces = append(pieces, buf)
			buf = w
		}
	}
	if buf != "" {
		pieces = append(pieces, buf)
	}

	return pieces
}

// sliceRunes cuts s into consecutive pieces of at most max runes.
func sliceRunes(s string, max int) []string {
	var pieces []string
	runes := []rune(s)
	for len(runes) > 0 {
		n := max
		if n > len(runes) {
			n = len(runes)
		}
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return pieces
}

// injectOverlap prefixes every chunk after the first with the trailing words
// of the previous (pre-overlap) chunk. The prefix is shrunk, word by word,
// whenever it would push the chunk past HardCeiling.
func injectOverlap(chunks []string, overlap int) []string {
	out := make([]string, len(chunks))
	out[0] = chunks[0]

	for i := 1; i < len(chunks); i++ {
		room := HardCeiling - runeLen(chunks[i]) - 1
		limit := overlap
		if limit > room {
			limit = room
		}

		prefix := trailingWords(chunks[i-1], limit)
		for prefix != "" && runeLen(prefix)+runeLen(chunks[i]) > HardCeiling {
			_, rest, found := strings.Cut(prefix, " ")
			if !found {
				prefix = ""
				break
			}
			prefix = rest
		}

		out[i] = prefix + chunks[i]
	}

	return out
}

// trailingWords walks backward through prev word by word until roughly limit
// runes are accumulated, and returns them joined with a trailing space.
func trailingWords(prev string, limit int) string {
	if limit <= 0 {
		return ""
	}

	words := strings.Fields(prev)
	if len(words) == 0 {
		return ""
	}

	var selected []string
	total := 0

	for i := len(words) - 1; i >= 0; i-- {
		wLen := runeLen(words[i])
		if total > 0 {
			wLen++ // joining space
		}
		// Always take at least the last word; injectOverlap trims
		// against the ceiling if needed.
		if total+wLen > limit && len(selected) > 0 {
			break
		}

		selected = append([]string{words[i]}, selected...)
		total += wLen

		if total >= limit {
			break
		}
	}

	if len(selected) == 0 {
		return ""
	}
	return strings.Join(selected, " ") + " "
}

// repairSpaces re-inserts spaces that PDF/DOCX text extraction commonly
// drops: after sentence punctuation, between an ALL-CAPS run and a
// capitalized word, and between a lowercase and an uppercase letter.
func repairSpaces(text string) string {
	text = punctLetterRe.ReplaceAllString(text, "$1 $2")
	text = capsCapRe.ReplaceAllString(text, "$1 $2")
	text = lowerUpperRe.ReplaceAllString(text, "$1 $2")
	return text
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
