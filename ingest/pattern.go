package ingest

import (
	"regexp"
	"strings"
)

// causalPatterns are tried in order on each clause. A reversed pattern names
// the effect first ("anxiety because of work").
var causalPatterns = []struct {
	separator string
	reversed  bool
	label     string
}{
	{" -> ", false, ""},
	{" => ", false, ""},
	{" leads to ", false, "leads to"},
	{" lead to ", false, "leads to"},
	{" causes ", false, "causes"},
	{" cause ", false, "causes"},
	{" makes me feel ", false, "makes me feel"},
	{" makes me ", false, "makes me"},
	{" make me ", false, "makes me"},
	{" results in ", false, "results in"},
	{" triggers ", false, "triggers"},
	{" because of ", true, "because of"},
	{" because ", true, "because"},
	{" due to ", true, "due to"},
}

// clauseSplit breaks text into sentences and clauses
var clauseSplit = regexp.MustCompile(`[.;!?\n]+|,\s+(?:and|so|but)\s+|\s+and then\s+`)

// PatternProcessor extracts relationships from plain sentences such as
// "work makes me anxious" or "stress -> poor sleep". It is the offline
// stand-in for a language model oracle.
type PatternProcessor struct{}

// NewPatternProcessor creates a new pattern processor
func NewPatternProcessor() *PatternProcessor {
	return &PatternProcessor{}
}

// GetName returns the name of the processor
func (p *PatternProcessor) GetName() string {
	return "Pattern Processor"
}

// ProcessData processes free text. Clauses that match no pattern are skipped.
// A chain like "a -> b -> c" yields two edges.
func (p *PatternProcessor) ProcessData(data []byte) (*Payload, error) {
	b := newBuilder()

	for _, clause := range clauseSplit.Split(string(data), -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}

		for _, pattern := range causalPatterns {
			if indexFold(clause, pattern.separator) < 0 {
				continue
			}
			parts := splitFold(clause, pattern.separator)
			for i := 0; i+1 < len(parts); i++ {
				from, to := concept(parts[i]), concept(parts[i+1])
				if pattern.reversed {
					from, to = to, from
				}
				b.relate(from, to, pattern.label)
			}
			break
		}
	}

	return b.payload(), nil
}

// splitFold splits s around every case-insensitive occurrence of sep
func splitFold(s, sep string) []string {
	var parts []string
	for {
		i := indexFold(s, sep)
		if i < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:i])
		s = s[i+len(sep):]
	}
}

// indexFold returns the byte offset in s of the first occurrence of the ASCII
// string sep, ignoring ASCII case, or -1. Offsets always index s itself.
func indexFold(s, sep string) int {
	for i := 0; i+len(sep) <= len(s); i++ {
		if hasPrefixFold(s[i:], sep) {
			return i
		}
	}
	return -1
}

// hasPrefixFold reports whether s starts with the ASCII string prefix,
// ignoring ASCII case. Multi-byte runes never match an ASCII byte.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := 0; i < len(prefix); i++ {
		if lowerASCII(s[i]) != lowerASCII(prefix[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

var leadingFiller = []string{"i think ", "i feel ", "i guess ", "maybe ", "my ", "the ", "a ", "an "}

// concept trims a clause fragment down to the concept it names
func concept(s string) string {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	for _, f := range leadingFiller {
		if hasPrefixFold(s, f) && len(s) > len(f) {
			s = s[len(f):]
		}
	}
	return strings.TrimSpace(s)
}
