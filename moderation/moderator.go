// Package moderation censors blacklisted words in message text before it
// reaches the channel log.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list. Normalization strips punctuation and maps common leet substitutions
// so "s3cr3t" still matches "secret".
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		normalized, _ := normalize([]rune(word))
		patterns[i] = normalized
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, replacement: replacement}, nil
}

// Censor replaces every match with the replacement rune, preserving the
// original length and spacing, and reports the matched words.
func (m *Moderator) Censor(text string) (string, []string) {
	original := []rune(text)
	normalized, positions := normalize(original)
	if len(normalized) == 0 {
		return text, nil
	}

	spans := m.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return text, nil
	}

	var found []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(positions) {
			continue
		}
		found = append(found, string(span.Word))

		// positions maps normalized indexes back to the original runes
		for i := positions[start]; i <= positions[end-1]; i++ {
			original[i] = m.replacement
		}
	}
	return string(original), found
}

// normalize lowercases, undoes leet substitutions, and drops punctuation
// and whitespace. It returns the normalized runes plus, for each of them,
// the index of the original rune it came from.
func normalize(input []rune) ([]rune, []int) {
	normalized := make([]rune, 0, len(input))
	positions := make([]int, 0, len(input))

	for i, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(r))
		positions = append(positions, i)
	}
	return normalized, positions
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}
