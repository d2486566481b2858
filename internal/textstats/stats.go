// Package textstats computes the reading statistics shown under each
// response.
package textstats

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/jdkato/prose/v2"
)

// CharsPerMinute is the assumed reading speed for mixed Chinese/Latin text.
const CharsPerMinute = 500

type Stats struct {
	Characters  int `json:"characters"`
	Words       int `json:"words"`
	Sentences   int `json:"sentences"`
	ReadMinutes int `json:"readMinutes"`
}

// Compute counts characters over the raw text. Words and sentences are
// counted over the visible text, with any embedded HTML stripped. Each Han
// character counts as a word.
func Compute(text string) (Stats, error) {
	chars := utf8.RuneCountInString(text)
	stats := Stats{
		Characters:  chars,
		ReadMinutes: ReadMinutes(chars),
	}

	visible, err := visibleText(text)
	if err != nil {
		return stats, err
	}
	if strings.TrimSpace(visible) == "" {
		return stats, nil
	}

	doc, err := prose.NewDocument(visible,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return stats, fmt.Errorf("failed to tokenize text: %w", err)
	}

	for _, tok := range doc.Tokens() {
		stats.Words += countWords(tok.Text)
	}
	for _, sent := range doc.Sentences() {
		stats.Sentences += countCJKSentences(sent.Text)
	}

	return stats, nil
}

// ReadMinutes is max(1, round(chars/CharsPerMinute)).
func ReadMinutes(chars int) int {
	return max(1, int(math.Round(float64(chars)/CharsPerMinute)))
}

func visibleText(text string) (string, error) {
	if !strings.ContainsRune(text, '<') {
		return text, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find("script, style").Remove()
	return doc.Text(), nil
}

// countWords counts a token as one word if it carries a letter or digit,
// plus one word per Han character.
func countWords(tok string) int {
	n := 0
	latin := false
	for _, r := range tok {
		switch {
		case unicode.Is(unicode.Han, r):
			n++
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			latin = true
		}
	}
	if latin {
		n++
	}
	return n
}

// countCJKSentences splits a segment further on full-width terminators,
// which the English segmenter does not recognize.
func countCJKSentences(s string) int {
	n := 0
	inSentence := false
	for _, r := range s {
		switch r {
		case '。', '！', '？':
			if inSentence {
				n++
			}
			inSentence = false
		default:
			if !unicode.IsSpace(r) && !unicode.IsPunct(r) {
				inSentence = true
			}
		}
	}
	if inSentence {
		n++
	}
	return n
}
