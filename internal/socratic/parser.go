package socratic

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxQuestions         = 4
	maxBlindSpots        = 2
	maxFallbackQuestions = 3

	// Unmarked items in a question section shorter than this are taken to be
	// labels rather than questions.
	minUnmarkedQuestionLen = 10
)

var (
	numberedLine     = regexp.MustCompile(`^\d+\.`)
	listItem         = regexp.MustCompile(`^(?:\d+\.|[-•*])\s*(.+)`)
	questionSentence = regexp.MustCompile(`[^.!?]*\?`)
)

type section int

const (
	sectionNone section = iota
	sectionQuestions
	sectionBlindSpots
)

// ParseResponse extracts questions and blind spots from the model's reply.
//
// The reply is read line by line. Headings mentioning "question" (or any
// numbered line) open the question section; "blind spot" or "unconsidered"
// open the blind spot section. Numbered and bulleted items ending in "?" are
// questions wherever they appear. Other items count as blind spots or
// questions depending on the current section. When no question is found, the
// first few sentences ending in "?" anywhere in the reply are used instead.
func ParseResponse(text string) Response {
	var questions, blindSpots []string
	current := sectionNone

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)

		if strings.Contains(lower, "question") || numberedLine.MatchString(trimmed) {
			current = sectionQuestions
		}
		if strings.Contains(lower, "blind spot") || strings.Contains(lower, "unconsidered") {
			current = sectionBlindSpots
		}

		match := listItem.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		item := strings.TrimSpace(match[1])
		switch {
		case strings.HasSuffix(item, "?"):
			questions = append(questions, item)
		case current == sectionBlindSpots:
			blindSpots = append(blindSpots, item)
		case current == sectionQuestions && utf8.RuneCountInString(item) > minUnmarkedQuestionLen:
			questions = append(questions, item)
		}
	}

	if len(questions) == 0 {
		for _, q := range questionSentence.FindAllString(text, maxFallbackQuestions) {
			questions = append(questions, strings.TrimSpace(q))
		}
	}

	resp := Response{Questions: truncate(questions, maxQuestions)}
	if len(blindSpots) > 0 {
		resp.BlindSpots = truncate(blindSpots, maxBlindSpots)
	}
	if resp.Questions == nil {
		resp.Questions = []string{}
	}
	return resp
}

func truncate(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
