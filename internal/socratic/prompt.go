// Package socratic builds the prompt for Socratic questioning about a journal
// entry and parses the model's free-form reply into questions and blind spots.
package socratic

import (
	"fmt"
	"strings"
)

// Request is the material the questions are generated about.
type Request struct {
	Content       string   `json:"content"`
	Assumptions   []string `json:"assumptions,omitempty"`
	Uncertainties []string `json:"uncertainties,omitempty"`
	Context       string   `json:"context,omitempty"`
}

// Response holds the parsed questions. BlindSpots is nil when the reply named none.
type Response struct {
	Questions  []string `json:"questions"`
	BlindSpots []string `json:"blindSpots,omitempty"`
}

// SystemPrompt instructs the model how to question the author.
const SystemPrompt = `You are a thoughtful Socratic questioner helping someone examine their thinking more deeply. Your goal is NOT to challenge or debate, but to help them:
1. Surface hidden assumptions they may not have noticed
2. Identify areas of uncertainty
3. Consider perspectives they may have missed
4. Deepen their understanding of their own position

Given the following journal entry, generate 2-3 thought-provoking questions that would help the author think more deeply. The questions should be:
- Genuinely curious, not leading or judgmental
- Focused on understanding, not winning an argument
- Designed to help the author, not to show how smart you are

Also identify 1-2 potential blind spots or unconsidered angles.

IMPORTANT: Be respectful and assume the author has thought carefully about their position. Your questions should open up thinking, not shut it down.`

const closingRequest = "Please generate thoughtful Socratic questions to help me examine my thinking."

// BuildUserMessage renders the request as the user turn of the conversation.
// Empty sections are left out.
func BuildUserMessage(req Request) string {
	var b strings.Builder

	b.WriteString("## Journal Entry:\n")
	b.WriteString(req.Content)
	b.WriteString("\n\n")

	writeList(&b, "Stated Assumptions", req.Assumptions)
	writeList(&b, "Stated Uncertainties", req.Uncertainties)

	if strings.TrimSpace(req.Context) != "" {
		fmt.Fprintf(&b, "## Additional Context:\n%s\n\n", req.Context)
	}

	b.WriteString(closingRequest)
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
