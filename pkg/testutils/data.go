package testutils

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// AnswerSheet renders answers the way a numbered answer sheet reads: "1. ...", "2. ...".
func AnswerSheet(answers ...string) string {
	var b strings.Builder
	for i, answer := range answers {
		fmt.Fprintf(&b, "%d. %s\n", i+1, answer)
	}
	return b.String()
}

// FakeAnswers returns n sentences long enough to survive segmentation. Call gofakeit.Seed
// first for reproducible output.
func FakeAnswers(n int) []string {
	answers := make([]string, n)
	for i := range answers {
		answers[i] = gofakeit.Sentence(12)
	}
	return answers
}
