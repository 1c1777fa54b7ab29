package parser

import (
	"fmt"
	"sort"
	"strings"
)

// RenderQuestion regenerates authoring-language text for a parsed
// question. The output is not byte-identical to the source the
// question came from, but re-parsing it yields a structurally equal
// question.
func RenderQuestion(q *Question) string {
	var b strings.Builder

	switch q.Kind {
	case MultipleChoice, MultipleResponse:
		if q.Kind == MultipleChoice {
			b.WriteString(TagMultipleChoice)
		} else {
			b.WriteString(TagMultipleResponse)
		}
		b.WriteString("\n")
		b.WriteString(q.Text)
		b.WriteString("\n")
		var correct []string
		for _, opt := range q.Options {
			fmt.Fprintf(&b, "* %s) %s\n", opt.Label, opt.Text)
			if opt.IsCorrect {
				correct = append(correct, opt.Label)
			}
		}
		if len(correct) == 0 {
			// A question can carry no correct option when the source
			// marker named letters matching nothing. The marker must
			// still list a letter or re-parsing would reject the
			// block, so emit one no option uses.
			correct = append(correct, unusedLabel(q.Options))
		}
		if q.Kind == MultipleChoice {
			fmt.Fprintf(&b, "%s %s\n", MarkerCorrectAnswer, strings.Join(correct, ", "))
		} else {
			fmt.Fprintf(&b, "%s %s\n", MarkerCorrectAnswers, strings.Join(correct, ", "))
		}
		fmt.Fprintf(&b, "%s %d\n", MarkerPoints, q.Points)

	case OpenEnded:
		b.WriteString(TagOpenEnded)
		b.WriteString("\n")
		b.WriteString(q.Text)
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %d\n", MarkerPoints, q.Points)
		if q.CharLimit != nil {
			fmt.Fprintf(&b, "%s %d\n", MarkerCharLimit, *q.CharLimit)
		}

	case ClozeTest:
		b.WriteString(TagClozeTest)
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s %d\n", MarkerPoints, q.Points)
		fmt.Fprintf(&b, "%s\n%s\n", MarkerClozePassage, q.Text)
		fmt.Fprintf(&b, "%s\n%s\n", MarkerClozeWordList, strings.Join(q.WordList, ", "))
		b.WriteString(MarkerClozeSolution)
		b.WriteString("\n")
		blanks := make([]int, 0, len(q.Solution))
		for n := range q.Solution {
			blanks = append(blanks, n)
		}
		sort.Ints(blanks)
		for _, n := range blanks {
			fmt.Fprintf(&b, "%d: %s\n", n, q.Solution[n])
		}
	}

	return b.String()
}

// unusedLabel returns a letter carried by none of the options. With a
// full A-Z option set no such letter exists; Z is returned as the
// least disruptive stand-in.
func unusedLabel(options []Option) string {
	used := make(map[string]bool, len(options))
	for _, opt := range options {
		used[opt.Label] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		if label := string(c); !used[label] {
			return label
		}
	}
	return "Z"
}

// RenderDocument regenerates a full exercise text from a document,
// interleaving content segments and question blocks in order.
func RenderDocument(d *Document) string {
	parts := make([]string, 0, len(d.Elements))
	for _, el := range d.Elements {
		if el.Type == ElementContent {
			parts = append(parts, el.Text)
			continue
		}
		parts = append(parts, RenderQuestion(el.Question))
	}
	return strings.Join(parts, "\n\n")
}
