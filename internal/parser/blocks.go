package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Inline marker literals.
const (
	MarkerPoints          = "[[PUNTI]]"
	MarkerCorrectAnswer   = "[[RISPOSTA_CORRETTA]]"
	MarkerCorrectAnswers  = "[[RISPOSTE_CORRETTE]]"
	MarkerCharLimit       = "[[LIMITE_CARATTERI]]"
	MarkerClozePassage    = "[[TESTO]]"
	MarkerClozeWordList   = "[[ELENCO_PAROLE]]"
	MarkerClozeSolution   = "[[SOLUZIONE]]"
)

var (
	pointsRe         = regexp.MustCompile(`\[\[PUNTI\]\]\s*(\d+)`)
	optionLineRe     = regexp.MustCompile(`^\s*\*\s*([A-Z])\)\s*(.*)`)
	correctSingleRe  = regexp.MustCompile(`\[\[RISPOSTA_CORRETTA\]\]\s*([A-Z,\s]+)`)
	correctMultiRe   = regexp.MustCompile(`\[\[RISPOSTE_CORRETTE\]\]\s*([A-Z,\s]+)`)
	charLimitRe      = regexp.MustCompile(`\[\[LIMITE_CARATTERI\]\]\s*(\d+)`)
	clozePassageRe   = regexp.MustCompile(`(?s)\[\[TESTO\]\]\s*(.*?)\s*\[\[ELENCO_PAROLE\]\]`)
	clozeWordListRe  = regexp.MustCompile(`(?s)\[\[ELENCO_PAROLE\]\]\s*(.*?)\s*\[\[SOLUZIONE\]\]`)
	clozeSolutionRe  = regexp.MustCompile(`(?s)\[\[SOLUZIONE\]\]\s*(.*)`)
	solutionLineRe   = regexp.MustCompile(`^\s*(\d+):\s*(.*)`)
)

// blockResult is what a block parser hands back: either a question
// (possibly with warnings), or a rejection reason.
type blockResult struct {
	question *Question
	warnings []string
	reason   string
}

func reject(format string, args ...any) blockResult {
	return blockResult{reason: fmt.Sprintf(format, args...)}
}

// parseBlock dispatches on the opening tag literal.
func parseBlock(tag, body string) blockResult {
	switch tag {
	case TagMultipleChoice:
		return parseChoice(body, false)
	case TagMultipleResponse:
		return parseChoice(body, true)
	case TagOpenEnded:
		return parseOpenEnded(body)
	case TagClozeTest:
		return parseCloze(body)
	default:
		return reject("unknown question tag %q", tag)
	}
}

// questionText extracts the question text: the first line of the
// trimmed block, unless that line is itself a metadata marker.
func questionText(body string) string {
	line := strings.TrimSpace(body)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "[[") {
		return ""
	}
	return line
}

// points extracts the [[PUNTI]] value; absence is not an error.
func points(body string) int {
	if m := pointsRe.FindStringSubmatch(body); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func parseChoice(body string, multi bool) blockResult {
	kind := MultipleChoice
	correctRe := correctSingleRe
	if multi {
		kind = MultipleResponse
		correctRe = correctMultiRe
	}

	q := &Question{
		Kind:   kind,
		Text:   questionText(body),
		Points: points(body),
	}

	var warnings []string

	// Options: lines of the form "* A) text". A duplicate label keeps
	// the first position but the later text wins, matching the legacy
	// parser.
	index := make(map[string]int)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		m := optionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label, text := m[1], strings.TrimSpace(m[2])
		if at, ok := index[label]; ok {
			warnings = append(warnings, fmt.Sprintf("duplicate option label %s", label))
			q.Options[at].Text = text
			continue
		}
		index[label] = len(q.Options)
		q.Options = append(q.Options, Option{Label: label, Text: text})
	}
	if len(q.Options) == 0 {
		return reject("no options found")
	}

	m := correctRe.FindStringSubmatch(body)
	if m == nil {
		return reject("no correct answer marker found")
	}
	var letters []string
	for _, l := range strings.Split(m[1], ",") {
		if l = strings.TrimSpace(l); l != "" {
			letters = append(letters, l)
		}
	}
	if len(letters) == 0 {
		return reject("correct answer marker lists no letters")
	}

	correct := make(map[string]bool, len(letters))
	for _, l := range letters {
		correct[l] = true
	}
	matched := 0
	for i := range q.Options {
		if correct[q.Options[i].Label] {
			q.Options[i].IsCorrect = true
			matched++
		}
	}
	if matched < len(correct) {
		var unmatched []string
		for _, l := range letters {
			if _, ok := index[l]; !ok {
				unmatched = append(unmatched, l)
			}
		}
		warnings = append(warnings, fmt.Sprintf("correct answer letters %s match no option", strings.Join(unmatched, ", ")))
	}

	return blockResult{question: q, warnings: warnings}
}

func parseOpenEnded(body string) blockResult {
	q := &Question{
		Kind:   OpenEnded,
		Text:   questionText(body),
		Points: points(body),
	}
	if q.Text == "" {
		return reject("question text is empty")
	}
	if m := charLimitRe.FindStringSubmatch(body); m != nil {
		n, _ := strconv.Atoi(m[1])
		q.CharLimit = &n
	}
	return blockResult{question: q}
}

func parseCloze(body string) blockResult {
	q := &Question{
		Kind:   ClozeTest,
		Points: points(body),
	}

	if m := clozePassageRe.FindStringSubmatch(body); m != nil {
		q.Text = strings.TrimSpace(m[1])
	}
	if q.Text == "" {
		return reject("cloze passage is empty")
	}

	if m := clozeWordListRe.FindStringSubmatch(body); m != nil {
		for _, w := range strings.Split(strings.TrimSpace(m[1]), ",") {
			if w = strings.TrimSpace(w); w != "" {
				q.WordList = append(q.WordList, w)
			}
		}
	}
	if len(q.WordList) == 0 {
		return reject("word list is empty")
	}

	q.Solution = make(map[int]string)
	if m := clozeSolutionRe.FindStringSubmatch(body); m != nil {
		for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
			lm := solutionLineRe.FindStringSubmatch(line)
			if lm == nil {
				continue
			}
			n, _ := strconv.Atoi(lm[1])
			q.Solution[n] = strings.TrimSpace(lm[2])
		}
	}
	if len(q.Solution) == 0 {
		return reject("solution is empty")
	}
	if err := checkSolutionNumbering(q.Solution); err != "" {
		return reject("%s", err)
	}

	return blockResult{question: q}
}

// checkSolutionNumbering enforces that solution keys are exactly 1..N.
func checkSolutionNumbering(solution map[int]string) string {
	keys := make([]int, 0, len(solution))
	for k := range solution {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for i, k := range keys {
		if k != i+1 {
			return fmt.Sprintf("solution numbering is not contiguous from 1 (got blank %d)", k)
		}
	}
	return ""
}
