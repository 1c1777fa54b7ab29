package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_MultipleChoice(t *testing.T) {
	input := `[[DOMANDA]]
What is the capital of Italy?
* A) Milan
* B) Rome
* C) Naples
[[RISPOSTA_CORRETTA]] B
[[PUNTI]] 5`

	doc, diags := ParseDocument(input)

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)

	q := qs[0]
	assert.Equal(t, MultipleChoice, q.Kind)
	assert.Equal(t, "What is the capital of Italy?", q.Text)
	assert.Equal(t, 5, q.Points)
	assert.Equal(t, 1, q.Order)
	require.Len(t, q.Options, 3)
	assert.Equal(t, "Milan", q.Options[0].Text)
	assert.False(t, q.Options[0].IsCorrect)
	assert.Equal(t, "Rome", q.Options[1].Text)
	assert.True(t, q.Options[1].IsCorrect)
	assert.False(t, q.Options[2].IsCorrect)
}

func TestParseDocument_MultipleResponse(t *testing.T) {
	input := `[[DOMANDA_MULTI-RISPOSTA]]
Which of these are prime numbers?
* A) 2
* B) 4
* C) 7
* D) 9
[[RISPOSTE_CORRETTE]] A, C
[[PUNTI]] 4`

	doc, diags := ParseDocument(input)

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)

	q := qs[0]
	assert.Equal(t, MultipleResponse, q.Kind)
	assert.True(t, q.Options[0].IsCorrect)
	assert.False(t, q.Options[1].IsCorrect)
	assert.True(t, q.Options[2].IsCorrect)
	assert.False(t, q.Options[3].IsCorrect)
}

func TestParseDocument_OpenEnded(t *testing.T) {
	input := `[[DOMANDA_APERTA]]
Explain photosynthesis in your own words.
[[PUNTI]] 10
[[LIMITE_CARATTERI]] 500`

	doc, diags := ParseDocument(input)

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)

	q := qs[0]
	assert.Equal(t, OpenEnded, q.Kind)
	assert.Equal(t, "Explain photosynthesis in your own words.", q.Text)
	assert.Equal(t, 10, q.Points)
	require.NotNil(t, q.CharLimit)
	assert.Equal(t, 500, *q.CharLimit)
}

func TestParseDocument_OpenEndedWithoutCharLimit(t *testing.T) {
	doc, diags := ParseDocument("[[DOMANDA_APERTA]]\nDescribe your weekend.\n[[PUNTI]] 3")

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Nil(t, qs[0].CharLimit)
}

func TestParseDocument_ClozeTest(t *testing.T) {
	input := `[[COMPLETAMENTO_TESTO]]
[[PUNTI]] 6
[[TESTO]]
The [1] revolves around the [2].
[[ELENCO_PAROLE]]
earth, sun, moon
[[SOLUZIONE]]
1: earth
2: sun`

	doc, diags := ParseDocument(input)

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)

	q := qs[0]
	assert.Equal(t, ClozeTest, q.Kind)
	assert.Equal(t, "The [1] revolves around the [2].", q.Text)
	assert.Equal(t, 6, q.Points)
	assert.Equal(t, []string{"earth", "sun", "moon"}, q.WordList)
	assert.Equal(t, map[int]string{1: "earth", 2: "sun"}, q.Solution)
}

func TestParseDocument_MissingPointsDefaultsToZero(t *testing.T) {
	doc, diags := ParseDocument("[[DOMANDA]]\nPick one.\n* A) yes\n* B) no\n[[RISPOSTA_CORRETTA]] A")

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, 0, qs[0].Points)
}

func TestParseDocument_ContentInterleaving(t *testing.T) {
	input := `Read the following chapter before answering.

[[DOMANDA]]
Pick one.
* A) yes
* B) no
[[RISPOSTA_CORRETTA]] A
[[PUNTI]] 1`

	doc, diags := ParseDocument(input)

	assert.Empty(t, diags)
	require.Len(t, doc.Elements, 2)
	assert.Equal(t, ElementContent, doc.Elements[0].Type)
	assert.Equal(t, "Read the following chapter before answering.", doc.Elements[0].Text)
	assert.Equal(t, ElementQuestion, doc.Elements[1].Type)
}

func TestParseDocument_RejectedBlockIsDroppedAndReported(t *testing.T) {
	input := `[[DOMANDA]]
No options at all here.
[[RISPOSTA_CORRETTA]] A
[[PUNTI]] 2

[[DOMANDA_APERTA]]
A valid open question.
[[PUNTI]] 3`

	doc, diags := ParseDocument(input)

	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, OpenEnded, qs[0].Kind)

	require.Len(t, diags, 1)
	assert.Equal(t, 0, diags[0].BlockIndex)
	assert.Equal(t, TagMultipleChoice, diags[0].Tag)
	assert.Equal(t, SeverityError, diags[0].Severity)
	assert.Equal(t, "no options found", diags[0].Reason)
}

func TestParseDocument_OrderSkipsRejectedBlocks(t *testing.T) {
	input := `[[DOMANDA_APERTA]]
First valid question.
[[PUNTI]] 1

[[DOMANDA]]
Broken block with no options.
[[RISPOSTA_CORRETTA]] A

[[DOMANDA_APERTA]]
Second valid question.
[[PUNTI]] 2`

	doc, diags := ParseDocument(input)

	qs := doc.Questions()
	require.Len(t, qs, 2)
	assert.Equal(t, 1, qs[0].Order)
	assert.Equal(t, 2, qs[1].Order)

	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].BlockIndex)
}

func TestParseDocument_ChoiceRejections(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{
			name:   "no options",
			input:  "[[DOMANDA]]\nText only.\n[[RISPOSTA_CORRETTA]] A",
			reason: "no options found",
		},
		{
			name:   "no correct marker",
			input:  "[[DOMANDA]]\nPick.\n* A) yes\n* B) no",
			reason: "no correct answer marker found",
		},
		{
			name:   "wrong marker for kind",
			input:  "[[DOMANDA]]\nPick.\n* A) yes\n[[RISPOSTE_CORRETTE]] A",
			reason: "no correct answer marker found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, diags := ParseDocument(tt.input)
			assert.Empty(t, doc.Questions())
			require.Len(t, diags, 1)
			assert.Equal(t, SeverityError, diags[0].Severity)
			assert.Equal(t, tt.reason, diags[0].Reason)
		})
	}
}

func TestParseDocument_UnmatchedCorrectLetterWarns(t *testing.T) {
	input := `[[DOMANDA]]
Pick one.
* A) yes
* B) no
[[RISPOSTA_CORRETTA]] Z
[[PUNTI]] 2`

	doc, diags := ParseDocument(input)

	// The question is kept; the stray letter only warns.
	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.False(t, qs[0].Options[0].IsCorrect)
	assert.False(t, qs[0].Options[1].IsCorrect)

	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Reason, "Z")
}

func TestParseDocument_DuplicateOptionLabel(t *testing.T) {
	input := `[[DOMANDA]]
Pick one.
* A) first text
* A) second text
* B) other
[[RISPOSTA_CORRETTA]] A
[[PUNTI]] 1`

	doc, diags := ParseDocument(input)

	qs := doc.Questions()
	require.Len(t, qs, 1)
	require.Len(t, qs[0].Options, 2)
	// First position wins, later text wins.
	assert.Equal(t, "A", qs[0].Options[0].Label)
	assert.Equal(t, "second text", qs[0].Options[0].Text)
	assert.True(t, qs[0].Options[0].IsCorrect)

	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Reason, "duplicate option label A")
}

func TestParseDocument_OpenEndedRejectsEmptyText(t *testing.T) {
	doc, diags := ParseDocument("[[DOMANDA_APERTA]]\n[[PUNTI]] 5")

	assert.Empty(t, doc.Questions())
	require.Len(t, diags, 1)
	assert.Equal(t, "question text is empty", diags[0].Reason)
}

func TestParseDocument_ClozeRejections(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{
			name:   "missing passage",
			input:  "[[COMPLETAMENTO_TESTO]]\n[[ELENCO_PAROLE]]\na, b\n[[SOLUZIONE]]\n1: a",
			reason: "cloze passage is empty",
		},
		{
			name:   "empty word list",
			input:  "[[COMPLETAMENTO_TESTO]]\n[[TESTO]]\nFill [1].\n[[ELENCO_PAROLE]]\n[[SOLUZIONE]]\n1: a",
			reason: "word list is empty",
		},
		{
			name:   "missing solution",
			input:  "[[COMPLETAMENTO_TESTO]]\n[[TESTO]]\nFill [1].\n[[ELENCO_PAROLE]]\na, b\n[[SOLUZIONE]]",
			reason: "solution is empty",
		},
		{
			name:   "non-contiguous numbering",
			input:  "[[COMPLETAMENTO_TESTO]]\n[[TESTO]]\nFill [1] and [3].\n[[ELENCO_PAROLE]]\na, b\n[[SOLUZIONE]]\n1: a\n3: b",
			reason: "solution numbering is not contiguous from 1 (got blank 3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, diags := ParseDocument(tt.input)
			assert.Empty(t, doc.Questions())
			require.Len(t, diags, 1)
			assert.Equal(t, tt.reason, diags[0].Reason)
		})
	}
}

func TestParseDocument_MixedDocument(t *testing.T) {
	input := `Welcome to the unit test on fractions.

[[DOMANDA]]
What is 1/2 + 1/4?
* A) 3/4
* B) 2/6
[[RISPOSTA_CORRETTA]] A
[[PUNTI]] 2

[[DOMANDA_MULTI-RISPOSTA]]
Which are equivalent to 1/2?
* A) 2/4
* B) 3/5
* C) 4/8
[[RISPOSTE_CORRETTE]] A, C
[[PUNTI]] 4

[[DOMANDA_APERTA]]
Explain how to add fractions with different denominators.
[[PUNTI]] 6
[[LIMITE_CARATTERI]] 300

[[COMPLETAMENTO_TESTO]]
[[PUNTI]] 3
[[TESTO]]
To add fractions you need a common [1], then you add the [2].
[[ELENCO_PAROLE]]
denominator, numerators, factors
[[SOLUZIONE]]
1: denominator
2: numerators`

	doc, diags := ParseDocument(input)

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 4)
	assert.Equal(t, MultipleChoice, qs[0].Kind)
	assert.Equal(t, MultipleResponse, qs[1].Kind)
	assert.Equal(t, OpenEnded, qs[2].Kind)
	assert.Equal(t, ClozeTest, qs[3].Kind)
	for i, q := range qs {
		assert.Equal(t, i+1, q.Order)
	}

	// The narrative preamble is preserved as content.
	assert.Equal(t, ElementContent, doc.Elements[0].Type)
}
