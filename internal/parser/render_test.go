package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderQuestion_MultipleChoiceRoundTrip(t *testing.T) {
	q := &Question{
		Kind:   MultipleChoice,
		Text:   "What is the capital of Italy?",
		Points: 5,
		Options: []Option{
			{Label: "A", Text: "Milan"},
			{Label: "B", Text: "Rome", IsCorrect: true},
			{Label: "C", Text: "Naples"},
		},
	}

	doc, diags := ParseDocument(RenderQuestion(q))

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, q.Kind, qs[0].Kind)
	assert.Equal(t, q.Text, qs[0].Text)
	assert.Equal(t, q.Points, qs[0].Points)
	assert.Equal(t, q.Options, qs[0].Options)
}

func TestRenderQuestion_MultipleResponseRoundTrip(t *testing.T) {
	q := &Question{
		Kind:   MultipleResponse,
		Text:   "Which are prime?",
		Points: 4,
		Options: []Option{
			{Label: "A", Text: "2", IsCorrect: true},
			{Label: "B", Text: "4"},
			{Label: "C", Text: "7", IsCorrect: true},
		},
	}

	doc, diags := ParseDocument(RenderQuestion(q))

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, q.Options, qs[0].Options)
}

func TestRenderQuestion_NoCorrectOptionRoundTrip(t *testing.T) {
	// A source marker naming letters that match no option yields an
	// accepted question where every option is incorrect. Rendering
	// must still produce a parseable block with the same option set.
	q := &Question{
		Kind:   MultipleChoice,
		Text:   "Which applies?",
		Points: 3,
		Options: []Option{
			{Label: "A", Text: "first"},
			{Label: "B", Text: "second"},
		},
	}

	doc, diags := ParseDocument(RenderQuestion(q))

	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, q.Options, qs[0].Options)
	require.Len(t, diags, 1)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
}

func TestRenderQuestion_OpenEndedRoundTrip(t *testing.T) {
	limit := 250
	q := &Question{
		Kind:      OpenEnded,
		Text:      "Describe the water cycle.",
		Points:    8,
		CharLimit: &limit,
	}

	doc, diags := ParseDocument(RenderQuestion(q))

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, q.Text, qs[0].Text)
	assert.Equal(t, q.Points, qs[0].Points)
	require.NotNil(t, qs[0].CharLimit)
	assert.Equal(t, limit, *qs[0].CharLimit)
}

func TestRenderQuestion_ClozeRoundTrip(t *testing.T) {
	q := &Question{
		Kind:     ClozeTest,
		Text:     "The [1] revolves around the [2].",
		Points:   6,
		WordList: []string{"earth", "sun", "moon"},
		Solution: map[int]string{1: "earth", 2: "sun"},
	}

	doc, diags := ParseDocument(RenderQuestion(q))

	assert.Empty(t, diags)
	qs := doc.Questions()
	require.Len(t, qs, 1)
	assert.Equal(t, q.Text, qs[0].Text)
	assert.Equal(t, q.WordList, qs[0].WordList)
	assert.Equal(t, q.Solution, qs[0].Solution)
}

func TestRenderDocument_InterleavesContent(t *testing.T) {
	input := `Read carefully.

[[DOMANDA_APERTA]]
Explain recursion.
[[PUNTI]] 5`

	doc, diags := ParseDocument(input)
	require.Empty(t, diags)

	rendered := RenderDocument(doc)
	assert.Contains(t, rendered, "Read carefully.")

	redoc, rediags := ParseDocument(rendered)
	assert.Empty(t, rediags)
	require.Len(t, redoc.Questions(), 1)
	assert.Equal(t, "Explain recursion.", redoc.Questions()[0].Text)
}
