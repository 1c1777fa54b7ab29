package parser

// QuestionKind identifies one of the four authorable question types.
type QuestionKind string

const (
	MultipleChoice   QuestionKind = "multiple_choice"
	MultipleResponse QuestionKind = "multiple_response"
	OpenEnded        QuestionKind = "open_ended"
	ClozeTest        QuestionKind = "cloze_test"
)

// ElementType distinguishes narrative content from parsed questions.
type ElementType string

const (
	ElementContent  ElementType = "content"
	ElementQuestion ElementType = "question"
)

// Option is a single answer option of a choice question. The label is
// only meaningful at parse time; persistence composes it back into the
// option text.
type Option struct {
	Label     string `json:"label"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is the parse result for one question block.
type Question struct {
	Kind   QuestionKind `json:"kind"`
	Text   string       `json:"text"`
	Points int          `json:"points"`
	Order  int          `json:"order"`

	// Choice kinds
	Options []Option `json:"options,omitempty"`

	// Open-ended
	CharLimit *int `json:"char_limit,omitempty"`

	// Cloze test
	WordList []string       `json:"word_list,omitempty"`
	Solution map[int]string `json:"solution,omitempty"`
}

// Element is one entry of a parsed document: either a content segment
// or a question, in source order.
type Element struct {
	Type     ElementType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Question *Question   `json:"question,omitempty"`
}

// Document is the ordered parse result of one exercise text.
type Document struct {
	Elements []Element `json:"elements"`
}

// Questions returns the accepted questions in order.
func (d *Document) Questions() []*Question {
	var qs []*Question
	for i := range d.Elements {
		if d.Elements[i].Type == ElementQuestion {
			qs = append(qs, d.Elements[i].Question)
		}
	}
	return qs
}

// Severity of a parse diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic describes why a question block was rejected (error) or
// accepted with a suspicious construct (warning). BlockIndex counts
// question blocks in source order starting at 0, including rejected
// ones, so authors can locate the offending block.
type Diagnostic struct {
	BlockIndex int      `json:"block_index"`
	Tag        string   `json:"tag"`
	Severity   Severity `json:"severity"`
	Reason     string   `json:"reason"`
}

// ParseDocument scans raw exercise text and parses every question
// block. Malformed blocks are dropped and reported as diagnostics;
// parsing always proceeds to the end of the input. Question order is
// assigned sequentially starting at 1, counting accepted questions
// only.
func ParseDocument(input string) (*Document, []Diagnostic) {
	doc := &Document{}
	var diags []Diagnostic

	order := 1
	blockIndex := -1
	for _, seg := range Scan(input) {
		if seg.Tag == "" {
			doc.Elements = append(doc.Elements, Element{Type: ElementContent, Text: seg.Body})
			continue
		}

		blockIndex++
		res := parseBlock(seg.Tag, seg.Body)
		for _, w := range res.warnings {
			diags = append(diags, Diagnostic{
				BlockIndex: blockIndex,
				Tag:        seg.Tag,
				Severity:   SeverityWarning,
				Reason:     w,
			})
		}
		if res.reason != "" {
			diags = append(diags, Diagnostic{
				BlockIndex: blockIndex,
				Tag:        seg.Tag,
				Severity:   SeverityError,
				Reason:     res.reason,
			})
			continue
		}

		res.question.Order = order
		order++
		doc.Elements = append(doc.Elements, Element{Type: ElementQuestion, Question: res.question})
	}

	return doc, diags
}
