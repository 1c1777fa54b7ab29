package parser

import "strings"

// Opening tag literals. Matching is literal and case-sensitive; a tag
// appearing mid-block is not re-interpreted because the scanner walks
// the input once, left to right.
const (
	TagMultipleChoice   = "[[DOMANDA]]"
	TagMultipleResponse = "[[DOMANDA_MULTI-RISPOSTA]]"
	TagOpenEnded        = "[[DOMANDA_APERTA]]"
	TagClozeTest        = "[[COMPLETAMENTO_TESTO]]"
)

var openingTags = []string{
	TagMultipleChoice,
	TagMultipleResponse,
	TagOpenEnded,
	TagClozeTest,
}

// Segment is one span of the input. Tag is empty for a content
// segment (Body already trimmed and non-empty); for a question block,
// Tag is the opening literal and Body the block text with the tag
// stripped, running up to the next tag or end of input. Start is the
// byte offset of the span in the original input.
type Segment struct {
	Tag   string
	Body  string
	Start int
}

// Scan splits raw exercise text into content segments and question
// blocks. It never fails: text that belongs to no question block is
// content, and all semantic validation is left to the block parsers.
func Scan(input string) []Segment {
	var segs []Segment

	pos := 0
	for pos < len(input) {
		tag, at := nextTag(input, pos)
		if at < 0 {
			appendContent(&segs, input[pos:], pos)
			break
		}
		if at > pos {
			appendContent(&segs, input[pos:at], pos)
		}

		bodyStart := at + len(tag)
		_, next := nextTag(input, bodyStart)
		if next < 0 {
			next = len(input)
		}
		segs = append(segs, Segment{Tag: tag, Body: input[bodyStart:next], Start: at})
		pos = next
	}

	return segs
}

// nextTag returns the earliest opening tag at or after from, with its
// byte offset, or ("", -1) when none remains.
func nextTag(input string, from int) (string, int) {
	best := -1
	var bestTag string
	for _, tag := range openingTags {
		if i := strings.Index(input[from:], tag); i >= 0 {
			abs := from + i
			if best < 0 || abs < best {
				best = abs
				bestTag = tag
			}
		}
	}
	if best < 0 {
		return "", -1
	}
	return bestTag, best
}

func appendContent(segs *[]Segment, text string, start int) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	*segs = append(*segs, Segment{Body: trimmed, Start: start})
}
