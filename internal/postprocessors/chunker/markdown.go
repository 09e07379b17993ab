package chunker

import (
	"regexp"
	"strings"
)

// headerPattern matches a heading line of any level.
var headerPattern = regexp.MustCompile(`^#{1,6}\s+.*$`)

// sentenceEndings are tried in order when cutting an oversized paragraph.
var sentenceEndings = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}

// splitMarkdown segments text at heading lines and chunks each section.
// Content before the first heading forms its own section.
func (p *Processor) splitMarkdown(text string) []Piece {
	var (
		pieces  []Piece
		section []string
		header  string
	)

	flush := func() {
		body := strings.TrimSpace(strings.Join(section, "\n"))
		if body != "" {
			pieces = append(pieces, p.chunkSection(body, header)...)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if headerPattern.MatchString(line) {
			flush()
			header = strings.TrimSpace(line)
			section = []string{line}
			continue
		}
		section = append(section, line)
	}
	flush()

	return pieces
}

// chunkSection emits a section whole when it fits, otherwise packs its
// paragraphs into chunks. Every chunk after the section's first one starts
// with the heading, space permitting.
func (p *Processor) chunkSection(text, header string) []Piece {
	if runeLen(text) <= p.chunkSize {
		return []Piece{{Text: text, Header: header}}
	}

	prefix := ""
	if header != "" {
		prefix = header + "\n\n"
	}
	prefixLen := runeLen(prefix)

	var (
		pieces     []Piece
		current    strings.Builder
		currentLen int
		hasBody    bool
	)

	flush := func() {
		if hasBody {
			pieces = append(pieces, Piece{Text: strings.TrimSpace(current.String()), Header: header})
		}
		current.Reset()
		currentLen = 0
		hasBody = false
	}

	for _, para := range strings.Split(text, "\n\n") {
		paraLen := runeLen(para)

		if currentLen+paraLen+2 > p.chunkSize {
			flush()
			if paraLen > p.chunkSize {
				pieces = append(pieces, p.splitParagraph(para, header)...)
				continue
			}
		}

		if currentLen == 0 && len(pieces) > 0 && prefix != "" && prefixLen+paraLen+2 <= p.chunkSize {
			current.WriteString(prefix)
			currentLen = prefixLen
		}

		current.WriteString(para)
		current.WriteString("\n\n")
		currentLen += paraLen + 2
		if strings.TrimSpace(para) != "" {
			hasBody = true
		}
	}
	flush()

	return pieces
}

// splitParagraph slices an oversized paragraph into overlapping windows,
// cutting after the last sentence ending found in the back half of a window.
// Windows after the first carry the heading prefix. The window that reaches
// the end of the paragraph is the last one.
func (p *Processor) splitParagraph(para, header string) []Piece {
	runes := []rune(para)
	n := len(runes)

	var pieces []Piece
	for start := 0; start < n; {
		prefix := ""
		if header != "" && start > 0 {
			prefix = header + "\n\n"
		}
		window := p.chunkSize - runeLen(prefix)
		if window <= p.overlap {
			prefix = ""
			window = p.chunkSize
		}

		end := min(start+window, n)
		chunk := runes[start:end]
		if end < n {
			if cut := sentenceCut(chunk); cut > 0 {
				chunk = chunk[:cut]
			}
		}

		if text := strings.TrimSpace(prefix + string(chunk)); text != "" {
			pieces = append(pieces, Piece{Text: text, Header: header})
		}
		if end == n {
			break
		}

		advance := len(chunk) - p.overlap
		if advance <= 0 {
			advance = len(chunk)
		}
		start += advance
	}

	return pieces
}

// sentenceCut returns the rune length to keep so that chunk ends on the
// punctuation of a sentence ending lying beyond its midpoint, or 0 if none does.
func sentenceCut(chunk []rune) int {
	s := string(chunk)
	half := float64(len(chunk)) * 0.5

	for _, ending := range sentenceEndings {
		idx := strings.LastIndex(s, ending)
		if idx < 0 {
			continue
		}
		pos := runeLen(s[:idx])
		if float64(pos) > half {
			return pos + 1
		}
	}

	return 0
}
