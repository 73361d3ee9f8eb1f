// Package extract scans messages for embeddable side-artifacts: SVG elements
// and fenced code blocks. Extraction is pure and order-preserving; artifacts
// appear in the order their messages appear, so the most recent artifact is
// always the last element.
package extract

import (
	"regexp"
	"strings"

	"github.com/raphaelgruber/chatmem-go/internal/models"
)

var (
	// Non-greedy across newlines; a missing closing tag yields no match.
	// Self-closing elements are matched by the second alternative.
	svgPattern     = regexp.MustCompile(`(?s)<svg[\s>].*?</svg>|<svg\b[^>]*/>`)
	codePattern    = regexp.MustCompile("(?s)```(?:[a-zA-Z0-9_+-]*)\n?(.*?)```")
	fillPattern    = regexp.MustCompile(`fill\s*=\s*["']([^"']+)["']`)
	thinkPattern   = regexp.MustCompile(`(?s)<think>.*?</think>`)
	contextPattern = regexp.MustCompile(`(?s)<context>.*?</context>`)
)

// StripHidden removes <think> and <context> regions from model or user text.
// These regions are sent to (or produced by) the model but are never shown in
// a UI or stored for display.
func StripHidden(text string) string {
	text = thinkPattern.ReplaceAllString(text, "")
	text = contextPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Content holds artifacts extracted from a message list.
type Content struct {
	SVG  []string
	Code []string
}

// Empty reports whether nothing was extracted.
func (c Content) Empty() bool {
	return len(c.SVG) == 0 && len(c.Code) == 0
}

// Extract returns all SVG elements and fenced code blocks found in the
// messages, in chronological order. Messages without artifacts contribute
// nothing; malformed regions are skipped rather than failing.
func Extract(messages []models.Message) Content {
	var out Content
	for i := range messages {
		if messages[i].IsSystemInstruction() {
			continue
		}
		content := messages[i].Content
		out.SVG = append(out.SVG, svgPattern.FindAllString(content, -1)...)
		for _, match := range codePattern.FindAllStringSubmatch(content, -1) {
			out.Code = append(out.Code, strings.TrimRight(match[1], "\n"))
		}
	}
	return out
}

var mockupKeywords = []string{"mockup", "wireframe", "ui design", "interface", "layout"}

// AnalyzeSVG derives display heuristics from an SVG artifact. Advisory only,
// never used for validation.
func AnalyzeSVG(svg string) models.SVGAnalysis {
	lower := strings.ToLower(svg)

	analysis := models.SVGAnalysis{
		HasButtons: strings.Contains(lower, "<rect") && strings.Contains(lower, "<text"),
	}

	seen := make(map[string]bool)
	for _, match := range fillPattern.FindAllStringSubmatch(svg, -1) {
		color := strings.ToLower(match[1])
		if color == "none" || seen[color] {
			continue
		}
		seen[color] = true
		analysis.Colors = append(analysis.Colors, color)
	}

	for _, kw := range mockupKeywords {
		if strings.Contains(lower, kw) {
			analysis.IsMockup = true
			break
		}
	}
	return analysis
}

// TagMessages annotates messages that contain artifacts with advisory content
// type metadata. The slice is modified in place; messages without artifacts
// are left untouched.
func TagMessages(messages []models.Message) {
	for i := range messages {
		// Synthesized context messages quote artifacts; retagging them would
		// make them visible in the UI.
		if messages[i].IsSystemInstruction() {
			continue
		}
		content := messages[i].Content

		if svgs := svgPattern.FindAllString(content, -1); len(svgs) > 0 {
			meta := ensureMetadata(&messages[i])
			meta.ContentType = models.ContentTypeSVG
			// Last match wins for "most recent" queries within one message.
			analysis := AnalyzeSVG(svgs[len(svgs)-1])
			meta.SVGAnalysis = &analysis
			continue
		}
		if codePattern.MatchString(content) {
			meta := ensureMetadata(&messages[i])
			if meta.ContentType == "" {
				meta.ContentType = models.ContentTypeCode
			}
		}
	}
}

func ensureMetadata(msg *models.Message) *models.MessageMetadata {
	if msg.Metadata == nil {
		msg.Metadata = &models.MessageMetadata{}
	}
	return msg.Metadata
}
