package verify

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// findCommand looks for expected inside the modal container of modalHTML. It
// returns the full command as rendered (the containing pre/code/input, or the
// matching line of visible text) and whether it was found. Text outside the
// container never counts.
func findCommand(modalHTML, expected string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(modalHTML))
	if err != nil {
		return "", false, fmt.Errorf("parse modal html: %w", err)
	}
	doc.Find("script, style, template, noscript").Remove()

	modal := modalContainer(doc)
	if modal == nil {
		return "", false, nil
	}

	var command string
	modal.Find("pre, code, kbd, samp").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := collapseSpace(s.Text()); strings.Contains(text, expected) {
			command = text
			return false
		}
		return true
	})
	if command != "" {
		return command, true, nil
	}

	modal.Find("input, textarea").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		value, _ := s.Attr("value")
		if goquery.NodeName(s) == "textarea" {
			value = s.Text()
		}
		if value = collapseSpace(value); strings.Contains(value, expected) {
			command = value
			return false
		}
		return true
	})
	if command != "" {
		return command, true, nil
	}

	// Innermost element whose text holds the command; descendants follow
	// their ancestors in document order.
	modal.Find("*").Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); strings.Contains(text, expected) {
			command = text
		}
	})
	if command != "" {
		return command, true, nil
	}

	for _, line := range strings.Split(modal.Text(), "\n") {
		if line = collapseSpace(line); strings.Contains(line, expected) {
			return line, true, nil
		}
	}
	return "", false, nil
}

// modalContainer returns the innermost element holding both the modal
// landmark and the debug control, or nil.
func modalContainer(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if !strings.Contains(collapseSpace(s.Text()), ModalLandmark) {
			return
		}
		debug := s.Find("button, a").FilterFunction(func(_ int, c *goquery.Selection) bool {
			return strings.Contains(collapseSpace(c.Text()), DebugLabel)
		})
		if debug.Length() == 0 {
			return
		}
		// Document order visits ancestors first.
		if found == nil || found.Contains(s.Get(0)) {
			found = s
		}
	})
	return found
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
