package fingerprint

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// invisible lists elements whose content never renders as page text.
const invisible = "script, style, noscript, template, iframe, svg"

// VisibleText extracts the whitespace-collapsed text of an HTML document.
// When selector is non-empty only matching nodes contribute, joined by a
// newline; no match yields ErrNoMatch.
func VisibleText(body []byte, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	doc.Find(invisible).Remove()

	if selector == "" {
		return collapse(doc.Text()), nil
	}

	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %q", ErrNoMatch, selector)
	}

	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, collapse(s.Text()))
	})
	return strings.Join(parts, "\n"), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
