// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"net/url"
	"strings"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// arxivHost is the marker every accepted address must contain.
const arxivHost = "arxiv.org"

// arxivPDFBase is the download endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// PDFURL validates an arXiv address and returns its direct-download form.
// "/abs/<id>" becomes "/pdf/<id>.pdf"; "/pdf/<id>" gains a ".pdf" suffix
// when missing. Anything not on arxiv.org fails with InvalidInput before
// any network activity.
func PDFURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, arxivHost) {
		return "", types.Errorf(types.InvalidInput, "resolve", "invalid URL %q, please enter a valid arxiv.org URL", raw)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Accept scheme-less input such as "arxiv.org/abs/1234.5678".
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", types.Errorf(types.InvalidInput, "resolve", "parsing %q: %w", raw, err)
		}
	}
	if host := strings.ToLower(u.Hostname()); host != arxivHost && !strings.HasSuffix(host, "."+arxivHost) {
		return "", types.Errorf(types.InvalidInput, "resolve", "host %q is not arxiv.org", u.Hostname())
	}

	path := strings.TrimSuffix(u.Path, "/")
	var id string
	switch {
	case strings.HasPrefix(path, "/abs/"):
		id = strings.TrimPrefix(path, "/abs/")
	case strings.HasPrefix(path, "/pdf/"):
		id = strings.TrimPrefix(path, "/pdf/")
	default:
		return "", types.Errorf(types.InvalidInput, "resolve", "%q is neither an abstract nor a PDF address", raw)
	}
	id = strings.TrimSuffix(id, ".pdf")
	if id == "" {
		return "", types.Errorf(types.InvalidInput, "resolve", "%q has no paper identifier", raw)
	}

	return arxivPDFBase + id + ".pdf", nil
}

// PaperID returns the identifier part of an arXiv address ("1234.5678"),
// or "" when the address is not valid.
func PaperID(raw string) string {
	pdf, err := PDFURL(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(pdf, arxivPDFBase), ".pdf")
}
