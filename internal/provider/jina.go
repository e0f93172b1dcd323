package provider

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/sells-group/trial-research/pkg/jina"
)

// footerWindow bounds the trailing slice of page content treated as footer.
const footerWindow = 600

// copyrightMarker is matched on the original content so offsets stay valid
// for non-ASCII text.
var copyrightMarker = regexp.MustCompile(`©|(?i:copyright)`)

var (
	locationLinkHints = []string{"location", "store"}
	careerLinkHints   = []string{"career", "job", "hiring"}
)

// Jina implements PageProvider with Jina Reader.
type Jina struct {
	client jina.Client
}

// NewJina creates a Jina page provider.
func NewJina(client jina.Client) *Jina {
	return &Jina{client: client}
}

// FetchPageSignals reads pageURL as markdown and takes the footer from the
// tail of the content.
func (j *Jina) FetchPageSignals(ctx context.Context, pageURL string) (*PageSignals, error) {
	resp, err := j.client.Read(ctx, pageURL)
	if err != nil {
		return nil, NewError("jina", OpPage, err)
	}
	if resp == nil {
		return nil, nil
	}

	return &PageSignals{
		Title:        resp.Data.Title,
		URL:          resp.Data.URL,
		Footer:       footerOf(resp.Data.Content),
		LocationsURL: findLink(resp.Data.Links, locationLinkHints),
		CareersURL:   findLink(resp.Data.Links, careerLinkHints),
	}, nil
}

// footerOf returns the content from the last copyright marker on, or the
// trailing window when there is none.
func footerOf(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if marks := copyrightMarker.FindAllStringIndex(content, -1); len(marks) > 0 {
		return strings.TrimSpace(content[marks[len(marks)-1][0]:])
	}

	if len(content) <= footerWindow {
		return content
	}
	tail := content[len(content)-footerWindow:]
	// Step forward to a rune boundary.
	for len(tail) > 0 && tail[0]&0xC0 == 0x80 {
		tail = tail[1:]
	}
	return strings.TrimSpace(tail)
}

// findLink returns the first link URL (in text order) whose URL contains any hint.
func findLink(links map[string]string, hints []string) string {
	if len(links) == 0 {
		return ""
	}
	texts := make([]string, 0, len(links))
	for text := range links {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	for _, text := range texts {
		u := strings.ToLower(links[text])
		for _, h := range hints {
			if strings.Contains(u, h) {
				return links[text]
			}
		}
	}
	return ""
}
