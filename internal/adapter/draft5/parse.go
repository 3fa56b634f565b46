package draft5

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var spaces = regexp.MustCompile(`\s+`)

// ParsePage locates match containers by class-name substrings and pulls the raw
// labels out of each. It never interprets dates or team names.
func ParsePage(doc string, baseURL string, sel config.SelectorsConfig) (page *model.RawPage, err error) {
	defer func() {
		if p := recover(); p != nil {
			page, err = nil, fmt.Errorf("%w: parse panic: %v", model.ErrExtraction, p)
		}
	}()

	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", model.ErrExtraction, err)
	}
	base, _ := url.Parse(baseURL)

	page = &model.RawPage{
		ReferenceDate: firstText(root.Selection, sel.Heading),
	}

	containers := outermost(root.Find(classSelector(sel.Container)), classSelector(sel.Container))
	if containers.Length() == 0 {
		if hasSentinel(root, sel.NoMatches) {
			page.Empty = true
			return page, nil
		}
		return nil, model.ErrNoMatchContainers
	}

	containers.Each(func(_ int, s *goquery.Selection) {
		page.Fragments = append(page.Fragments, parseFragment(s, base, sel))
	})
	return page, nil
}

func parseFragment(s *goquery.Selection, base *url.URL, sel config.SelectorsConfig) model.RawFragment {
	f := model.RawFragment{
		TimeLabel: firstText(s, sel.Time),
		DayLabel:  firstText(s, sel.Day),
		Format:    firstText(s, sel.Format),
		Event:     firstText(s, sel.Event),
		Link:      resolveLink(s, base),
		Text:      spacedText(s),
	}

	teamSel := classSelector(sel.Team)
	seen := make(map[string]struct{})
	outermost(s.Find(teamSel), teamSel).Each(func(_ int, t *goquery.Selection) {
		name := spacedText(t)
		if name == "" {
			return
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			return
		}
		seen[strings.ToLower(name)] = struct{}{}
		f.Teams = append(f.Teams, name)
	})
	return f
}

// resolveLink prefers the container's own href, then the first link inside, then an enclosing link.
func resolveLink(s *goquery.Selection, base *url.URL) string {
	href, ok := s.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		href, ok = s.Find("a[href]").First().Attr("href")
	}
	if !ok || strings.TrimSpace(href) == "" {
		href, ok = s.Closest("a[href]").Attr("href")
	}
	href = strings.TrimSpace(href)
	if !ok || href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String()
}

func hasSentinel(doc *goquery.Document, sentinels []string) bool {
	text := strings.ToLower(spacedText(doc.Find("body")))
	for _, s := range sentinels {
		if s != "" && strings.Contains(text, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// classSelector turns class substrings into a CSS selector list.
func classSelector(subs []string) string {
	parts := make([]string, 0, len(subs))
	for _, s := range subs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`[class*=%q]`, s))
	}
	if len(parts) == 0 {
		return "no-such-element"
	}
	return strings.Join(parts, ", ")
}

// outermost drops elements nested inside another element matching selector.
func outermost(s *goquery.Selection, selector string) *goquery.Selection {
	return s.FilterFunction(func(_ int, el *goquery.Selection) bool {
		return el.ParentsFiltered(selector).Length() == 0
	})
}

func firstText(s *goquery.Selection, subs []string) string {
	if len(subs) == 0 {
		return ""
	}
	return spacedText(s.Find(classSelector(subs)).First())
}

// spacedText joins text nodes with spaces; Selection.Text glues adjacent spans together.
func spacedText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.TrimSpace(spaces.ReplaceAllString(b.String(), " "))
}
