package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"github.com/umputun/livefeed/pkg/domain"
)

// Parser turns RSS 2.0, RSS 1.0 and Atom markup into articles.
// It never fails: undecodable input gives an empty result.
type Parser struct {
	maxItems       int
	maxDescription int
	sanitizer      *bluemonday.Policy // nil keeps markup as is
	lenient        *gofeed.Parser
	now            func() time.Time
}

// ParserConfig holds parser limits
type ParserConfig struct {
	MaxItems       int  // items taken from a single document
	MaxDescription int  // description limit in characters, longer ones get an ellipsis
	StripHTML      bool // reduce descriptions to plain text
}

// NewParser makes a parser, zero limits fall back to 10 items and 500 characters
func NewParser(cfg ParserConfig) *Parser {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10
	}
	if cfg.MaxDescription <= 0 {
		cfg.MaxDescription = 500
	}
	p := &Parser{
		maxItems:       cfg.MaxItems,
		maxDescription: cfg.MaxDescription,
		lenient:        gofeed.NewParser(),
		now:            time.Now,
	}
	if cfg.StripHTML {
		p.sanitizer = bluemonday.StrictPolicy()
	}
	return p
}

// entry is the raw field set of one feed item before normalization
type entry struct {
	title, description, link, published string
}

var errNoTitle = errors.New("item has no title")

// Parse extracts up to maxItems articles from raw feed markup on behalf of src.
// Items without a title are dropped. Malformed markup yields an empty slice.
func (p *Parser) Parse(raw []byte, src domain.SourceConfig) []*domain.Article {
	entries, err := p.strictEntries(raw)
	if err != nil {
		lgr.Printf("[DEBUG] strict parse of %s failed, trying lenient parser: %v", src.Name(), err)
		if entries, err = p.lenientEntries(raw); err != nil {
			lgr.Printf("[WARN] can't parse feed %s: %v", src.Name(), err)
			return []*domain.Article{}
		}
	}

	if len(entries) > p.maxItems {
		entries = entries[:p.maxItems]
	}

	now := p.now()
	res := make([]*domain.Article, 0, len(entries))
	for i, e := range entries {
		article, err := p.normalize(e, src, now)
		if err != nil {
			lgr.Printf("[DEBUG] skip item %d of %s: %v", i, src.Name(), err)
			continue
		}
		res = append(res, article)
	}
	return res
}

// normalize builds an article from raw fields, title is the only required one
func (p *Parser) normalize(e entry, src domain.SourceConfig, now time.Time) (*domain.Article, error) {
	title := collapseSpaces(html.UnescapeString(e.title))
	if p.sanitizer != nil {
		title = collapseSpaces(html.UnescapeString(p.sanitizer.Sanitize(e.title)))
	}
	if title == "" {
		return nil, errNoTitle
	}

	description := strings.TrimSpace(e.description)
	if p.sanitizer != nil {
		description = collapseSpaces(html.UnescapeString(p.sanitizer.Sanitize(description)))
	}

	ts := now
	if t, ok := parseDate(e.published); ok {
		ts = t
	}

	return &domain.Article{
		Title:       title,
		Description: Truncate(description, p.maxDescription),
		Content:     title + "\n\n" + description,
		Link:        strings.TrimSpace(e.link),
		Published:   strings.TrimSpace(e.published),
		Timestamp:   ts,
		Source:      "rss-" + src.SourceID,
		SourceID:    src.SourceID,
		SourceName:  src.SourceName,
		SourceURL:   src.SourceURL,
		Type:        domain.KindArticle,
	}, nil
}

// strictEntries decodes the document into a tree and probes it for items, then entries
func (p *Parser) strictEntries(raw []byte) ([]entry, error) {
	root, err := buildTree(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var nodes []*node
	for _, probe := range itemProbes {
		if nodes = root.findAll(probe); len(nodes) > 0 {
			break
		}
	}

	res := make([]entry, 0, len(nodes))
	for _, n := range nodes {
		res = append(res, entry{
			title:       n.value(fieldAliases[fieldTitle]),
			description: n.value(fieldAliases[fieldDescription]),
			link:        n.value(fieldAliases[fieldLink]),
			published:   n.value(fieldAliases[fieldPublished]),
		})
	}
	return res, nil
}

// lenientEntries is the second chance for markup encoding/xml rejects, e.g. bare ampersands
func (p *Parser) lenientEntries(raw []byte) ([]entry, error) {
	f, err := p.lenient.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("lenient parse: %w", err)
	}
	res := make([]entry, 0, len(f.Items))
	for _, it := range f.Items {
		e := entry{title: it.Title, description: it.Description, link: it.Link, published: it.Published}
		if e.description == "" {
			e.description = it.Content
		}
		if e.link == "" && len(it.Links) > 0 {
			e.link = it.Links[0]
		}
		if e.link == "" {
			e.link = it.GUID
		}
		if e.published == "" {
			e.published = it.Updated
		}
		res = append(res, e)
	}
	return res, nil
}

// node is a minimal XML element tree
type node struct {
	name     xml.Name
	attrs    []xml.Attr
	text     strings.Builder
	children []*node
}

func buildTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	root := &node{}
	stack := []*node{root}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}
		cur := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			child := &node{name: t.Name, attrs: t.Attr}
			cur.children = append(cur.children, child)
			stack = append(stack, child)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			// element text includes the text of nested elements, e.g. xhtml content
			if len(stack) > 0 {
				stack[len(stack)-1].text.WriteString(cur.text.String())
			}
		case xml.CharData:
			cur.text.Write(t)
		}
	}
	if len(root.children) == 0 {
		return nil, errors.New("decode xml: empty document")
	}
	return root, nil
}

// findAll returns all descendants matching any of the rules, in document order
func (n *node) findAll(rules []fieldRule) []*node {
	var res []*node
	for _, c := range n.children {
		for _, r := range rules {
			if r.matches(c.name) {
				res = append(res, c)
				break
			}
		}
		res = append(res, c.findAll(rules)...)
	}
	return res
}

// value returns the first non-empty direct child value over the ordered rules
func (n *node) value(rules []fieldRule) string {
	for _, r := range rules {
		if v := n.childValue(r); v != "" {
			return v
		}
	}
	return ""
}

func (n *node) childValue(r fieldRule) string {
	var fallback string
	for _, c := range n.children {
		if !r.matches(c.name) {
			continue
		}
		if r.Attr == "" {
			if v := strings.TrimSpace(c.text.String()); v != "" {
				return v
			}
			continue
		}
		// attribute-valued links, prefer rel=alternate or no rel at all
		v := strings.TrimSpace(c.attr(r.Attr))
		if v == "" {
			continue
		}
		if rel := c.attr("rel"); rel == "" || rel == "alternate" {
			return v
		}
		if fallback == "" {
			fallback = v
		}
	}
	return fallback
}

func (n *node) attr(local string) string {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// Truncate cuts s to max characters and appends "..." if anything was cut
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
