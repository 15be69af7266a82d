package feed

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/livefeed/pkg/domain"
)

var testSource = domain.SourceConfig{
	SourceID:   "src-1",
	SourceType: "rss",
	SourceName: "Test Feed",
	SourceURL:  "https://example.com/feed",
	Status:     domain.StatusActive,
	IsActive:   true,
}

func newTestParser() *Parser {
	p := NewParser(ParserConfig{MaxItems: 10, MaxDescription: 500, StripHTML: true})
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestParser_ParseRSS(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Test Feed</title>
	<link>http://example.com</link>
	<item>
		<title>Test Article 1</title>
		<link>http://example.com/article1</link>
		<description><![CDATA[<p>Article <b>1</b> description</p>]]></description>
		<content:encoded><![CDATA[<p>Full content of article 1</p>]]></content:encoded>
		<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
	</item>
	<item>
		<title>Test Article 2</title>
		<guid>http://example.com/article2</guid>
		<description>Article 2 &amp; more</description>
	</item>
</channel>
</rss>`

	articles := newTestParser().Parse([]byte(rss), testSource)
	require.Len(t, articles, 2)

	a1 := articles[0]
	assert.Equal(t, "Test Article 1", a1.Title)
	assert.Equal(t, "http://example.com/article1", a1.Link)
	assert.Equal(t, "Article 1 description", a1.Description)
	assert.Equal(t, "Test Article 1\n\nArticle 1 description", a1.Content)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 -0700", a1.Published)
	assert.Equal(t, time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC), a1.Timestamp)
	assert.Equal(t, "rss-src-1", a1.Source)
	assert.Equal(t, "src-1", a1.SourceID)
	assert.Equal(t, "Test Feed", a1.SourceName)
	assert.Equal(t, "https://example.com/feed", a1.SourceURL)
	assert.Equal(t, domain.KindArticle, a1.Type)
	assert.False(t, a1.Synthetic)

	a2 := articles[1]
	assert.Equal(t, "http://example.com/article2", a2.Link, "guid used when link is missing")
	assert.Equal(t, "Article 2 & more", a2.Description)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), a2.Timestamp, "fetch time without pubDate")
}

func TestParser_ParseAtom(t *testing.T) {
	atom := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Atom Feed</title>
	<entry>
		<title>Atom Entry</title>
		<link rel="edit" href="http://example.com/edit/1"/>
		<link rel="alternate" href="http://example.com/entry1"/>
		<summary>Entry summary</summary>
		<updated>2024-03-10T08:00:00Z</updated>
	</entry>
	<entry>
		<title type="html">Second &lt;em&gt;Entry&lt;/em&gt;</title>
		<link href="http://example.com/entry2"/>
		<content type="html">&lt;p&gt;Entry content&lt;/p&gt;</content>
		<published>2024-03-09T08:00:00+02:00</published>
	</entry>
</feed>`

	articles := newTestParser().Parse([]byte(atom), testSource)
	require.Len(t, articles, 2)

	assert.Equal(t, "Atom Entry", articles[0].Title)
	assert.Equal(t, "http://example.com/entry1", articles[0].Link)
	assert.Equal(t, "Entry summary", articles[0].Description)
	assert.Equal(t, time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), articles[0].Timestamp)

	assert.Equal(t, "Second Entry", articles[1].Title)
	assert.Equal(t, "http://example.com/entry2", articles[1].Link)
	assert.Equal(t, "Entry content", articles[1].Description)
	assert.Equal(t, time.Date(2024, 3, 9, 6, 0, 0, 0, time.UTC), articles[1].Timestamp)
}

func TestParser_ParseRSS1(t *testing.T) {
	rdf := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/" xmlns:dc="http://purl.org/dc/elements/1.1/">
	<channel rdf:about="http://example.com/"><title>RDF</title></channel>
	<item rdf:about="http://example.com/1">
		<title>RDF Item</title>
		<link>http://example.com/1</link>
		<description>RDF description</description>
		<dc:date>2024-01-02T03:04:05Z</dc:date>
	</item>
</rdf:RDF>`

	articles := newTestParser().Parse([]byte(rdf), testSource)
	require.Len(t, articles, 1)
	assert.Equal(t, "RDF Item", articles[0].Title)
	assert.Equal(t, "http://example.com/1", articles[0].Link)
	assert.Equal(t, "RDF description", articles[0].Description)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), articles[0].Timestamp)
}

func TestParser_Limits(t *testing.T) {
	t.Run("caps item count", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString(`<rss version="2.0"><channel>`)
		for i := 0; i < 15; i++ {
			fmt.Fprintf(&sb, "<item><title>item %d</title></item>", i)
		}
		sb.WriteString(`</channel></rss>`)

		articles := newTestParser().Parse([]byte(sb.String()), testSource)
		require.Len(t, articles, 10)
		assert.Equal(t, "item 0", articles[0].Title)
		assert.Equal(t, "item 9", articles[9].Title)
	})

	t.Run("truncates long description", func(t *testing.T) {
		long := strings.Repeat("a", 600)
		rss := `<rss><channel><item><title>long</title><description>` + long + `</description></item></channel></rss>`

		articles := newTestParser().Parse([]byte(rss), testSource)
		require.Len(t, articles, 1)
		assert.Equal(t, strings.Repeat("a", 500)+"...", articles[0].Description)
		assert.Equal(t, "long\n\n"+long, articles[0].Content, "content keeps full description")
	})

	t.Run("description at limit is kept", func(t *testing.T) {
		exact := strings.Repeat("б", 500)
		rss := `<rss><channel><item><title>exact</title><description>` + exact + `</description></item></channel></rss>`

		articles := newTestParser().Parse([]byte(rss), testSource)
		require.Len(t, articles, 1)
		assert.Equal(t, exact, articles[0].Description)
	})
}

func TestParser_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "no items", input: `<rss version="2.0"><channel><title>empty</title></channel></rss>`, want: 0},
		{name: "garbage", input: `this is not a feed at all`, want: 0},
		{name: "empty", input: ``, want: 0},
		{name: "html page", input: `<html><body><p>hello</p></body></html>`, want: 0},
		{
			name:  "item without title dropped",
			input: `<rss><channel><item><description>no title</description></item><item><title>ok</title></item></channel></rss>`,
			want:  1,
		},
		{
			name:  "blank title dropped",
			input: `<rss><channel><item><title>   </title></item></channel></rss>`,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles := newTestParser().Parse([]byte(tt.input), testSource)
			require.NotNil(t, articles)
			assert.Len(t, articles, tt.want)
		})
	}
}

func TestParser_LenientFallback(t *testing.T) {
	// bare ampersand is rejected by the strict decoder
	rss := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Tom & Jerry</title>
<item><title>Cats & Mice</title><link>http://example.com/tj</link><description>chase</description></item>
</channel></rss>`

	articles := newTestParser().Parse([]byte(rss), testSource)
	require.Len(t, articles, 1)
	assert.Equal(t, "Cats & Mice", articles[0].Title)
	assert.Equal(t, "http://example.com/tj", articles[0].Link)
}

func TestParser_Charset(t *testing.T) {
	// "café" in latin-1
	rss := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><rss><channel><item><title>caf\xe9</title></item></channel></rss>")

	articles := newTestParser().Parse(rss, testSource)
	require.Len(t, articles, 1)
	assert.Equal(t, "café", articles[0].Title)
}

func TestParser_KeepHTML(t *testing.T) {
	p := NewParser(ParserConfig{StripHTML: false})
	rss := `<rss><channel><item><title>t</title><description><![CDATA[<p>para</p>]]></description></item></channel></rss>`

	articles := p.Parse([]byte(rss), testSource)
	require.Len(t, articles, 1)
	assert.Equal(t, "<p>para</p>", articles[0].Description)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("", 5))
	assert.Equal(t, "日本...", Truncate("日本語", 2))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{in: "Mon, 02 Jan 2006 15:04:05 -0700", want: time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC), ok: true},
		{in: "Mon, 02 Jan 2006 15:04:05 GMT", want: time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), ok: true},
		{in: "02 Jan 06 15:04 +0200", want: time.Date(2006, 1, 2, 13, 4, 0, 0, time.UTC), ok: true},
		{in: "02 Jan 06 15:04 GMT", want: time.Date(2006, 1, 2, 15, 4, 0, 0, time.UTC), ok: true},
		{in: "2024-03-10T08:00:00Z", want: time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC), ok: true},
		{in: "2024-03-10", want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "yesterday", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}
