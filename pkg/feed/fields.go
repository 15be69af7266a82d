package feed

import "encoding/xml"

// namespaces recognized by the parser
const (
	nsAtom = "http://www.w3.org/2005/Atom"
	nsRSS1 = "http://purl.org/rss/1.0/"
	nsDC   = "http://purl.org/dc/elements/1.1/"
)

// fieldRule matches one child element of an item. If Attr is set the value is taken
// from that attribute instead of the element text.
type fieldRule struct {
	Space string
	Local string
	Attr  string
}

func (r fieldRule) matches(name xml.Name) bool {
	return name.Local == r.Local && name.Space == r.Space
}

// logical fields extracted from every item
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldLink        = "link"
	fieldPublished   = "published"
)

// fieldAliases lists candidates per logical field in priority order, first non-empty wins
var fieldAliases = map[string][]fieldRule{
	fieldTitle: {
		{Local: "title"},
		{Space: nsAtom, Local: "title"},
		{Space: nsRSS1, Local: "title"},
	},
	fieldDescription: {
		{Local: "description"},
		{Local: "summary"},
		{Space: nsAtom, Local: "summary"},
		{Space: nsRSS1, Local: "description"},
		{Space: nsAtom, Local: "content"},
	},
	fieldLink: {
		{Local: "link"},
		{Local: "guid"},
		{Space: nsAtom, Local: "link", Attr: "href"},
		{Space: nsRSS1, Local: "link"},
	},
	fieldPublished: {
		{Local: "pubDate"},
		{Local: "published"},
		{Space: nsAtom, Local: "published"},
		{Space: nsAtom, Local: "updated"},
		{Space: nsDC, Local: "date"},
	},
}

// itemProbes are tried in order, the first one matching any element defines the feed's items
var itemProbes = [][]fieldRule{
	{{Local: "item"}, {Space: nsRSS1, Local: "item"}}, // RSS 2.0, RSS 1.0
	{{Space: nsAtom, Local: "entry"}, {Local: "entry"}}, // Atom
}
