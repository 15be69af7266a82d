package domain

import "time"

// ItemKind tells the concrete type behind an Item
type ItemKind string

// item kinds
const (
	KindWeather ItemKind = "weather"
	KindArticle ItemKind = "rss_article"
)

// Item is a normalized record produced by a fetch strategy.
// Implemented by *WeatherReading and *Article.
type Item interface {
	Kind() ItemKind
	Origin() string
}

// Coordinates is a lat/lon pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeatherReading is the current weather for one city
type WeatherReading struct {
	City          string      `json:"city"`
	Temperature   float64     `json:"temperature"`
	FeelsLike     float64     `json:"feelsLike"`
	TempMin       float64     `json:"tempMin"`
	TempMax       float64     `json:"tempMax"`
	Description   string      `json:"description"`
	Humidity      int         `json:"humidity"`
	WindSpeed     float64     `json:"windSpeed"`
	WindDirection int         `json:"windDirection"` // degrees
	Pressure      int         `json:"pressure"`
	Visibility    int         `json:"visibility"` // meters
	Coordinates   Coordinates `json:"coordinates"`
	Timestamp     time.Time   `json:"timestamp"`
	Source        string      `json:"source"`
	SourceID      string      `json:"sourceId"`
	Synthetic     bool        `json:"synthetic"`
}

// Kind implements Item
func (w *WeatherReading) Kind() ItemKind { return KindWeather }

// Origin implements Item
func (w *WeatherReading) Origin() string { return w.Source }

// Article is a single syndication feed entry
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Link        string    `json:"link"`
	Published   string    `json:"published,omitempty"` // raw publish date as found in the feed
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	SourceID    string    `json:"sourceId"`
	SourceName  string    `json:"sourceName"`
	SourceURL   string    `json:"sourceUrl"`
	Type        ItemKind  `json:"type"`
	Synthetic   bool      `json:"synthetic"`
}

// Kind implements Item
func (a *Article) Kind() ItemKind { return KindArticle }

// Origin implements Item
func (a *Article) Origin() string { return a.Source }

// SourceMetadata is the part of the source config passed along with every delivered item
type SourceMetadata struct {
	SourceName string `json:"sourceName"`
	SourceType string `json:"sourceType"`
	SourceURL  string `json:"sourceUrl"`
	MaxEntries *int   `json:"maxEntries"`
}

// Envelope wraps one item with its source information for delivery, one envelope per POST
type Envelope struct {
	Data           Item           `json:"data"`
	Type           string         `json:"type"`
	SourceID       string         `json:"sourceId"`
	Timestamp      time.Time      `json:"timestamp"`
	SourceMetadata SourceMetadata `json:"source_metadata"`
}

// NewEnvelope wraps item for delivery on behalf of src
func NewEnvelope(src SourceConfig, item Item, now time.Time) Envelope {
	return Envelope{
		Data:      item,
		Type:      src.SourceType,
		SourceID:  src.SourceID,
		Timestamp: now,
		SourceMetadata: SourceMetadata{
			SourceName: src.SourceName,
			SourceType: src.SourceType,
			SourceURL:  src.SourceURL,
			MaxEntries: src.MaxEntries,
		},
	}
}
