package fetch

import (
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/umputun/livefeed/pkg/domain"
)

// baseTemperatures in °C for known cities, unknown ones use defaultBaseTemp
var baseTemperatures = map[string]float64{
	"New York":    15,
	"London":      12,
	"Tokyo":       18,
	"Sydney":      22,
	"Berlin":      8,
	"Paris":       14,
	"Los Angeles": 24,
	"Chicago":     10,
	"Toronto":     9,
	"Mumbai":      28,
}

const defaultBaseTemp = 15.0

var cityCoordinates = map[string]domain.Coordinates{
	"New York":    {Lat: 40.7128, Lon: -74.0060},
	"London":      {Lat: 51.5074, Lon: -0.1278},
	"Tokyo":       {Lat: 35.6762, Lon: 139.6503},
	"Sydney":      {Lat: -33.8688, Lon: 151.2093},
	"Berlin":      {Lat: 52.5200, Lon: 13.4050},
	"Paris":       {Lat: 48.8566, Lon: 2.3522},
	"Los Angeles": {Lat: 34.0522, Lon: -118.2437},
	"Chicago":     {Lat: 41.8781, Lon: -87.6298},
	"Toronto":     {Lat: 43.6532, Lon: -79.3832},
	"Mumbai":      {Lat: 19.0760, Lon: 72.8777},
}

var conditions = []string{
	"Clear sky", "Few clouds", "Scattered clouds", "Broken clouds",
	"Light rain", "Sunny", "Partly cloudy", "Overcast",
}

// Synthetic generates placeholder items when live data is unavailable. Safe for concurrent use.
type Synthetic struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewSynthetic makes a generator, the same seed gives the same sequence
func NewSynthetic(seed uint64) *Synthetic {
	return &Synthetic{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now: time.Now}
}

// Weather returns a plausible reading for city, built around the city's typical temperature
func (s *Synthetic) Weather(city string, src domain.SourceConfig) *domain.WeatherReading {
	base, ok := baseTemperatures[city]
	if !ok {
		base = defaultBaseTemp
	}

	s.mu.Lock()
	temp := base + float64(s.rnd.IntN(16)-5) // -5..+10
	desc := conditions[s.rnd.IntN(len(conditions))]
	humidity := 40 + s.rnd.IntN(41)
	wind := math.Round(s.rnd.Float64()*150) / 10
	pressure := 990 + s.rnd.IntN(31)
	feels := round1(temp + s.rnd.Float64()*10 - 5)
	tMin := round1(temp - 2 - s.rnd.Float64()*6)
	tMax := round1(temp + 2 + s.rnd.Float64()*6)
	visibility := 1000 + s.rnd.IntN(9001)
	windDeg := s.rnd.IntN(361)
	s.mu.Unlock()

	return &domain.WeatherReading{
		City:          city,
		Temperature:   temp,
		FeelsLike:     feels,
		TempMin:       tMin,
		TempMax:       tMax,
		Description:   desc,
		Humidity:      humidity,
		WindSpeed:     wind,
		WindDirection: windDeg,
		Pressure:      pressure,
		Visibility:    visibility,
		Coordinates:   cityCoordinates[city], // zero for unknown cities
		Timestamp:     s.now(),
		Source:        "pathway-service-" + src.SourceID,
		SourceID:      src.SourceID,
		Synthetic:     true,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// Articles returns the two placeholder articles used when a feed yields nothing
func (s *Synthetic) Articles(src domain.SourceConfig) []*domain.Article {
	now := s.now()
	mk := func(n int, title, desc string) *domain.Article {
		return &domain.Article{
			Title:       title,
			Description: desc,
			Content:     title + "\n\n" + desc,
			Link:        src.SourceURL + "/article-" + strconv.Itoa(n),
			Timestamp:   now,
			Source:      "rss-" + src.SourceID,
			SourceID:    src.SourceID,
			SourceName:  src.SourceName,
			SourceURL:   src.SourceURL,
			Type:        domain.KindArticle,
			Synthetic:   true,
		}
	}
	return []*domain.Article{
		mk(1, "Breaking: Latest updates from "+src.SourceName, "Important news and updates from our RSS feed source."),
		mk(2, "Technology Update from "+src.SourceName, "Latest technology trends and innovations in the industry."),
	}
}
