package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/umputun/livefeed/pkg/domain"
)

// placeholderKeys are treated as "no key", they show up in sample registry data
var placeholderKeys = map[string]bool{"": true, "demo": true, "demo-key": true, "your-api-key": true}

// WeatherParams configures the weather strategy
type WeatherParams struct {
	Client      *http.Client
	BaseURL     string        // provider base, /weather is appended
	APIKey      string        // global key, a source's own key wins
	Timeout     time.Duration // per provider call
	RateLimit   time.Duration // min gap between provider calls, 0 disables limiting
	DefaultCity string        // used when a source lists no cities
	MaxParallel int
	Synthetic   *Synthetic
	Metrics     Metrics
}

// Weather fetches current conditions per city, falling back to synthetic readings city by city
type Weather struct {
	WeatherParams
	limiter *rate.Limiter
	now     func() time.Time
}

// NewWeather makes a weather strategy
func NewWeather(params WeatherParams) *Weather {
	if params.Client == nil {
		params.Client = &http.Client{}
	}
	if params.Synthetic == nil {
		params.Synthetic = NewSynthetic(uint64(time.Now().UnixNano())) //nolint:gosec // seed only
	}
	if params.MaxParallel <= 0 {
		params.MaxParallel = 1
	}
	if params.DefaultCity == "" {
		params.DefaultCity = "New York"
	}
	limit := rate.Inf
	if params.RateLimit > 0 {
		limit = rate.Every(params.RateLimit)
	}
	return &Weather{WeatherParams: params, limiter: rate.NewLimiter(limit, 1), now: time.Now}
}

// defaultVisibility is reported when the provider omits visibility
const defaultVisibility = 10000

// owmResponse is the subset of the provider's current weather response we use
type owmResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Visibility *int `json:"visibility"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
}

// Fetch returns one reading per configured city, in the order the cities are listed
func (w *Weather) Fetch(ctx context.Context, src domain.SourceConfig) []domain.Item {
	params, err := src.WeatherParams()
	if err != nil {
		lgr.Printf("[WARN] %v, using defaults", err)
	}

	cities := make([]string, 0, len(params.Cities))
	for _, c := range params.Cities {
		if c = strings.TrimSpace(c); c != "" {
			cities = append(cities, c)
		}
	}
	if len(cities) == 0 {
		cities = []string{w.DefaultCity}
	}

	key := w.APIKey
	if strings.TrimSpace(params.APIKey) != "" {
		key = strings.TrimSpace(params.APIKey)
	}
	live := !placeholderKeys[key]
	if !live {
		lgr.Printf("[DEBUG] no weather api key for %s, generating %d synthetic readings", src.Name(), len(cities))
	}

	res := make([]domain.Item, len(cities))
	var eg errgroup.Group
	eg.SetLimit(w.MaxParallel)
	for i, city := range cities {
		if !live {
			res[i] = w.Synthetic.Weather(city, src)
			continue
		}
		eg.Go(func() error {
			reading, err := w.current(ctx, city, key, src)
			if err != nil {
				lgr.Printf("[WARN] weather for %s (%s) unavailable, using synthetic: %v", city, src.Name(), err)
				recordFallback(w.Metrics, domain.SourceWeather)
				reading = w.Synthetic.Weather(city, src)
			}
			res[i] = reading
			return nil // a failed city never cancels its siblings
		})
	}
	_ = eg.Wait()
	return res
}

// current queries the provider for one city, known cities are looked up by coordinates
func (w *Weather) current(ctx context.Context, city, key string, src domain.SourceConfig) (*domain.WeatherReading, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	q := url.Values{}
	if c, ok := cityCoordinates[city]; ok {
		q.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	} else {
		q.Set("q", city)
	}
	q.Set("appid", key)
	q.Set("units", "metric")
	reqURL := strings.TrimRight(w.BaseURL, "/") + "/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}
	resp, err := w.Client.Do(req)
	if err != nil {
		// don't leak the key, url.Error includes the full request url
		return nil, fmt.Errorf("weather request for %s failed: %w", city, redactKey(err, key))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var owm owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	if len(owm.Weather) == 0 {
		return nil, fmt.Errorf("weather response for %s has no conditions", city)
	}

	visibility := defaultVisibility
	if owm.Visibility != nil {
		visibility = *owm.Visibility
	}

	return &domain.WeatherReading{
		City:          city,
		Temperature:   owm.Main.Temp,
		FeelsLike:     owm.Main.FeelsLike,
		TempMin:       owm.Main.TempMin,
		TempMax:       owm.Main.TempMax,
		Description:   owm.Weather[0].Description,
		Humidity:      owm.Main.Humidity,
		WindSpeed:     owm.Wind.Speed,
		WindDirection: owm.Wind.Deg,
		Pressure:      owm.Main.Pressure,
		Visibility:    visibility,
		Coordinates:   domain.Coordinates{Lat: owm.Coord.Lat, Lon: owm.Coord.Lon},
		Timestamp:     w.now(),
		Source:        "openweathermap-api-" + src.SourceID,
		SourceID:      src.SourceID,
	}, nil
}

func redactKey(err error, key string) error {
	if key == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), url.QueryEscape(key), "****"))
}
