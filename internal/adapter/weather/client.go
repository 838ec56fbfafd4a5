// Package weather fetches current conditions and a short daily forecast from
// the Open-Meteo API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/oceaneye-service/internal/domain"
)

const forecastDays = 5

// Conditions is the weather at a point plus its daily outlook.
type Conditions struct {
	Location      string     `json:"location"`
	Position      domain.Geo `json:"position"`
	ObservedAt    time.Time  `json:"observed_at"`
	TemperatureC  float64    `json:"temperature_c"`
	HumidityPct   float64    `json:"humidity_pct"`
	WindSpeedKmh  float64    `json:"wind_speed_kmh"`
	WindDirection float64    `json:"wind_direction_deg"`
	Condition     string     `json:"condition"`
	Forecast      []Day      `json:"forecast"`
}

// Day is one forecast day.
type Day struct {
	Date            string  `json:"date"`
	MaxC            float64 `json:"max_c"`
	MinC            float64 `json:"min_c"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	Condition       string  `json:"condition"`
}

// Client calls the Open-Meteo forecast endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a weather client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Current returns conditions and the daily forecast at pos.
func (c *Client) Current(ctx context.Context, pos domain.Geo) (Conditions, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(pos.Lat, 'f', 4, 64)},
		"longitude":     {strconv.FormatFloat(pos.Lng, 'f', 4, 64)},
		"current":       {"temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m,weather_code"},
		"daily":         {"weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum"},
		"timezone":      {"auto"},
		"forecast_days": {strconv.Itoa(forecastDays)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather API error: status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Conditions{}, fmt.Errorf("decode response: %w", err)
	}
	return body.toConditions(pos), nil
}

type response struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WindDirection float64 `json:"wind_direction_10m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time          []string  `json:"time"`
		WeatherCode   []int     `json:"weather_code"`
		Max           []float64 `json:"temperature_2m_max"`
		Min           []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func (r response) toConditions(pos domain.Geo) Conditions {
	out := Conditions{
		Location:      fmt.Sprintf("%.2f, %.2f", pos.Lat, pos.Lng),
		Position:      pos,
		TemperatureC:  r.Current.Temperature,
		HumidityPct:   r.Current.Humidity,
		WindSpeedKmh:  r.Current.WindSpeed,
		WindDirection: r.Current.WindDirection,
		Condition:     Describe(r.Current.WeatherCode),
		Forecast:      make([]Day, 0, len(r.Daily.Time)),
	}
	// Open-Meteo returns local time without an offset when timezone=auto.
	if t, err := time.Parse("2006-01-02T15:04", r.Current.Time); err == nil {
		out.ObservedAt = t
	}
	for i, date := range r.Daily.Time {
		day := Day{Date: date}
		if i < len(r.Daily.Max) {
			day.MaxC = r.Daily.Max[i]
		}
		if i < len(r.Daily.Min) {
			day.MinC = r.Daily.Min[i]
		}
		if i < len(r.Daily.Precipitation) {
			day.PrecipitationMM = r.Daily.Precipitation[i]
		}
		if i < len(r.Daily.WeatherCode) {
			day.Condition = Describe(r.Daily.WeatherCode[i])
		}
		out.Forecast = append(out.Forecast, day)
	}
	return out
}

// Describe maps a WMO weather interpretation code to a short label.
func Describe(code int) string {
	switch {
	case code == 0:
		return "Sunny"
	case code <= 2:
		return "Partly Cloudy"
	case code == 3:
		return "Cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67, code >= 80 && code <= 82:
		return "Rain"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return "Snow"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unknown"
	}
}
