package external

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// AccuWeatherProviderAdapter implements WeatherProvider port for AccuWeather.
// A lookup is two calls: city search for the location key, then current conditions.
type AccuWeatherProviderAdapter struct {
	apiKey  string
	baseURL string
	client  HTTPClient
	logger  ports.Logger
}

// AccuWeatherProviderParams holds parameters for creating AccuWeather provider
type AccuWeatherProviderParams struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Client  HTTPClient
	Logger  ports.Logger
}

type accuWeatherLocation struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
}

type accuWeatherConditions struct {
	EpochTime        int64   `json:"EpochTime"`
	WeatherText      string  `json:"WeatherText"`
	RelativeHumidity float64 `json:"RelativeHumidity"`
	Temperature      struct {
		Metric struct {
			Value float64 `json:"Value"`
		} `json:"Metric"`
	} `json:"Temperature"`
}

// NewAccuWeatherProviderAdapter creates a new AccuWeather provider adapter
func NewAccuWeatherProviderAdapter(params AccuWeatherProviderParams) ports.WeatherProvider {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = defaultAccuWeatherBaseURL
	}
	client := params.Client
	if client == nil {
		client = newHTTPClient(params.Timeout)
	}

	return &AccuWeatherProviderAdapter{
		apiKey:  params.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  params.Logger,
	}
}

// GetCurrentWeather retrieves weather data from AccuWeather
func (p *AccuWeatherProviderAdapter) GetCurrentWeather(ctx context.Context, city string) (*ports.WeatherData, error) {
	if city == "" {
		return nil, errors.NewValidationError("city cannot be empty")
	}
	if p.apiKey == "" {
		return nil, missingCredentials(p.GetProviderName())
	}

	location, err := p.findLocation(ctx, city)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("apikey", p.apiKey)
	query.Set("details", "true")

	var conditions []accuWeatherConditions
	conditionsURL := fmt.Sprintf("%s/currentconditions/v1/%s?%s", p.baseURL, url.PathEscape(location.Key), query.Encode())
	if err := getJSON(ctx, p.client, p.logger, p.GetProviderName(), conditionsURL, &conditions, nil); err != nil {
		return nil, err
	}
	if len(conditions) == 0 {
		return nil, errors.NewLookupError("AccuWeather returned no current conditions", nil)
	}

	current := conditions[0]
	return &ports.WeatherData{
		Temperature: current.Temperature.Metric.Value,
		Humidity:    current.RelativeHumidity,
		Description: current.WeatherText,
		City:        firstNonEmpty(location.LocalizedName, city),
		Timestamp:   observedAt(current.EpochTime),
	}, nil
}

func (p *AccuWeatherProviderAdapter) findLocation(ctx context.Context, city string) (*accuWeatherLocation, error) {
	query := url.Values{}
	query.Set("apikey", p.apiKey)
	query.Set("q", city)

	var locations []accuWeatherLocation
	if err := getJSON(ctx, p.client, p.logger, p.GetProviderName(), p.baseURL+"/locations/v1/cities/search?"+query.Encode(), &locations, nil); err != nil {
		return nil, err
	}
	if len(locations) == 0 || locations[0].Key == "" {
		return nil, errors.NewCityNotFoundError(fmt.Sprintf("city %q not found", city))
	}
	return &locations[0], nil
}

// GetProviderName returns the name of this weather provider
func (p *AccuWeatherProviderAdapter) GetProviderName() string {
	return "accuweather"
}
