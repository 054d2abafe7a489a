package external

import (
	"context"
	"net/url"
	"strings"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

// OpenWeatherMapProviderAdapter implements WeatherProvider port for OpenWeatherMap
type OpenWeatherMapProviderAdapter struct {
	apiKey  string
	baseURL string
	client  HTTPClient
	logger  ports.Logger
}

// OpenWeatherMapProviderParams holds parameters for creating OpenWeatherMap provider
type OpenWeatherMapProviderParams struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Client  HTTPClient
	Logger  ports.Logger
}

// OpenWeatherMapResponse represents the response from OpenWeatherMap API
type OpenWeatherMapResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// NewOpenWeatherMapProviderAdapter creates a new OpenWeatherMap provider adapter
func NewOpenWeatherMapProviderAdapter(params OpenWeatherMapProviderParams) ports.WeatherProvider {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenWeatherMapBaseURL
	}
	client := params.Client
	if client == nil {
		client = newHTTPClient(params.Timeout)
	}

	return &OpenWeatherMapProviderAdapter{
		apiKey:  params.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  params.Logger,
	}
}

// GetCurrentWeather retrieves weather data from OpenWeatherMap
func (p *OpenWeatherMapProviderAdapter) GetCurrentWeather(ctx context.Context, city string) (*ports.WeatherData, error) {
	if city == "" {
		return nil, errors.NewValidationError("city cannot be empty")
	}
	if p.apiKey == "" {
		return nil, missingCredentials(p.GetProviderName())
	}

	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", p.apiKey)
	query.Set("units", "metric")

	var apiResp OpenWeatherMapResponse
	if err := getJSON(ctx, p.client, p.logger, p.GetProviderName(), p.baseURL+"/weather?"+query.Encode(), &apiResp, nil); err != nil {
		return nil, err
	}

	description := "Clear"
	if len(apiResp.Weather) > 0 {
		description = apiResp.Weather[0].Description
	}

	return &ports.WeatherData{
		Temperature: apiResp.Main.Temp,
		Humidity:    apiResp.Main.Humidity,
		Description: description,
		City:        firstNonEmpty(apiResp.Name, city),
		Timestamp:   observedAt(apiResp.Dt),
	}, nil
}

// GetProviderName returns the name of this weather provider
func (p *OpenWeatherMapProviderAdapter) GetProviderName() string {
	return "openweathermap"
}
