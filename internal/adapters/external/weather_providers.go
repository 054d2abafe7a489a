// Package external provides adapters for external services
// These adapters implement ports for weather providers, email services, caches, etc.
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"weathersub.app/internal/ports"
	"weathersub.app/pkg/errors"
)

const (
	defaultProviderTimeout = 10 * time.Second

	defaultWeatherAPIBaseURL     = "https://api.weatherapi.com/v1"
	defaultOpenWeatherMapBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultAccuWeatherBaseURL    = "http://dataservice.accuweather.com"

	// weatherapi.com reports an unknown location as 400 with this code
	weatherAPINoLocationCode = 1006
)

// HTTPClient interface for HTTP requests (for testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &http.Client{Timeout: timeout}
}

// WeatherAPIProviderAdapter implements WeatherProvider port for WeatherAPI.com
type WeatherAPIProviderAdapter struct {
	apiKey  string
	baseURL string
	client  HTTPClient
	logger  ports.Logger
}

// WeatherAPIProviderParams holds parameters for creating WeatherAPI provider
type WeatherAPIProviderParams struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Client  HTTPClient
	Logger  ports.Logger
}

// WeatherAPIResponse represents the response from WeatherAPI.com
type WeatherAPIResponse struct {
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Current struct {
		LastUpdatedEpoch int64   `json:"last_updated_epoch"`
		TempC            float64 `json:"temp_c"`
		Humidity         float64 `json:"humidity"`
		Condition        struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

type weatherAPIErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewWeatherAPIProviderAdapter creates a new WeatherAPI provider adapter
func NewWeatherAPIProviderAdapter(params WeatherAPIProviderParams) ports.WeatherProvider {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = defaultWeatherAPIBaseURL
	}
	client := params.Client
	if client == nil {
		client = newHTTPClient(params.Timeout)
	}

	return &WeatherAPIProviderAdapter{
		apiKey:  params.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  params.Logger,
	}
}

// GetCurrentWeather retrieves weather data from WeatherAPI.com
func (p *WeatherAPIProviderAdapter) GetCurrentWeather(ctx context.Context, city string) (*ports.WeatherData, error) {
	if city == "" {
		return nil, errors.NewValidationError("city cannot be empty")
	}
	if p.apiKey == "" {
		return nil, missingCredentials(p.GetProviderName())
	}

	query := url.Values{}
	query.Set("key", p.apiKey)
	query.Set("q", city)

	var apiResp WeatherAPIResponse
	err := getJSON(ctx, p.client, p.logger, p.GetProviderName(), p.baseURL+"/current.json?"+query.Encode(), &apiResp,
		func(status int, body []byte) error {
			if status == http.StatusBadRequest || status == http.StatusNotFound {
				var errResp weatherAPIErrorResponse
				if json.Unmarshal(body, &errResp) == nil && errResp.Error.Code == weatherAPINoLocationCode {
					return errors.NewCityNotFoundError(fmt.Sprintf("city %q not found", city))
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return &ports.WeatherData{
		Temperature: apiResp.Current.TempC,
		Humidity:    apiResp.Current.Humidity,
		Description: apiResp.Current.Condition.Text,
		City:        firstNonEmpty(apiResp.Location.Name, city),
		Timestamp:   observedAt(apiResp.Current.LastUpdatedEpoch),
	}, nil
}

// GetProviderName returns the name of this weather provider
func (p *WeatherAPIProviderAdapter) GetProviderName() string {
	return "weatherapi"
}

// statusClassifier may turn a non-200 response into a specific error. Returning nil
// falls back to a generic lookup error.
type statusClassifier func(status int, body []byte) error

// getJSON performs a GET bound to ctx and decodes a 200 response into out. Non-200
// answers become CityNotFound (via classify or a plain 404) or Lookup errors.
func getJSON(ctx context.Context, client HTTPClient, logger ports.Logger, provider, rawURL string, out interface{}, classify statusClassifier) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.NewLookupError(fmt.Sprintf("failed to build %s request", provider), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.NewLookupError(fmt.Sprintf("failed to call %s", provider), err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && logger != nil {
			logger.Warn("Failed to close provider response body",
				ports.F("provider", provider),
				ports.F("error", closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if classify != nil {
			if classified := classify(resp.StatusCode, body); classified != nil {
				return classified
			}
		}
		if resp.StatusCode == http.StatusNotFound {
			return errors.NewCityNotFoundError("city not found")
		}
		return errors.NewLookupError(fmt.Sprintf("%s returned status %d", provider, resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewLookupError(fmt.Sprintf("failed to decode %s response", provider), err)
	}
	return nil
}

func missingCredentials(provider string) error {
	return errors.NewLookupError(provider+" API key not configured", errors.ErrMissingCredentials)
}

func observedAt(epoch int64) time.Time {
	if epoch <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(epoch, 0).UTC()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
