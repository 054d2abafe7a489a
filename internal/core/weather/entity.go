package weather

import (
	"fmt"
	"strings"
	"time"

	"weathersub.app/internal/ports"
)

const absoluteZeroCelsius = -273.15

// Weather is the current conditions for a city as reported by a provider
type Weather struct {
	Temperature float64
	Humidity    float64
	Description string
	City        string
	Timestamp   time.Time
}

// WeatherRequest asks for the current conditions in City
type WeatherRequest struct {
	City string
}

// humidityBands are checked in order; a reading takes the first band it falls below.
var humidityBands = []struct {
	below float64
	label string
}{
	{20, "Very dry"},
	{30, "Dry"},
	{60, "Comfortable"},
	{80, "Humid"},
}

func newWeather(data *ports.WeatherData) *Weather {
	return &Weather{
		Temperature: data.Temperature,
		Humidity:    data.Humidity,
		Description: data.Description,
		City:        data.City,
		Timestamp:   data.Timestamp,
	}
}

func (w *Weather) data() *ports.WeatherData {
	return &ports.WeatherData{
		Temperature: w.Temperature,
		Humidity:    w.Humidity,
		Description: w.Description,
		City:        w.City,
		Timestamp:   w.Timestamp,
	}
}

// Validate rejects readings that cannot be sent to a subscriber
func (w *Weather) Validate() error {
	switch {
	case strings.TrimSpace(w.City) == "":
		return fmt.Errorf("city is empty")
	case strings.TrimSpace(w.Description) == "":
		return fmt.Errorf("description is empty")
	case w.Temperature < absoluteZeroCelsius:
		return fmt.Errorf("temperature %.2f is below absolute zero", w.Temperature)
	case w.Humidity < 0 || w.Humidity > 100:
		return fmt.Errorf("humidity %.1f is outside 0..100", w.Humidity)
	}
	return nil
}

func (w *Weather) Fahrenheit() float64 {
	return w.Temperature*9/5 + 32
}

// HumidityLevel labels the relative humidity for update emails
func (w *Weather) HumidityLevel() string {
	for _, band := range humidityBands {
		if w.Humidity < band.below {
			return band.label
		}
	}
	return "Very humid"
}

// Normalized returns the request with surrounding whitespace removed from the city
func (r WeatherRequest) Normalized() WeatherRequest {
	return WeatherRequest{City: strings.TrimSpace(r.City)}
}

func (r WeatherRequest) Validate() error {
	if strings.TrimSpace(r.City) == "" {
		return fmt.Errorf("city is empty")
	}
	return nil
}

// CacheKey is the cache entry for the request's city. City names are matched
// case-insensitively by every provider, so the key is too.
func (r WeatherRequest) CacheKey() string {
	return "weather:" + strings.ToLower(strings.TrimSpace(r.City))
}
