package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"weathersub.app/internal/ports"
)

func TestWeather_Validate(t *testing.T) {
	valid := Weather{Temperature: 18, Humidity: 55, Description: "Overcast", City: "Kyiv"}

	tests := []struct {
		name    string
		mutate  func(w *Weather)
		wantErr string
	}{
		{"valid", func(w *Weather) {}, ""},
		{"extremes_allowed", func(w *Weather) {
			w.Temperature = absoluteZeroCelsius
			w.Humidity = 100
		}, ""},
		{"blank_city", func(w *Weather) { w.City = "  " }, "city is empty"},
		{"blank_description", func(w *Weather) { w.Description = "" }, "description is empty"},
		{"below_absolute_zero", func(w *Weather) { w.Temperature = -300 }, "temperature -300.00 is below absolute zero"},
		{"negative_humidity", func(w *Weather) { w.Humidity = -1 }, "humidity -1.0 is outside 0..100"},
		{"humidity_over_100", func(w *Weather) { w.Humidity = 140 }, "humidity 140.0 is outside 0..100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid
			tt.mutate(&w)
			err := w.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestWeather_HumidityLevel(t *testing.T) {
	tests := map[float64]string{
		0:     "Very dry",
		19.9:  "Very dry",
		20:    "Dry",
		45:    "Comfortable",
		60:    "Humid",
		79.99: "Humid",
		80:    "Very humid",
		100:   "Very humid",
	}

	for humidity, expected := range tests {
		w := &Weather{Humidity: humidity}
		assert.Equal(t, expected, w.HumidityLevel(), "humidity %.2f", humidity)
	}
}

func TestWeather_Fahrenheit(t *testing.T) {
	assert.InDelta(t, 32.0, (&Weather{Temperature: 0}).Fahrenheit(), 0.001)
	assert.InDelta(t, -40.0, (&Weather{Temperature: -40}).Fahrenheit(), 0.001)
	assert.InDelta(t, 70.7, (&Weather{Temperature: 21.5}).Fahrenheit(), 0.001)
}

func TestWeather_DataConversion(t *testing.T) {
	observed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data := &ports.WeatherData{Temperature: 3.5, Humidity: 91, Description: "Drizzle", City: "Lviv", Timestamp: observed}

	w := newWeather(data)
	assert.Equal(t, "Lviv", w.City)
	assert.True(t, observed.Equal(w.Timestamp))
	assert.Equal(t, data, w.data())
}

func TestWeatherRequest(t *testing.T) {
	tests := []struct {
		name       string
		city       string
		valid      bool
		normalized string
		cacheKey   string
	}{
		{"plain", "Kyiv", true, "Kyiv", "weather:kyiv"},
		{"padded", "  New York \t", true, "New York", "weather:new york"},
		{"mixed_case_shares_key", "KYIV", true, "KYIV", "weather:kyiv"},
		{"blank", "   ", false, "", "weather:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := WeatherRequest{City: tt.city}
			if tt.valid {
				assert.NoError(t, request.Validate())
			} else {
				assert.Error(t, request.Validate())
			}
			assert.Equal(t, tt.normalized, request.Normalized().City)
			assert.Equal(t, tt.cacheKey, request.CacheKey())
		})
	}
}
