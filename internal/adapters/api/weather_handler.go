package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"weathersub.app/internal/core/weather"
	"weathersub.app/pkg/errors"
)

// WeatherResponse represents the HTTP response for weather data
type WeatherResponse struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	City        string  `json:"city"`
}

// getWeather handles GET /api/weather requests
func (s *HTTPServerAdapter) getWeather(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		s.handleError(c, errors.NewValidationError("city parameter is required"))
		return
	}

	slog.Debug("Getting weather for city", "city", city)

	weatherData, err := s.weatherUseCase.GetWeather(c.Request.Context(), weather.WeatherRequest{City: city})
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, WeatherResponse{
		Temperature: weatherData.Temperature,
		Humidity:    weatherData.Humidity,
		Description: weatherData.Description,
		City:        weatherData.City,
	})
}
