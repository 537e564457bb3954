package api

import (
	"github.com/labstack/echo/v4"

	"ExoVista/internal/domain/models"
	xhttp "ExoVista/pkg/http"
)

type paramInfo struct {
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Max      float64 `json:"max"`
	Required string  `json:"required"`
}

type infoResponse struct {
	Version    string      `json:"version"`
	Engine     string      `json:"engine"`
	Parameters []paramInfo `json:"parameters"`
	CSVFormat  csvFormat   `json:"csv_format"`
	Endpoints  []string    `json:"endpoints"`
}

type csvFormat struct {
	Columns  []string `json:"columns"`
	Optional []string `json:"optional"`
	Example  string   `json:"example"`
}

var info = infoResponse{
	Version: APIVersion,
	Engine:  "rule-based",
	Parameters: []paramInfo{
		{Name: "period", Unit: "days", Max: models.MaxPeriod, Required: "always"},
		{Name: "duration", Unit: "hours", Max: models.MaxDuration, Required: "manual mode"},
		{Name: "transitDepth", Unit: "%", Max: models.MaxTransitDepth, Required: "always"},
		{Name: "planetRadius", Unit: "Earth radii", Max: models.MaxPlanetRadius, Required: "always"},
		{Name: "stellarRadius", Unit: "solar radii", Max: models.MaxStellarRadius, Required: "manual mode"},
	},
	CSVFormat: csvFormat{
		Columns:  []string{"Period", "Transit Depth", "Planet Radius"},
		Optional: []string{"Duration", "Stellar Radius"},
		Example:  "Period,Duration,Transit Depth,Planet Radius,Stellar Radius\n3.52,2.9,1.2,11.4,1.1",
	},
	Endpoints: []string{
		"GET /health",
		"GET /info",
		"POST /api/analyze",
		"POST /api/predict",
		"POST /api/explain",
		"GET /api/stream",
		"GET /metrics",
	},
}

func (h *DispositionHandler) Info(c echo.Context) error {
	return xhttp.SuccessResponse(c, info)
}
