package models

// Requests for disposition HTTP and stream endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Period        float64 `json:"period" validate:"required,gt=0,lte=10000"`
	Duration      float64 `json:"duration" validate:"omitempty,gt=0,lte=24"`
	TransitDepth  float64 `json:"transitDepth" validate:"required,gt=0,lte=100"`
	PlanetRadius  float64 `json:"planetRadius" validate:"required,gt=0,lte=50"`
	StellarRadius float64 `json:"stellarRadius" validate:"omitempty,gt=0,lte=100"`
	Mode          string  `json:"mode" default:"manual" validate:"oneof=manual file"`
	Seed          *uint64 `json:"seed,omitempty"`
}

func (r *AnalyzeRequest) Observation() Observation {
	return Observation{
		Period:        r.Period,
		Duration:      r.Duration,
		TransitDepth:  r.TransitDepth,
		PlanetRadius:  r.PlanetRadius,
		StellarRadius: r.StellarRadius,
	}
}

type ExplainRequest struct {
	Observation AnalyzeRequest `json:"observation" validate:"required"`
	ModelOutput []float64      `json:"modelOutput" validate:"required,min=1,dive,gte=0,lte=1"`
}

// BatchRow is one classified (or rejected) row of an uploaded file.
type BatchRow struct {
	Line        int                `json:"line"`
	Observation Observation        `json:"observation"`
	Report      *DispositionReport `json:"report,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type BatchResult struct {
	Rows   []BatchRow `json:"rows"`
	Total  int        `json:"total"`
	Failed int        `json:"failed"`
}
