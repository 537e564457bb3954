package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"ExoVista/internal/domain/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv or .json")
	ErrEmptyFile         = errors.New("file contains no observations")
	ErrMissingColumns    = errors.New("missing required columns")
	ErrTooManyRows       = errors.New("too many rows")
	// ErrThermalSchema is returned for period/depth/temperature files, which the
	// transit classifier cannot score.
	ErrThermalSchema = errors.New("thermal schema (orbital_period, transit_depth, temperature) is not supported; provide period, transit depth and planet radius")
)

type column int

const (
	colPeriod column = iota
	colDuration
	colDepth
	colPlanetRadius
	colStellarRadius
	colTemperature
)

// aliases are keyed by normalized header names.
var aliases = map[string]column{
	"period":          colPeriod,
	"orbitalperiod":   colPeriod,
	"duration":        colDuration,
	"transitduration": colDuration,
	"transitdepth":    colDepth,
	"depth":           colDepth,
	"planetradius":    colPlanetRadius,
	"stellarradius":   colStellarRadius,
	"temperature":     colTemperature,
}

var required = []struct {
	col  column
	name string
}{
	{colPeriod, "Period"},
	{colDepth, "Transit Depth"},
	{colPlanetRadius, "Planet Radius"},
}

// Row is one parsed record. Line is the 1-based CSV line or JSON element index.
type Row struct {
	Line        int
	Observation models.Observation
	Err         error
}

type Parser struct {
	maxRows int
}

type Option func(*Parser)

// WithMaxRows bounds the number of data rows accepted; zero means unbounded.
func WithMaxRows(n int) Option { return func(p *Parser) { p.maxRows = n } }

func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ParseFile dispatches on the extension of name.
func (p *Parser) ParseFile(name string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return p.ParseCSV(r)
	case ".json":
		return p.ParseJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

func (p *Parser) ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := map[column]int{}
	for i, h := range header {
		if c, ok := aliases[normalize(h)]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	if err := checkColumns(func(c column) bool { _, ok := index[c]; return ok }); err != nil {
		return nil, err
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if p.maxRows > 0 && len(rows) >= p.maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, p.maxRows)
		}
		row := Row{Line: line}
		row.Observation, row.Err = buildObservation(func(c column) (any, bool) {
			i, ok := index[c]
			if !ok || i >= len(rec) {
				return nil, false
			}
			return rec[i], true
		})
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

// ParseJSON accepts a single object or an array of objects.
func (p *Parser) ParseJSON(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}

	var objects []map[string]any
	switch v := doc.(type) {
	case map[string]any:
		objects = append(objects, v)
	case []any:
		for i, item := range v {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("decode json: element %d is not an object", i+1)
			}
			objects = append(objects, obj)
		}
	default:
		return nil, fmt.Errorf("decode json: expected object or array, got %T", doc)
	}
	if len(objects) == 0 {
		return nil, ErrEmptyFile
	}
	if p.maxRows > 0 && len(objects) > p.maxRows {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, p.maxRows)
	}

	// the schema check uses the first object, as a header row would
	first := normalizeKeys(objects[0])
	if err := checkColumns(func(c column) bool { _, ok := first[c]; return ok }); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(objects))
	for i, obj := range objects {
		fields := normalizeKeys(obj)
		row := Row{Line: i + 1}
		row.Observation, row.Err = buildObservation(func(c column) (any, bool) {
			v, ok := fields[c]
			return v, ok
		})
		rows = append(rows, row)
	}
	return rows, nil
}

func checkColumns(has func(column) bool) error {
	var missing []string
	for _, r := range required {
		if !has(r.col) {
			missing = append(missing, r.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if has(colTemperature) {
		return ErrThermalSchema
	}
	return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
}

func buildObservation(lookup func(column) (any, bool)) (models.Observation, error) {
	var obs models.Observation
	targets := []struct {
		col  column
		name string
		dst  *float64
	}{
		{colPeriod, "period", &obs.Period},
		{colDuration, "duration", &obs.Duration},
		{colDepth, "transitDepth", &obs.TransitDepth},
		{colPlanetRadius, "planetRadius", &obs.PlanetRadius},
		{colStellarRadius, "stellarRadius", &obs.StellarRadius},
	}
	for _, t := range targets {
		raw, ok := lookup(t.col)
		if !ok {
			continue
		}
		v, present, err := toFloat(raw)
		if err != nil {
			return obs, fmt.Errorf("%w: %s %v", models.ErrInvalidObservation, t.name, err)
		}
		if present {
			*t.dst = v
		}
	}
	return obs, nil
}

// toFloat reports present=false for empty cells and JSON nulls.
func toFloat(raw any) (v float64, present bool, err error) {
	switch x := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		v = x
	case json.Number:
		v, err = strconv.ParseFloat(x.String(), 64)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		v, err = strconv.ParseFloat(s, 64)
	default:
		return 0, false, fmt.Errorf("has unsupported type %T", raw)
	}
	if err != nil {
		return 0, false, fmt.Errorf("is not a number: %v", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, errors.New("must be a finite number")
	}
	return v, true, nil
}

// canonical names win over other aliases of the same column.
var canonical = map[column]string{
	colPeriod:        "period",
	colDuration:      "duration",
	colDepth:         "transitdepth",
	colPlanetRadius:  "planetradius",
	colStellarRadius: "stellarradius",
	colTemperature:   "temperature",
}

// normalizeKeys maps object keys onto columns. When several keys alias one
// column the canonical name wins, then the lexically first key.
func normalizeKeys(obj map[string]any) map[column]any {
	keys := slices.Sorted(maps.Keys(obj))
	out := make(map[column]any, len(obj))
	fromCanonical := make(map[column]bool, len(obj))
	for _, k := range keys {
		n := normalize(k)
		c, ok := aliases[n]
		if !ok {
			continue
		}
		_, dup := out[c]
		isCanonical := n == canonical[c]
		if !dup || (isCanonical && !fromCanonical[c]) {
			out[c] = obj[k]
			fromCanonical[c] = isCanonical
		}
	}
	return out
}

func normalize(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}
