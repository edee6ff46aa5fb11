// Package geo handles loading and saving of polygon feature collections
// and the planar segment math shared by the topology checks.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnsupportedGeometry is returned for anything that is not a Polygon or MultiPolygon.
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
	// ErrEmptyGeometry is returned for a missing geometry, one without rings
	// or one holding an empty ring.
	ErrEmptyGeometry = errors.New("empty geometry")
)

// LoadFeatureCollection reads a GeoJSON FeatureCollection from disk.
func LoadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return fc, nil
}

// LoadFeature reads a single GeoJSON Feature from disk.
func LoadFeature(path string) (*geojson.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return f, nil
}

// LoadFeatures reads every file in dir matching the fmt pattern, whose single
// %s verb stands for the feature key. Features are keyed by their id, or by the
// key part of the file name when the id is absent or empty.
func LoadFeatures(dir, pattern string) (map[string]*geojson.Feature, error) {
	prefix, suffix, ok := strings.Cut(pattern, "%s")
	if !ok {
		return nil, fmt.Errorf("pattern %q has no %%s verb", pattern)
	}

	paths, err := filepath.Glob(filepath.Join(dir, prefix+"*"+suffix))
	if err != nil {
		return nil, err
	}

	out := make(map[string]*geojson.Feature, len(paths))
	for _, path := range paths {
		f, err := LoadFeature(path)
		if err != nil {
			return nil, err
		}

		key := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), prefix), suffix)
		if id, ok := featureID(f); ok {
			key = id
		}
		out[key] = f
	}

	return out, nil
}

// SaveFeatureCollection marshals the feature collection and writes it to disk.
func SaveFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	return save(path, fc, false)
}

// SaveFeature writes a single indented feature to disk.
func SaveFeature(path string, f *geojson.Feature) error {
	return save(path, f, true)
}

// WriteFile writes data to path, creating the parent directories first.
func WriteFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

func save(path string, v any, indent bool) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	enc := json.NewEncoder(f)
	if indent {
		enc.SetIndent("", "  ")
	}

	return enc.Encode(v)
}

// FeatureKey returns the feature id as text, or its index when the id is absent or empty.
func FeatureKey(f *geojson.Feature, index int) string {
	if id, ok := featureID(f); ok {
		return id
	}
	return strconv.Itoa(index)
}

func featureID(f *geojson.Feature) (string, bool) {
	switch id := f.ID.(type) {
	case nil:
		return "", false
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return fmt.Sprint(id), true
	}
}

// Polygons returns the polygons of a Polygon or MultiPolygon geometry.
func Polygons(g orb.Geometry) ([]orb.Polygon, error) {
	var polys []orb.Polygon

	switch v := g.(type) {
	case nil:
		return nil, ErrEmptyGeometry
	case orb.Polygon:
		polys = []orb.Polygon{v}
	case orb.MultiPolygon:
		polys = []orb.Polygon(v)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}

	for _, p := range polys {
		if len(p) == 0 {
			return nil, ErrEmptyGeometry
		}
		for _, r := range p {
			if len(r) == 0 {
				return nil, ErrEmptyGeometry
			}
		}
	}
	if len(polys) == 0 {
		return nil, ErrEmptyGeometry
	}

	return polys, nil
}

// Rings returns every ring of every polygon, exterior first.
func Rings(polys []orb.Polygon) []orb.Ring {
	var rings []orb.Ring
	for _, p := range polys {
		rings = append(rings, p...)
	}
	return rings
}

// ExteriorVertexCount sums the vertices of all exterior rings.
func ExteriorVertexCount(g orb.Geometry) int {
	polys, err := Polygons(g)
	if err != nil {
		return 0
	}

	count := 0
	for _, p := range polys {
		count += len(p[0])
	}
	return count
}
