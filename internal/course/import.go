package course

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tkrajina/gpxgo/gpx"
	"github.com/tormoder/fit"

	"github.com/lancewilhelm/shpacer-sub001/internal/pacing"
)

// decodeSegments turns an uploaded route file into geometry segments,
// one per track segment or line string, in source order.
func decodeSegments(format string, data []byte) ([][]pacing.Coordinate, error) {
	switch format {
	case "gpx":
		return parseGPX(data)
	case "fit":
		return parseFIT(data)
	case "geojson":
		return parseGeoJSON(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func parseGPX(data []byte) ([][]pacing.Coordinate, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	var segments [][]pacing.Coordinate
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			points := make([]pacing.Coordinate, 0, len(seg.Points))
			for _, p := range seg.Points {
				points = append(points, gpxCoordinate(p))
			}
			if len(points) > 0 {
				segments = append(segments, points)
			}
		}
	}
	if len(segments) > 0 {
		return segments, nil
	}

	// Planned routes carry geometry in <rte> instead of <trk>.
	for _, rte := range g.Routes {
		points := make([]pacing.Coordinate, 0, len(rte.Points))
		for _, p := range rte.Points {
			points = append(points, gpxCoordinate(p))
		}
		if len(points) > 0 {
			segments = append(segments, points)
		}
	}
	if len(segments) == 0 {
		return nil, errNoTrackPoints
	}
	return segments, nil
}

func gpxCoordinate(p gpx.GPXPoint) pacing.Coordinate {
	c := pacing.Coordinate{Lat: p.Latitude, Lng: p.Longitude}
	if p.Elevation.NotNull() {
		c.ElevationM = p.Elevation.Value()
	}
	return c
}

func parseFIT(data []byte) ([][]pacing.Coordinate, error) {
	f, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse fit: %w", err)
	}

	var records []*fit.RecordMsg
	if course, err := f.Course(); err == nil {
		records = course.Records
	} else if activity, err := f.Activity(); err == nil {
		records = activity.Records
	} else {
		return nil, errors.New("fit file has no course or activity records")
	}

	points := make([]pacing.Coordinate, 0, len(records))
	for _, rec := range records {
		lat := rec.PositionLat.Degrees()
		lng := rec.PositionLong.Degrees()
		if math.IsNaN(lat) || math.IsNaN(lng) {
			continue
		}
		elev := rec.GetEnhancedAltitudeScaled()
		if math.IsNaN(elev) {
			elev = rec.GetAltitudeScaled()
		}
		if math.IsNaN(elev) {
			elev = 0
		}
		points = append(points, pacing.Coordinate{Lat: lat, Lng: lng, ElevationM: elev})
	}
	if len(points) == 0 {
		return nil, errNoTrackPoints
	}
	return [][]pacing.Coordinate{points}, nil
}

// GeoJSON positions are [lng, lat] with an optional third elevation
// element, so coordinates are decoded directly to keep that element.
type geoJSONObject struct {
	Type        string           `json:"type"`
	Features    []geoJSONFeature `json:"features"`
	Geometry    *geoJSONGeometry `json:"geometry"`
	Coordinates json.RawMessage  `json:"coordinates"`
}

type geoJSONFeature struct {
	Geometry *geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func parseGeoJSON(data []byte) ([][]pacing.Coordinate, error) {
	var obj geoJSONObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	var geometries []*geoJSONGeometry
	switch obj.Type {
	case "FeatureCollection":
		for _, f := range obj.Features {
			if f.Geometry != nil {
				geometries = append(geometries, f.Geometry)
			}
		}
	case "Feature":
		if obj.Geometry != nil {
			geometries = append(geometries, obj.Geometry)
		}
	case "LineString", "MultiLineString":
		geometries = append(geometries, &geoJSONGeometry{Type: obj.Type, Coordinates: obj.Coordinates})
	default:
		return nil, fmt.Errorf("unsupported geojson type %q", obj.Type)
	}

	var segments [][]pacing.Coordinate
	for _, g := range geometries {
		switch g.Type {
		case "LineString":
			var positions [][]float64
			if err := json.Unmarshal(g.Coordinates, &positions); err != nil {
				return nil, fmt.Errorf("parse geojson coordinates: %w", err)
			}
			if seg := positionsToSegment(positions); len(seg) > 0 {
				segments = append(segments, seg)
			}
		case "MultiLineString":
			var lines [][][]float64
			if err := json.Unmarshal(g.Coordinates, &lines); err != nil {
				return nil, fmt.Errorf("parse geojson coordinates: %w", err)
			}
			for _, positions := range lines {
				if seg := positionsToSegment(positions); len(seg) > 0 {
					segments = append(segments, seg)
				}
			}
		}
	}
	if len(segments) == 0 {
		return nil, errNoTrackPoints
	}
	return segments, nil
}

func positionsToSegment(positions [][]float64) []pacing.Coordinate {
	seg := make([]pacing.Coordinate, 0, len(positions))
	for _, pos := range positions {
		if len(pos) < 2 {
			continue
		}
		c := pacing.Coordinate{Lng: pos[0], Lat: pos[1]}
		if len(pos) > 2 {
			c.ElevationM = pos[2]
		}
		seg = append(seg, c)
	}
	return seg
}

var errNoTrackPoints = errors.New("no usable track points")
