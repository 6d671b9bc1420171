// Package catalogio implements the JSON and CSV file formats of spec §6.1:
// parsing tolerant of either CamelCase or snake_case keys (plus a handful
// of legacy J2000-survey column spellings), and canonical snake_case
// export. Grounded on the teacher's internal/importer Result-accumulation
// style, adapted to the spec's ImportResult{total, success, error,
// duplicate, errors[]} shape; both directions use only
// encoding/json and encoding/csv, matching the teacher's own
// hand-rolled (non-third-party) JSONL import/export.
package catalogio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// fieldSetter assigns a decoded JSON value onto obj.
type fieldSetter func(obj *types.CelestialObject, value interface{}) error

// fieldSpec describes one CelestialObject field; canonical is the
// snake_case name used for JSON export and as the primary registration key
// for import.
type fieldSpec struct {
	canonical string   // snake_case export key
	aliases   []string // additional accepted spellings beyond case/underscore folding
	set       fieldSetter
	get       func(obj *types.CelestialObject) interface{}
}

func strSetter(dst *string) fieldSetter {
	return func(obj *types.CelestialObject, v interface{}) error {
		s, err := toString(v)
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
}

func floatSetter(dst *float64) fieldSetter {
	return func(obj *types.CelestialObject, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

// fieldSpecs describes every CelestialObject field catalogio reads and
// writes. Field accessors close over the obj passed at call time via
// bindFieldSpecs, since Go has no direct "pointer to struct field by name"
// without reflection and reflection would obscure the mapping spec §6.1
// documents by name.
func bindFieldSpecs(obj *types.CelestialObject) []fieldSpec {
	return []fieldSpec{
		{canonical: "identifier", set: strSetter(&obj.Identifier), get: func(o *types.CelestialObject) interface{} { return o.Identifier }},
		{canonical: "type", set: strSetter(&obj.Type), get: func(o *types.CelestialObject) interface{} { return o.Type }},
		{canonical: "morphology", set: strSetter(&obj.Morphology), get: func(o *types.CelestialObject) interface{} { return o.Morphology }},
		{canonical: "class_name", set: strSetter(&obj.ClassName), get: func(o *types.CelestialObject) interface{} { return o.ClassName }},
		{canonical: "duplicate_type", set: strSetter(&obj.DuplicateType), get: func(o *types.CelestialObject) interface{} { return o.DuplicateType }},
		{canonical: "m_identifier", set: strSetter(&obj.MIdentifier), get: func(o *types.CelestialObject) interface{} { return o.MIdentifier }},
		{canonical: "extension_name", set: strSetter(&obj.ExtensionName), get: func(o *types.CelestialObject) interface{} { return o.ExtensionName }},
		{canonical: "component", set: strSetter(&obj.Component), get: func(o *types.CelestialObject) interface{} { return o.Component }},
		{canonical: "chinese_name", set: strSetter(&obj.ChineseName), get: func(o *types.CelestialObject) interface{} { return o.ChineseName }},

		{canonical: "ra_text", aliases: []string{"ra_j2000"}, set: strSetter(&obj.RAText), get: func(o *types.CelestialObject) interface{} { return o.RAText }},
		{canonical: "dec_text", aliases: []string{"dec_j2000"}, set: strSetter(&obj.DecText), get: func(o *types.CelestialObject) interface{} { return o.DecText }},
		{canonical: "ra_deg", aliases: []string{"rad_j2000"}, set: floatSetter(&obj.RADeg), get: func(o *types.CelestialObject) interface{} { return o.RADeg }},
		{canonical: "dec_deg", aliases: []string{"dec_d_j2000"}, set: floatSetter(&obj.DecDeg), get: func(o *types.CelestialObject) interface{} { return o.DecDeg }},

		{canonical: "visual_magnitude", aliases: []string{"visual_magnitude_v"}, set: floatSetter(&obj.VisualMagnitude), get: func(o *types.CelestialObject) interface{} { return o.VisualMagnitude }},
		{canonical: "photographic_magnitude", set: floatSetter(&obj.PhotographicMagnitude), get: func(o *types.CelestialObject) interface{} { return o.PhotographicMagnitude }},
		{canonical: "b_minus_v", set: floatSetter(&obj.BMinusV), get: func(o *types.CelestialObject) interface{} { return o.BMinusV }},
		{canonical: "surface_brightness", set: floatSetter(&obj.SurfaceBrightness), get: func(o *types.CelestialObject) interface{} { return o.SurfaceBrightness }},

		{canonical: "major_axis", set: floatSetter(&obj.MajorAxis), get: func(o *types.CelestialObject) interface{} { return o.MajorAxis }},
		{canonical: "minor_axis", set: floatSetter(&obj.MinorAxis), get: func(o *types.CelestialObject) interface{} { return o.MinorAxis }},
		{canonical: "position_angle", set: floatSetter(&obj.PositionAngle), get: func(o *types.CelestialObject) interface{} { return o.PositionAngle }},

		{canonical: "brief_description", set: strSetter(&obj.BriefDescription), get: func(o *types.CelestialObject) interface{} { return o.BriefDescription }},
		{canonical: "detailed_description", set: strSetter(&obj.DetailedDescription), get: func(o *types.CelestialObject) interface{} { return o.DetailedDescription }},

		{canonical: "constellation_en", set: strSetter(&obj.Constellation), get: func(o *types.CelestialObject) interface{} { return o.Constellation }},
		{canonical: "constellation_zh", set: strSetter(&obj.ConstellationZh), get: func(o *types.CelestialObject) interface{} { return o.ConstellationZh }},

		{canonical: "click_count", set: int64Setter(&obj.ClickCount), get: func(o *types.CelestialObject) interface{} { return o.ClickCount }},
		{canonical: "amateur_rank", set: intSetter(&obj.AmateurRank), get: func(o *types.CelestialObject) interface{} { return o.AmateurRank }},
	}
}

func int64Setter(dst *int64) fieldSetter {
	return func(obj *types.CelestialObject, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*dst = int64(f)
		return nil
	}
}

func intSetter(dst *int) fieldSetter {
	return func(obj *types.CelestialObject, v interface{}) error {
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*dst = int(f)
		return nil
	}
}

// normalizeKey folds away case and underscore differences so "RAJ2000" and
// "ra_j2000" compare equal, per spec §6.1's "either CamelCase or
// snake_case... both spellings are accepted."
func normalizeKey(s string) string {
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return strings.ToLower(s)
}

// fieldIndex maps a normalized key to its setter, built once per
// bindFieldSpecs call (cheap: a few dozen entries).
func fieldIndex(specs []fieldSpec) map[string]fieldSetter {
	idx := make(map[string]fieldSetter, len(specs)*2)
	for _, spec := range specs {
		idx[normalizeKey(spec.canonical)] = spec.set
		for _, alias := range spec.aliases {
			idx[normalizeKey(alias)] = spec.set
		}
	}
	return idx
}

func toString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T for string field", v)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		if t == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("parse numeric field %q: %w", t, err)
		}
		return f, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T for numeric field", v)
	}
}
