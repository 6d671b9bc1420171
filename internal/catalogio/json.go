package catalogio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// Store is the persistence surface catalogio needs: enough to classify an
// imported record as new or duplicate before writing it. A narrower
// interface than repository.Repository's full method set, so tests can
// supply a lightweight double instead of a real database (mirrors
// internal/searchengine's Store interface).
type Store interface {
	FindByIdentifier(ctx context.Context, name string) (*types.CelestialObject, error)
	Upsert(ctx context.Context, obj *types.CelestialObject) error
}

// ImportJSON reads a top-level JSON array of objects from r and upserts
// each into store, by identifier (spec §6.1). Each object may mix
// CamelCase and snake_case keys; unknown keys are ignored; a record
// missing identifier is counted as an error rather than aborting the
// whole import.
func ImportJSON(ctx context.Context, r io.Reader, store Store) (types.ImportResult, error) {
	var raw []map[string]interface{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return types.ImportResult{}, fmt.Errorf("catalogio: decode json array: %w", err)
	}

	result := types.ImportResult{Total: len(raw)}
	for i, rec := range raw {
		obj, err := decodeJSONRecord(rec)
		if err != nil {
			result.Error++
			result.Errors = append(result.Errors, types.ImportError{
				Line: i + 1, Record: summarizeRecord(rec), Message: err.Error(),
			})
			continue
		}

		existing, err := store.FindByIdentifier(ctx, obj.Identifier)
		if err != nil {
			result.Error++
			result.Errors = append(result.Errors, types.ImportError{
				Line: i + 1, Record: obj.Identifier, Message: fmt.Sprintf("lookup existing record: %v", err),
			})
			continue
		}
		if existing != nil {
			obj.ID = existing.ID
			obj.CreatedAt = existing.CreatedAt
		}

		if err := store.Upsert(ctx, obj); err != nil {
			result.Error++
			result.Errors = append(result.Errors, types.ImportError{
				Line: i + 1, Record: obj.Identifier, Message: err.Error(),
			})
			continue
		}

		result.Success++
		if existing != nil {
			result.Duplicate++
		}
	}
	return result, nil
}

// decodeJSONRecord maps one decoded JSON object onto a CelestialObject,
// accepting either spelling of every field name (see normalizeKey) and
// both array and comma-string forms of aliases.
func decodeJSONRecord(rec map[string]interface{}) (*types.CelestialObject, error) {
	obj := &types.CelestialObject{}
	idx := fieldIndex(bindFieldSpecs(obj))

	for key, value := range rec {
		norm := normalizeKey(key)
		if norm == "aliases" {
			aliases, err := decodeAliases(value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			obj.Aliases = aliases
			continue
		}
		set, ok := idx[norm]
		if !ok {
			continue // unknown keys are ignored per spec §6.1
		}
		if err := set(obj, value); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
	}

	if obj.Identifier == "" {
		return nil, fmt.Errorf("missing required field identifier")
	}
	return obj, nil
}

// decodeAliases accepts either a JSON array of strings or a single
// comma-separated string, returning the repository's canonical
// comma-separated storage form.
func decodeAliases(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return "", fmt.Errorf("aliases array must contain only strings, got %T", item)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("aliases must be a string or array of strings, got %T", v)
	}
}

func summarizeRecord(rec map[string]interface{}) string {
	if id, ok := rec["identifier"]; ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	if id, ok := rec["Identifier"]; ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return "(unknown)"
}

// exportJSONObject builds the snake_case key/value view of obj used for
// export. Go's map[string]interface{} encodes keys in sorted order
// regardless of insertion order, so field order in the output JSON is
// alphabetical; this is acceptable since spec §6.1 only constrains key
// spelling and indentation, not key order.
func exportJSONObject(obj *types.CelestialObject) map[string]interface{} {
	specs := bindFieldSpecs(obj)
	out := make(map[string]interface{}, len(specs)+1)
	for _, spec := range specs {
		out[spec.canonical] = spec.get(obj)
	}
	aliases := obj.AliasList()
	if aliases == nil {
		aliases = []string{}
	}
	out["aliases"] = aliases
	return out
}

// ExportJSON writes objs as a JSON array keyed in snake_case, aliases
// always as an array, 2-space indent (spec §6.1).
func ExportJSON(w io.Writer, objs []*types.CelestialObject) error {
	records := make([]map[string]interface{}, len(objs))
	for i, obj := range objs {
		records[i] = exportJSONObject(obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("catalogio: encode json: %w", err)
	}
	return nil
}
