package fileio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"tabular/internal/table"
)

// ReadJSON parses a JSON file into an all-Text table. Three layouts are
// accepted: a top-level array of objects, an envelope object holding
// one array-of-objects field, and NDJSON (one object per line). Nested
// objects are flattened with dotted keys; the header set is the union
// of keys across records, sorted.
func ReadJSON(path string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: read %s: %w", path, err)
	}
	return readJSONBytes(path, data)
}

func readJSONBytes(path string, data []byte) (*table.Table, error) {
	recs, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("fileio: json %s: %w", path, err)
	}
	if len(recs) == 0 {
		return table.New(nil)
	}

	flat := make([]map[string]any, len(recs))
	for i, r := range recs {
		out := make(map[string]any, len(r))
		flattenRecord("", r, out)
		flat[i] = out
	}

	headers := unionKeys(flat)
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		values := make([]any, len(flat))
		for j, r := range flat {
			values[j] = jsonCell(r[h])
		}
		cols[i] = table.Column{Name: h, Type: table.Text, Values: values}
	}
	return table.New(cols)
}

// decodeRecords extracts the record objects from the decoded document.
func decodeRecords(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var out []map[string]any
	switch v := root.(type) {
	case []any:
		for _, it := range v {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}

	case map[string]any:
		// Envelope support: unwrap the first array-of-objects field.
		if slice := findObjectSlice(v); slice != nil {
			out = slice
		} else {
			out = append(out, v)
		}

	default:
		return nil, fmt.Errorf("top-level value is not an object or array")
	}

	// NDJSON / multiple top-level objects.
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			break
		}
		if obj != nil {
			out = append(out, obj)
		}
	}

	return out, nil
}

func findObjectSlice(root map[string]any) []map[string]any {
	for _, v := range root {
		rawSlice, ok := v.([]any)
		if !ok || len(rawSlice) == 0 {
			continue
		}
		objects := make([]map[string]any, 0, len(rawSlice))
		valid := true
		for _, elem := range rawSlice {
			if elem == nil {
				continue
			}
			m, ok := elem.(map[string]any)
			if !ok {
				valid = false
				break
			}
			objects = append(objects, m)
		}
		if valid && len(objects) > 0 {
			return objects
		}
	}
	return nil
}

func flattenRecord(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flattenRecord(key, m, out)
			continue
		}
		out[key] = v
	}
}

func unionKeys(recs []map[string]any) []string {
	set := make(map[string]struct{})
	for _, r := range recs {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// jsonCell renders a decoded JSON value as raw text for the inference
// engine. Missing keys and explicit nulls become nulls.
func jsonCell(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return cellValue(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		// Arrays survive as their JSON encoding.
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	}
}
