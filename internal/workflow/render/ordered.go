package render

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/animus-labs/trainflow/internal/domain"
)

// pathKeySuffix marks a parameter whose value is resolved at execution time.
const pathKeySuffix = ".$"

type member struct {
	key   string
	value any
}

// orderedObject is a JSON object that keeps its member order.
type orderedObject []member

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encode(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encode(m.value)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", m.key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// parameters converts a domain parameter object, suffixing keys that hold a
// path expression.
func parameters(obj domain.Object) (orderedObject, error) {
	out := make(orderedObject, 0, len(obj))
	seen := make(map[string]struct{}, len(obj))
	for _, f := range obj {
		key := f.Key
		if _, ok := f.Value.(domain.PathExpr); ok {
			key += pathKeySuffix
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate parameter key %q", key)
		}
		seen[key] = struct{}{}
		val, err := parameterValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Key, err)
		}
		out = append(out, member{key: key, value: val})
	}
	return out, nil
}

func parameterValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case domain.PathExpr:
		return string(val), nil
	case domain.Object:
		return parameters(val)
	case []any:
		items := make([]any, 0, len(val))
		for i, item := range val {
			converted, err := parameterValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, converted)
		}
		return items, nil
	case string, bool, int, int32, int64, float64:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported parameter value of type %T", v)
	}
}
