package domain

// Field is one key of an ordered parameter object.
type Field struct {
	Key   string
	Value any
}

// Param is shorthand for building Object literals.
func Param(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Object is a parameter object whose key order is kept as declared. Values are
// strings, numbers, bools, PathExpr, nested Object, or []any of those.
type Object []Field

func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// With returns a copy of o with key set to value, replacing an existing key in place.
func (o Object) With(key string, value any) Object {
	out := make(Object, 0, len(o)+1)
	replaced := false
	for _, f := range o {
		if f.Key == key {
			out = append(out, Field{Key: key, Value: value})
			replaced = true
			continue
		}
		out = append(out, f)
	}
	if !replaced {
		out = append(out, Field{Key: key, Value: value})
	}
	return out
}

func (o Object) Keys() []string {
	out := make([]string, 0, len(o))
	for _, f := range o {
		out = append(out, f.Key)
	}
	return out
}

// PathExprs walks o depth-first and returns every PathExpr it holds.
func (o Object) PathExprs() []PathExpr {
	var out []PathExpr
	for _, f := range o {
		out = collectPathExprs(f.Value, out)
	}
	return out
}

func collectPathExprs(v any, out []PathExpr) []PathExpr {
	switch val := v.(type) {
	case PathExpr:
		out = append(out, val)
	case Object:
		for _, f := range val {
			out = collectPathExprs(f.Value, out)
		}
	case []any:
		for _, item := range val {
			out = collectPathExprs(item, out)
		}
	}
	return out
}
