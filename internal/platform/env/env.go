// Package env reads TRAINFLOW_* style settings from the process environment.
// Unset and blank variables both yield the default.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func String(key string, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

// Required returns the trimmed value of key, or an error when it is unset or blank.
func Required(key string) (string, error) {
	v, ok := lookup(key)
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func parse[T any](key string, def T, conv func(string) (T, error)) (T, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	out, err := conv(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func Duration(key string, def time.Duration) (time.Duration, error) {
	return parse(key, def, time.ParseDuration)
}

func Bool(key string, def bool) (bool, error) {
	return parse(key, def, strconv.ParseBool)
}

func Int(key string, def int) (int, error) {
	return parse(key, def, strconv.Atoi)
}

func Float(key string, def float64) (float64, error) {
	return parse(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}
