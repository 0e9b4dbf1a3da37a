package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func RequireString(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		panic(fmt.Sprintf("environment variable %q is required", key))
	}

	return val
}

func String(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	return val
}

// OneOf returns the value of key if it is one of allowed, def otherwise.
func OneOf(key, def string, allowed ...string) string {
	val := strings.ToLower(String(key, def))
	for _, a := range allowed {
		if val == a {
			return val
		}
	}

	return def
}

func Int(key string, def int) int {
	val, ok := lookupParsed(key, strconv.Atoi)
	if !ok {
		return def
	}

	return val
}

func Int64(key string, def int64) int64 {
	val, ok := lookupParsed(key, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
	if !ok {
		return def
	}

	return val
}

func Bool(key string, def bool) bool {
	val, ok := lookupParsed(key, strconv.ParseBool)
	if !ok {
		return def
	}

	return val
}

func Duration(key string, def time.Duration) time.Duration {
	val, ok := lookupParsed(key, time.ParseDuration)
	if !ok {
		return def
	}

	return val
}

func lookupParsed[T any](key string, parse func(string) (T, error)) (T, bool) {
	var zero T

	raw, ok := os.LookupEnv(key)
	if !ok {
		return zero, false
	}

	val, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return zero, false
	}

	return val, true
}
