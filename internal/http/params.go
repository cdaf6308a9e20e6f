package httpapi

import (
	"net/http"
	"strconv"
)

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// pageParams reads page/pageSize and converts them to limit/offset.
func pageParams(r *http.Request) (limit, offset int) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit = queryInt(r, "pageSize", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

func queryBoolPtr(r *http.Request, key string) *bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
