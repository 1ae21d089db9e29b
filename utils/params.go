package utils

import (
	"net/http"
	"strconv"
	"strings"
)

type QueryOptions struct {
	Page      int
	Limit     int
	Published *bool
	Search    string
	Type      string
}

func ParseQueryOptions(r *http.Request) QueryOptions {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var published *bool
	if pubStr := q.Get("published"); pubStr != "" {
		val := pubStr == "true"
		published = &val
	}

	return QueryOptions{
		Page:      page,
		Limit:     limit,
		Published: published,
		Search:    strings.TrimSpace(q.Get("search")),
		Type:      q.Get("type"),
	}
}

// Skip is the number of documents before the requested page.
func (o QueryOptions) Skip() int64 {
	return int64((o.Page - 1) * o.Limit)
}

func ContainsIgnoreCase(str, substr string) bool {
	return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
}
