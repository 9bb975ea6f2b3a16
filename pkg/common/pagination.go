package common

import (
	"net/http"
	"strconv"
)

// PaginationInfo contains pagination details. Paging is keyed on sequence
// ids: they are assigned once, never reused, and monotonic in insertion
// order, so a page boundary stays stable while entities are edited.
type PaginationInfo struct {
	AfterSequence int64 `json:"after_sequence"`
	PageSize      int   `json:"page_size"`
	Returned      int   `json:"returned"`
	HasMore       bool  `json:"has_more"`
	NextSequence  int64 `json:"next_sequence,omitempty"`
}

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// PageRequest is a parsed sequence-cursor page request.
type PageRequest struct {
	AfterSequence int64
	PageSize      int
}

// ParsePageRequest reads after_sequence and page_size query parameters,
// applying defaults and clamping the size.
func ParsePageRequest(r *http.Request) PageRequest {
	req := PageRequest{PageSize: defaultPageSize}
	if v := r.URL.Query().Get("after_sequence"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			req.AfterSequence = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			req.PageSize = n
		}
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	return req
}

// Paginate slices a sequence-ordered list at the cursor. The sequence
// extractor returns each item's sequence id.
func Paginate[T any](items []T, req PageRequest, sequence func(T) int64) ([]T, *PaginationInfo) {
	start := 0
	for start < len(items) && sequence(items[start]) <= req.AfterSequence {
		start++
	}
	end := start + req.PageSize
	hasMore := end < len(items)
	if !hasMore {
		end = len(items)
	}
	page := items[start:end]

	info := &PaginationInfo{
		AfterSequence: req.AfterSequence,
		PageSize:      req.PageSize,
		Returned:      len(page),
		HasMore:       hasMore,
	}
	if hasMore && len(page) > 0 {
		info.NextSequence = sequence(page[len(page)-1])
	}
	return page, info
}
