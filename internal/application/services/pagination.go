package services

import (
	"strconv"
	"strings"

	"github.com/zatekoja/pricefinder/internal/domain/entities"
)

// ParsePageParams parses page and limit, clamping both to at least 1.
// Non-numeric input falls back to page 1 and defaultLimit; maxLimit of 0 disables the upper bound.
func ParsePageParams(rawPage, rawLimit string, defaultLimit, maxLimit int) (page, limit int) {
	if defaultLimit < 1 {
		defaultLimit = entities.DefaultLimit
	}

	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil {
		page = entities.DefaultPage
	}
	limit, err = strconv.Atoi(strings.TrimSpace(rawLimit))
	if err != nil {
		limit = defaultLimit
	}

	page = max(page, 1)
	limit = max(limit, 1)
	if maxLimit > 0 {
		limit = min(limit, maxLimit)
	}
	return page, limit
}

// Paginate returns the page-th window of limit items together with its metadata.
// A page past the end yields an empty window, never an error.
func Paginate[T any](items []T, page, limit int) ([]T, entities.PageMeta) {
	page = max(page, 1)
	if limit < 1 {
		limit = entities.DefaultLimit
	}

	total := len(items)
	meta := entities.PageMeta{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}

	if page > meta.Pages {
		return []T{}, meta
	}
	offset := (page - 1) * limit
	end := min(offset+limit, total)
	return items[offset:end], meta
}
