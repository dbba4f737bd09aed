package pagination

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 500

// Params holds pagination parameters extracted from a request. A zero Limit
// means the caller asked for the whole ordered sequence.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads limit and offset query parameters. Absent values yield
// an unbounded page starting at 0; malformed or negative values are errors.
func FromContext(c echo.Context) (Params, error) {
	var p Params

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Params{}, fmt.Errorf("limit must be a positive integer")
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		p.Limit = limit
	}

	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Params{}, fmt.Errorf("offset must be a non-negative integer")
		}
		p.Offset = offset
	}

	return p, nil
}

// Unbounded reports whether no limit was requested.
func (p Params) Unbounded() bool {
	return p.Limit == 0
}

// Window returns the [start, end) indexes of the page within total items.
func (p Params) Window(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	end = total
	if !p.Unbounded() && start+p.Limit < total {
		end = start + p.Limit
	}
	return start, end
}

// Apply slices an already ordered sequence down to the requested page.
func Apply[T any](items []T, p Params) []T {
	start, end := p.Window(len(items))
	return items[start:end]
}

// Response wraps a paginated API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Count   int         `json:"count"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit,omitempty"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`

	// Set only when the neighbouring page exists.
	PrevOffset *int `json:"prev_offset,omitempty"`
	NextOffset *int `json:"next_offset,omitempty"`
}

// NewResponse describes one page: count items out of total.
func NewResponse(data interface{}, count, total int, p Params) *Response {
	r := &Response{
		Success: true,
		Data:    data,
		Count:   count,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.HasNext(total),
	}
	if r.HasMore {
		next := p.NextOffset()
		r.NextOffset = &next
	}
	if p.HasPrevious() {
		prev := p.PreviousOffset()
		r.PrevOffset = &prev
	}
	return r
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return !p.Unbounded() && p.Offset+p.Limit < total
}

// HasPrevious returns true if there are results before the current page.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// PreviousOffset returns the offset for the previous page.
// Returns 0 if the result would be negative or no limit is set.
func (p Params) PreviousOffset() int {
	if p.Unbounded() {
		return 0
	}
	prev := p.Offset - p.Limit
	if prev < 0 {
		return 0
	}
	return prev
}
