package paginator

import (
	"context"

	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/query"
)

// Page is one numbered page of root records.
type Page struct {
	Number int             `json:"number"`
	Size   int             `json:"size"`
	Total  int64           `json:"total"`
	Pages  int             `json:"pages"`
	Items  []*query.Record `json:"items"`
}

// HasNext reports whether a page follows this one.
func (pg *Page) HasNext() bool {
	return pg.Number < pg.Pages
}

// Page returns page number (1-based) of the given size. A number past the
// last page is clamped to the last page.
func (p *Paginator) Page(ctx context.Context, number, size int) (*Page, error) {
	if number < 1 {
		return nil, core.NewValidationError("page", "page number must be at least 1, got %d", number)
	}
	if size <= 0 {
		return nil, core.NewValidationError("size", "page size must be positive, got %d", size)
	}

	total, err := p.Count(ctx)
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(size) - 1) / int64(size))

	page := &Page{Number: number, Size: size, Total: total, Pages: pages, Items: []*query.Record{}}
	if pages == 0 {
		page.Number = 1
		return page, nil
	}
	if page.Number > pages {
		page.Number = pages
	}

	items, err := p.Items(ctx, (page.Number-1)*size, size)
	if err != nil {
		return nil, err
	}
	page.Items = items
	return page, nil
}
