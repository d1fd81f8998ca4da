package youtube

import "google.golang.org/api/iterator"

// ListPage fetches one page of a paginated list operation. It receives the
// page token from the previous response ("" for the first page) and returns
// the page's items plus the next page token ("" when there are no more pages).
type ListPage[T any] func(pageToken string) (items []T, next string, err error)

// Pager drives a paginated list operation to completion, one item at a time.
// Next returns iterator.Done after the last item of the last page. A Pager is
// single-use; build a fresh one to walk the listing again.
type Pager[T any] struct {
	fetch   ListPage[T]
	items   []T
	next    string
	started bool
	err     error
}

// NewPager builds a Pager over a page-fetching function.
func NewPager[T any](fetch ListPage[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch}
}

// Next returns the next item of the walked listing.
func (p *Pager[T]) Next() (T, error) {
	var zero T
	if p.err != nil {
		return zero, p.err
	}

	for len(p.items) == 0 {
		if p.started && p.next == "" {
			p.err = iterator.Done
			return zero, p.err
		}

		items, next, err := p.fetch(p.next)
		if err != nil {
			p.err = err
			return zero, p.err
		}
		p.started = true
		p.items = items
		p.next = next
	}

	item := p.items[0]
	p.items = p.items[1:]
	return item, nil
}
