// Package pagination windows in-memory listings using json-server style
// query parameters (_page, _limit) and reports totals in response headers.
package pagination

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// TotalCountHeader carries the size of the unpaged listing.
	TotalCountHeader = "X-Total-Count"

	defaultLimit = 10
	maxLimit     = 100
)

// Window selects one page of a listing. A zero Limit selects everything.
type Window struct {
	Page  int
	Limit int
}

// Paged reports whether the window restricts the listing.
func (w Window) Paged() bool { return w.Limit > 0 }

// Parse reads _page and _limit from q. Without either parameter the whole
// listing is returned. Unparsable or out-of-range values are clamped.
func Parse(q url.Values) Window {
	rawPage, rawLimit := q.Get("_page"), q.Get("_limit")
	if rawPage == "" && rawLimit == "" {
		return Window{}
	}

	w := Window{Page: 1, Limit: defaultLimit}
	if n, err := strconv.Atoi(rawPage); err == nil && n > 1 {
		w.Page = n
	}
	if n, err := strconv.Atoi(rawLimit); err == nil && n > 0 {
		w.Limit = min(n, maxLimit)
	}
	return w
}

// bounds returns the slice indexes of the window over n items.
func (w Window) bounds(n int) (int, int) {
	if !w.Paged() {
		return 0, n
	}
	start := min((w.Page-1)*w.Limit, n)
	return start, min(start+w.Limit, n)
}

// lastPage is the number of the final non-empty page, at least 1.
func (w Window) lastPage(n int) int {
	if !w.Paged() || n == 0 {
		return 1
	}
	return (n + w.Limit - 1) / w.Limit
}

// Apply returns a copy of the items inside the window. It never returns nil.
func Apply[T any](all []T, w Window) []T {
	start, end := w.bounds(len(all))
	out := make([]T, end-start)
	copy(out, all[start:end])
	return out
}

// WriteHeaders sets X-Total-Count and, for paged requests, a Link header
// with first, prev, next and last relations built from the request URL.
func WriteHeaders(rw http.ResponseWriter, r *http.Request, w Window, total int) {
	rw.Header().Set(TotalCountHeader, strconv.Itoa(total))
	if !w.Paged() {
		return
	}

	last := w.lastPage(total)
	links := []string{link(r, w, 1, "first")}
	if w.Page > 1 {
		links = append(links, link(r, w, min(w.Page-1, last), "prev"))
	}
	if w.Page < last {
		links = append(links, link(r, w, w.Page+1, "next"))
	}
	links = append(links, link(r, w, last, "last"))
	rw.Header().Set("Link", strings.Join(links, ", "))
}

func link(r *http.Request, w Window, page int, rel string) string {
	u := *r.URL
	q := u.Query()
	q.Set("_page", strconv.Itoa(page))
	q.Set("_limit", strconv.Itoa(w.Limit))
	u.RawQuery = q.Encode()
	return fmt.Sprintf("<%s>; rel=%q", u.RequestURI(), rel)
}
