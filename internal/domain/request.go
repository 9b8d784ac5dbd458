package domain

// FirstPage is the page index of seed and detail requests.
const FirstPage = 1

// Request is a unit of crawl work. It is immutable once created.
type Request struct {
	url     string
	kind    PageKind
	context Context
	page    int
}

// NewRequest creates a first-page request.
func NewRequest(url string, kind PageKind, ctx Context) Request {
	return Request{url: url, kind: kind, context: ctx, page: FirstPage}
}

// URL returns the address to fetch.
func (r Request) URL() string { return r.url }

// Kind returns the page kind that decides the extraction rule.
func (r Request) Kind() PageKind { return r.kind }

// Context returns the data carried from the parent page.
func (r Request) Context() Context { return r.context }

// Page returns the 1-based pagination index.
func (r Request) Page() int { return r.page }

// Next returns the request for the following page of the same listing.
func (r Request) Next(url string) Request {
	return Request{url: url, kind: r.kind, context: r.context, page: r.page + 1}
}
