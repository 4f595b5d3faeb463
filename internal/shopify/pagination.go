package shopify

import (
	"net/url"

	"github.com/tomnomnom/linkheader"
)

// nextPageInfo extracts the page_info cursor of the rel="next" entry of a Link header.
// No such entry means there are no further pages.
func nextPageInfo(link string) string {
	for _, next := range linkheader.Parse(link).FilterByRel("next") {
		u, err := url.Parse(next.URL)
		if err != nil {
			continue
		}
		if cursor := u.Query().Get("page_info"); cursor != "" {
			return cursor
		}
	}
	return ""
}
