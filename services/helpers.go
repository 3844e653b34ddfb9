package services

import (
	"maps"
	"net/url"
	"slices"
)

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

// withQuery appends params to rawURL, keeping any query it already has.
func withQuery(rawURL string, params map[string]string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for _, k := range sortedKeys(params) {
		q.Set(k, params[k])
	}
	u.RawQuery = q.Encode()

	return u.String()
}
