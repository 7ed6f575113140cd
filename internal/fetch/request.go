// Package fetch performs governed HTTP calls against the auction API:
// rate-limited via ratelimit.Limiter, retried with exponential backoff on
// rate-limit responses and transient network failures, and deduplicated
// through a TTL response cache.
package fetch

import (
	"net/http"
	"sort"
	"strings"
)

// Request describes one outbound HTTP call. The body is held as bytes so a
// request can be retried without re-reading a stream.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// CacheKey returns a deterministic serialization of the request. Header keys
// are sorted so semantically identical requests built in different orders
// produce the same key.
func (r Request) CacheKey() string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte('\n')
	b.WriteString(r.URL)
	b.WriteByte('\n')

	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(r.Header[k], ","))
		b.WriteByte('\n')
	}

	b.Write(r.Body)
	return b.String()
}
