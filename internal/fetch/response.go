package fetch

import (
	"encoding/json"
	"maps"
	"net/http"
)

// Response is a fully-read HTTP response. Holding the body as bytes lets the
// cache keep a copy that is consumable independently of the one handed to
// the caller.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	c := &Response{
		StatusCode: r.StatusCode,
		Header:     maps.Clone(r.Header),
	}
	if r.Body != nil {
		c.Body = make([]byte, len(r.Body))
		copy(c.Body, r.Body)
	}
	return c
}
