package chatkit

import (
	"net/url"
	"strconv"
	"strings"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Query is an ordered list of query parameters. Unlike url.Values it keeps
// insertion order, which is the order parameters appear in the built URL.
// Repeated keys are allowed.
type Query []Param

// NewQuery builds a query from alternating key/value strings.
// A trailing key without a value is paired with "".
func NewQuery(kv ...string) Query {
	q := make(Query, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		p := Param{Key: kv[i]}
		if i+1 < len(kv) {
			p.Value = kv[i+1]
		}
		q = append(q, p)
	}

	return q
}

// Add appends a parameter and returns the extended query.
func (q Query) Add(key, value string) Query {
	return append(q, Param{Key: key, Value: value})
}

// AddInt appends an integer parameter.
func (q Query) AddInt(key string, value int) Query {
	return q.Add(key, strconv.Itoa(value))
}

// AddBool appends a boolean parameter as "true" or "false".
func (q Query) AddBool(key string, value bool) Query {
	return q.Add(key, strconv.FormatBool(value))
}

// Encode form-encodes the query in order, with spaces as '+'.
// It returns "" for an empty query.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}

	return b.String()
}
