package http

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

// maxFieldsBody caps JSON and form bodies; uploads have their own limit.
const maxFieldsBody = 64 << 10

// fields is a request body flattened to string values. Registration
// endpoints accept either JSON or a form, and lists arrive as JSON arrays
// or as CRLF separated form values.
type fields struct {
	values url.Values
	json   bool
}

// readFields parses the body of r according to its Content-Type.
func readFields(w http.ResponseWriter, r *http.Request) (fields, *authsdk.OAuth2Error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/json":
		r.Body = http.MaxBytesReader(w, r.Body, maxFieldsBody)

		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return fields{}, authsdk.NewOAuth2Error(http.StatusBadRequest,
				authsdk.ErrorCodeInvalidRequest, "invalid json body")
		}
		f := fields{values: url.Values{}, json: true}
		for k, v := range raw {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				f.values.Set(k, s)
				continue
			}
			var list []string
			if err := json.Unmarshal(v, &list); err == nil {
				f.values[k] = list
			}
		}
		return f, nil

	case "application/x-www-form-urlencoded", "multipart/form-data", "":
		r.Body = http.MaxBytesReader(w, r.Body, maxFieldsBody)
		if err := r.ParseForm(); err != nil {
			return fields{}, authsdk.ErrInvalidFormBody
		}
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxFieldsBody); err != nil {
				return fields{}, authsdk.ErrInvalidFormBody
			}
		}
		return fields{values: r.PostForm}, nil

	default:
		return fields{}, authsdk.ErrUnsupportedMediaType
	}
}

// get returns the first value of key, trimmed.
func (f fields) get(key string) string {
	return strings.TrimSpace(f.values.Get(key))
}

// raw returns the first value of key untouched, for secrets.
func (f fields) raw(key string) string {
	return f.values.Get(key)
}

// list returns every value of key. Form values are split on line breaks.
func (f fields) list(key string) []string {
	vs := f.values[key]
	if f.json {
		return vs
	}
	var out []string
	for _, v := range vs {
		out = append(out, httpx.ParseLineDelimitedFields(v)...)
	}
	return out
}

// listOr returns list(key), falling back to list(alt). Form registration
// uses singular field names for its lists.
func (f fields) listOr(key, alt string) []string {
	if vs := f.list(key); len(vs) > 0 {
		return vs
	}
	return f.list(alt)
}
