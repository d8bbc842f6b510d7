package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Setter is a key/value target for credentials: http.Header, url.Values
// and *Params all satisfy it.
type Setter interface {
	Set(key, value string)
}

// Param is one ordered key/value pair
type Param struct {
	Key   string
	Value any
}

// Params is an ordered set of query or body fields. Unlike a map it keeps
// insertion order, which SetSearchParams and JSON encoding preserve.
type Params []Param

// Add appends a pair, keeping any earlier pair with the same key
func (p *Params) Add(key string, value any) {
	*p = append(*p, Param{Key: key, Value: value})
}

// Set replaces the first pair with key, or appends one
func (p *Params) Set(key, value string) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	p.Add(key, value)
}

// MarshalJSON encodes Params as an object with keys in order
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := marshalJSON(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AssertParamExists fails with a *RequiredError when value is the untyped
// nil, meaning the caller never supplied it. Zero values and typed nil
// pointers are explicit and pass.
func AssertParamExists(operation, paramName string, value any) error {
	if value == nil {
		return &RequiredError{
			Field: paramName,
			Msg:   fmt.Sprintf("Required parameter %s was null or undefined when calling %s.", paramName, operation),
		}
	}
	return nil
}

// SetSearchParams appends the flattened fields of each object to the URL's
// query, in order. Nested objects become dotted keys (user.address.city),
// slices are comma joined, nil values are skipped and repeated keys are
// kept. Objects may be Params, url.Values, map[string]any or
// map[string]string; map keys are taken in sorted order.
func SetSearchParams(u *url.URL, objects ...any) {
	var pairs []string
	for _, obj := range objects {
		flattenQuery(obj, "", &pairs)
	}
	if len(pairs) == 0 {
		return
	}
	encoded := strings.Join(pairs, "&")
	if u.RawQuery == "" {
		u.RawQuery = encoded
		return
	}
	u.RawQuery += "&" + encoded
}

func flattenQuery(v any, key string, out *[]string) {
	appendPair := func(s string) {
		if key == "" {
			return
		}
		*out = append(*out, url.QueryEscape(key)+"="+url.QueryEscape(s))
	}

	switch x := v.(type) {
	case nil:
		return
	case Params:
		for _, kv := range x {
			flattenQuery(kv.Value, joinKey(key, kv.Key), out)
		}
		return
	case *Params:
		if x != nil {
			flattenQuery(*x, key, out)
		}
		return
	case url.Values:
		for _, k := range sortedKeys(x) {
			for _, s := range x[k] {
				flattenQuery(s, joinKey(key, k), out)
			}
		}
		return
	case map[string]any:
		for _, k := range sortedKeys(x) {
			flattenQuery(x[k], joinKey(key, k), out)
		}
		return
	case map[string]string:
		for _, k := range sortedKeys(x) {
			flattenQuery(x[k], joinKey(key, k), out)
		}
		return
	case string:
		appendPair(x)
		return
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return
		}
		appendPair(x.String())
		return
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		flattenQuery(rv.Elem().Interface(), key, out)
		return
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = stringify(rv.Index(i).Interface())
		}
		appendPair(strings.Join(parts, ","))
		return
	}
	appendPair(stringify(v))
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// SerializeDataIfNeeded returns value as JSON text when the Content-Type in
// header is a JSON media type. Strings, byte slices and readers are never
// re-encoded, and any value is returned unchanged for non-JSON content.
func SerializeDataIfNeeded(value any, header http.Header, cfg *Configuration) (any, error) {
	switch value.(type) {
	case string, []byte, io.Reader:
		return value, nil
	}

	contentType := header.Get("Content-Type")
	isJSON := IsJSONMime(contentType)
	if cfg != nil {
		isJSON = cfg.IsJSONMime(contentType)
	}
	if !isJSON {
		return value, nil
	}
	if value == nil {
		return "{}", nil
	}

	data, err := marshalJSON(value)
	if err != nil {
		return nil, fmt.Errorf("serializing request body: %w", err)
	}
	return string(data), nil
}

// marshalJSON encodes without HTML escaping and without a trailing newline
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// SetAPIKeyToObject sets object[keyParamName] to the configured API key.
// It does nothing unless the configuration holds APIKey credentials.
func SetAPIKeyToObject(ctx context.Context, object Setter, keyParamName string, cfg *Configuration) error {
	if cfg == nil {
		return nil
	}
	key, ok := cfg.Credentials.(APIKey)
	if !ok {
		return nil
	}
	value, err := key.resolve(ctx, keyParamName)
	if err != nil {
		return fmt.Errorf("resolving api key %s: %w", keyParamName, err)
	}
	object.Set(keyParamName, value)
	return nil
}

// SetBasicAuthToObject records the configured username and password on
// options for the transport to encode. It does nothing unless the
// configuration holds BasicAuth credentials.
func SetBasicAuthToObject(_ context.Context, options *RequestOptions, cfg *Configuration) error {
	if cfg == nil {
		return nil
	}
	basic, ok := cfg.Credentials.(BasicAuth)
	if !ok {
		return nil
	}
	options.Auth = &BasicAuth{Username: basic.Username, Password: basic.Password}
	return nil
}

// SetBearerAuthToObject sets Authorization: Bearer <token> from BearerToken
// credentials.
func SetBearerAuthToObject(ctx context.Context, object Setter, cfg *Configuration) error {
	if cfg == nil {
		return nil
	}
	bearer, ok := cfg.Credentials.(BearerToken)
	if !ok {
		return nil
	}
	token, err := bearer.resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolving bearer token: %w", err)
	}
	object.Set("Authorization", "Bearer "+token)
	return nil
}

// SetOAuthToObject resolves an OAuth2 access token for name and scopes and
// sets it as a bearer Authorization header.
func SetOAuthToObject(ctx context.Context, object Setter, name string, scopes []string, cfg *Configuration) error {
	if cfg == nil {
		return nil
	}
	oauth, ok := cfg.Credentials.(OAuth2)
	if !ok {
		return nil
	}
	token, err := oauth.resolve(ctx, name, scopes)
	if err != nil {
		return fmt.Errorf("resolving oauth2 token for %s: %w", name, err)
	}
	object.Set("Authorization", "Bearer "+token)
	return nil
}

// ToPathString returns the path, query and fragment of u without scheme or
// host: http://example.com/path?query=1#hash becomes /path?query=1#hash.
func ToPathString(u *url.URL) string {
	s := u.EscapedPath()
	if s == "" && u.Host != "" {
		s = "/"
	}
	if u.RawQuery != "" {
		s += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		s += "#" + u.EscapedFragment()
	}
	return s
}
