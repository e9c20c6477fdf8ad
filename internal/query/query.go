// Package query translates the where/sort/select/skip/limit/count request
// parameters into a MongoDB cursor pipeline. Filters are validated against a
// per-collection schema instead of being passed through to the store verbatim.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BadParamError marks a malformed or out-of-grammar query parameter. Handlers
// surface it as HTTP 400.
type BadParamError struct {
	Param string
}

func (e *BadParamError) Error() string {
	return "Invalid " + e.Param + " parameter"
}

// Kind is the value type expected for a filterable field.
type Kind int

const (
	KindID Kind = iota
	KindString
	KindBool
	KindTime
)

// Schema lists the filterable fields of a collection and its default page size.
type Schema struct {
	fields       map[string]Kind
	defaultLimit int64
}

// Tasks is the schema for the tasks collection (default limit 100).
func Tasks() Schema {
	return Schema{
		fields: map[string]Kind{
			"_id":              KindID,
			"name":             KindString,
			"description":      KindString,
			"deadline":         KindTime,
			"completed":        KindBool,
			"assignedUser":     KindID,
			"assignedUserName": KindString,
			"dateCreated":      KindTime,
		},
		defaultLimit: 100,
	}
}

// Users is the schema for the users collection (no default limit).
func Users() Schema {
	return Schema{
		fields: map[string]Kind{
			"_id":          KindID,
			"name":         KindString,
			"email":        KindString,
			"pendingTasks": KindID,
			"dateCreated":  KindTime,
		},
	}
}

// Options is a parsed, store-ready read request. Limit 0 means unbounded.
type Options struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.M
	Skip       int64
	Limit      int64
	Count      bool
}

var comparisonOps = map[string]bool{
	"$ne":  true,
	"$gt":  true,
	"$gte": true,
	"$lt":  true,
	"$lte": true,
}

// Parse validates the read parameters against the schema. Filter, sort and
// projection errors come back as *BadParamError; skip and limit fall back to
// their defaults when absent or unusable.
func Parse(params url.Values, s Schema) (Options, error) {
	opts := Options{Filter: bson.M{}}

	if raw := params.Get("where"); raw != "" {
		filter, err := parseWhere(raw, s)
		if err != nil {
			return Options{}, err
		}
		opts.Filter = filter
	}

	if raw := params.Get("sort"); raw != "" {
		sort, err := parseSort(raw, s)
		if err != nil {
			return Options{}, err
		}
		opts.Sort = sort
	}

	if raw := params.Get("select"); raw != "" {
		projection, err := parseSelect(raw, s)
		if err != nil {
			return Options{}, err
		}
		opts.Projection = projection
	}

	if n, err := strconv.ParseInt(params.Get("skip"), 10, 64); err == nil && n > 0 {
		opts.Skip = n
	}
	opts.Limit = s.defaultLimit
	if n, err := strconv.ParseInt(params.Get("limit"), 10, 64); err == nil && n > 0 {
		opts.Limit = n
	}
	if params.Get("count") == "true" {
		opts.Count = true
		opts.Limit = 0
	}

	return opts, nil
}

// ParseSelect handles the single-document read endpoints, which accept only a
// projection. A nil map means "return the whole document".
func ParseSelect(params url.Values, s Schema) (bson.M, error) {
	raw := params.Get("select")
	if raw == "" {
		return nil, nil
	}
	return parseSelect(raw, s)
}

func parseWhere(raw string, s Schema) (bson.M, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, &BadParamError{Param: "where"}
	}
	filter := bson.M{}
	for field, value := range obj {
		kind, ok := s.fields[field]
		if !ok {
			return nil, &BadParamError{Param: "where"}
		}
		cond, err := parseCondition(value, kind)
		if err != nil {
			return nil, &BadParamError{Param: "where"}
		}
		filter[field] = cond
	}
	return filter, nil
}

func parseCondition(value any, kind Kind) (any, error) {
	ops, isObject := value.(map[string]any)
	if !isObject {
		return convertScalar(value, kind)
	}
	cond := bson.M{}
	for op, operand := range ops {
		switch {
		case comparisonOps[op]:
			v, err := convertScalar(operand, kind)
			if err != nil {
				return nil, err
			}
			cond[op] = v
		case op == "$in" || op == "$nin":
			items, ok := operand.([]any)
			if !ok {
				return nil, fmt.Errorf("%s expects an array", op)
			}
			converted := make(bson.A, 0, len(items))
			for _, item := range items {
				v, err := convertScalar(item, kind)
				if err != nil {
					return nil, err
				}
				converted = append(converted, v)
			}
			cond[op] = converted
		case op == "$exists":
			b, ok := operand.(bool)
			if !ok {
				return nil, fmt.Errorf("$exists expects a boolean")
			}
			cond[op] = b
		default:
			return nil, fmt.Errorf("unsupported operator %q", op)
		}
	}
	if len(cond) == 0 {
		return nil, fmt.Errorf("empty operator object")
	}
	return cond, nil
}

func convertScalar(value any, kind Kind) (any, error) {
	if value == nil {
		if kind == KindID {
			return nil, nil
		}
		return nil, fmt.Errorf("null is only valid for reference fields")
	}
	switch kind {
	case KindID:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected an id string")
		}
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, err
		}
		return id, nil
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string")
		}
		return s, nil
	case KindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean")
		}
		return b, nil
	case KindTime:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a date string")
		}
		return parseTime(s)
	}
	return nil, fmt.Errorf("unknown field kind")
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD or RFC3339")
}

func parseSort(raw string, s Schema) (bson.D, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, &BadParamError{Param: "sort"}
	}
	keys, err := objectKeys(raw)
	if err != nil {
		return nil, &BadParamError{Param: "sort"}
	}
	sort := make(bson.D, 0, len(keys))
	for _, field := range keys {
		if _, ok := s.fields[field]; !ok {
			return nil, &BadParamError{Param: "sort"}
		}
		dir, err := sortDirection(obj[field])
		if err != nil {
			return nil, &BadParamError{Param: "sort"}
		}
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	return sort, nil
}

func sortDirection(value any) (int, error) {
	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()
		if err == nil && (n == 1 || n == -1) {
			return int(n), nil
		}
	case string:
		switch strings.ToLower(v) {
		case "asc", "ascending":
			return 1, nil
		case "desc", "descending":
			return -1, nil
		}
	}
	return 0, fmt.Errorf("sort direction must be 1, -1, asc or desc")
}

func parseSelect(raw string, s Schema) (bson.M, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, &BadParamError{Param: "select"}
	}
	if len(obj) == 0 {
		return nil, &BadParamError{Param: "select"}
	}
	projection := bson.M{}
	includes, excludes := 0, 0
	for field, value := range obj {
		if _, ok := s.fields[field]; !ok {
			return nil, &BadParamError{Param: "select"}
		}
		n, ok := value.(json.Number)
		if !ok {
			return nil, &BadParamError{Param: "select"}
		}
		switch n.String() {
		case "1":
			includes++
			projection[field] = 1
		case "0":
			projection[field] = 0
			// _id exclusion may ride along with inclusions; anything
			// else must not mix modes (Mongo rejects it server-side).
			if field != "_id" {
				excludes++
			}
		default:
			return nil, &BadParamError{Param: "select"}
		}
	}
	if includes > 0 && excludes > 0 {
		return nil, &BadParamError{Param: "select"}
	}
	return projection, nil
}

// decodeObject parses raw as a single JSON object, keeping numbers as
// json.Number so 1 and 1.0 stay distinguishable from strings.
func decodeObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data")
	}
	if obj == nil {
		return nil, fmt.Errorf("expected an object")
	}
	return obj, nil
}

// objectKeys returns the top-level keys of a JSON object in document order,
// which json.Unmarshal into a map would lose. Sort order is significant.
func objectKeys(raw string) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object")
	}
	var keys []string
	depth := 0
	expectKey := true
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return keys, nil
				}
				depth--
				if depth == 0 {
					expectKey = true
				}
			}
			continue
		}
		if depth == 0 && expectKey {
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("expected a key")
			}
			keys = append(keys, key)
			expectKey = false
			continue
		}
		if depth == 0 {
			expectKey = true
		}
	}
}
