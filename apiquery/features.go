// Package apiquery translates URL query parameters into MongoDB filter,
// sort, projection and pagination clauses. Parsing is deliberately
// permissive: unknown keys become equality matches and malformed values
// pass through as-is instead of being rejected.
package apiquery

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 100
	maxLimit     = 1000
)

// reserved keys never take part in filtering.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// operator suffixes embedded in keys, e.g. price[gte]=500.
var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Features builds up a Mongo query from request parameters. Clauses are
// applied in a fixed order: Filter, Sort, LimitFields, Paginate.
type Features struct {
	params url.Values

	filter     bson.M
	sort       bson.D
	projection bson.M
	page       int64
	limit      int64

	// fields stripped from responses unless explicitly requested
	hiddenFields []string
}

// New creates a Features over the given query parameters. hiddenFields are
// excluded from the projection unless the caller asks for specific fields.
func New(params url.Values, hiddenFields ...string) *Features {
	return &Features{
		params:       params,
		filter:       bson.M{},
		page:         1,
		limit:        DefaultLimit,
		hiddenFields: hiddenFields,
	}
}

// Filter translates the non-reserved parameters into equality and
// relational matches.
func (f *Features) Filter() *Features {
	for key, values := range f.params {
		if reserved[key] || len(values) == 0 {
			continue
		}
		field, op := splitOperator(key)
		value := coerce(values[0])

		if op == "" {
			f.filter[field] = value
			continue
		}
		cond, ok := f.filter[field].(bson.M)
		if !ok {
			cond = bson.M{}
			f.filter[field] = cond
		}
		cond[op] = value
	}
	return f
}

// Sort parses the comma-separated sort list; a leading '-' means
// descending. Without a sort parameter results come back newest first.
func (f *Features) Sort() *Features {
	raw := f.params.Get("sort")
	if raw == "" {
		f.sort = bson.D{{Key: "created_at", Value: -1}}
		return f
	}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(field, "-") {
			dir = -1
			field = field[1:]
		}
		if field != "" {
			f.sort = append(f.sort, bson.E{Key: field, Value: dir})
		}
	}
	return f
}

// LimitFields builds the projection from the comma-separated inclusion
// list; absent, all fields minus the configured hidden ones are returned.
func (f *Features) LimitFields() *Features {
	raw := f.params.Get("fields")
	if raw == "" {
		if len(f.hiddenFields) > 0 {
			f.projection = bson.M{}
			for _, field := range f.hiddenFields {
				f.projection[field] = 0
			}
		}
		return f
	}
	f.projection = bson.M{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field != "" {
			f.projection[field] = 1
		}
	}
	return f
}

// Paginate computes skip/limit from page and limit parameters.
func (f *Features) Paginate() *Features {
	if page, err := strconv.ParseInt(f.params.Get("page"), 10, 64); err == nil && page > 0 {
		f.page = page
	}
	if limit, err := strconv.ParseInt(f.params.Get("limit"), 10, 64); err == nil && limit > 0 && limit <= maxLimit {
		f.limit = limit
	}
	return f
}

// Apply runs all clauses in their fixed order.
func (f *Features) Apply() *Features {
	return f.Filter().Sort().LimitFields().Paginate()
}

// Filters returns the computed filter document. The base filter is merged
// in and wins on conflicting keys, so invariants like the secret-tour
// exclusion cannot be overridden from the URL.
func (f *Features) Filters(base bson.M) bson.M {
	merged := bson.M{}
	for k, v := range f.filter {
		merged[k] = v
	}
	for k, v := range base {
		merged[k] = v
	}
	return merged
}

// FindOptions returns the sort, projection and pagination clauses as
// driver options for a Find call.
func (f *Features) FindOptions() *options.FindOptions {
	opts := options.Find().
		SetSkip((f.page - 1) * f.limit).
		SetLimit(f.limit)
	if len(f.sort) > 0 {
		opts.SetSort(f.sort)
	}
	if len(f.projection) > 0 {
		opts.SetProjection(f.projection)
	}
	return opts
}

// Page returns the requested page, used by callers to distinguish an empty
// first page from a page past the end of the result set.
func (f *Features) Page() int64 {
	return f.page
}

// Limit returns the effective page size.
func (f *Features) Limit() int64 {
	return f.limit
}

// splitOperator extracts a trailing bracketed operator from a key:
// "price[gte]" -> ("price", "$gte"). Unknown operators are left embedded
// in the key so the parameter degrades to an equality match.
func splitOperator(key string) (string, string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	if op, ok := operators[key[open+1:len(key)-1]]; ok {
		return key[:open], op
	}
	return key, ""
}

// coerce turns numeric-looking values into float64 so relational operators
// compare numbers, not strings. Everything else stays a string.
func coerce(value string) interface{} {
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}
	return value
}
