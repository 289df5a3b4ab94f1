package store

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultPage  = 1
	defaultLimit = 100
)

// reserved query parameters consumed by the builder itself; they never reach
// the filter predicate.
var reservedParams = map[string]struct{}{
	"page":   {},
	"limit":  {},
	"sort":   {},
	"fields": {},
}

// comparison keywords accepted inside bracket keys, e.g. ?price[lte]=500.
// Anything else in bracket position is dropped rather than passed to the
// driver, so raw operators cannot be injected through the query string.
var comparisonOps = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Features translates a request query string into a Mongo filter plus find
// options. The four steps chain and stay lazy: nothing touches the database
// until a collection executes the finished Filter/Opts pair.
//
//	NewFeatures(q).ApplyFilter().ApplySort().SelectFields().Paginate()
type Features struct {
	values url.Values
	Filter bson.M
	Opts   *options.FindOptions
}

func NewFeatures(values url.Values) *Features {
	return &Features{
		values: values,
		Filter: bson.M{},
		Opts:   options.Find(),
	}
}

// ApplyFilter builds the filter predicate from every non-reserved parameter.
// Plain keys become equality matches; bracket keys carry range comparisons.
func (f *Features) ApplyFilter() *Features {
	for key, vals := range f.values {
		if len(vals) == 0 {
			continue
		}
		if _, reserved := reservedParams[key]; reserved {
			continue
		}
		field, op, bracketed := splitBracketKey(key)
		if !bracketed {
			f.Filter[key] = coerceValue(vals[0])
			continue
		}
		mongoOp, known := comparisonOps[op]
		if !known {
			continue
		}
		sub, ok := f.Filter[field].(bson.M)
		if !ok {
			sub = bson.M{}
			f.Filter[field] = sub
		}
		sub[mongoOp] = coerceValue(vals[0])
	}
	return f
}

// ApplySort parses a comma-separated field list, a leading '-' meaning
// descending. No ordering is imposed when the parameter is absent.
func (f *Features) ApplySort() *Features {
	raw := f.values.Get("sort")
	if raw == "" {
		return f
	}
	var sort bson.D
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
		sort = append(sort, bson.E{Key: field, Value: dir})
	}
	if len(sort) > 0 {
		f.Opts.SetSort(sort)
	}
	return f
}

// SelectFields parses the fields parameter into a projection. Without one,
// only the legacy version field is excluded.
func (f *Features) SelectFields() *Features {
	raw := f.values.Get("fields")
	if raw == "" {
		f.Opts.SetProjection(bson.M{"__v": 0})
		return f
	}
	projection := bson.M{}
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			projection[field[1:]] = 0
		} else {
			projection[field] = 1
		}
	}
	if len(projection) > 0 {
		f.Opts.SetProjection(projection)
	}
	return f
}

// Paginate turns page/limit into a skip/limit pair. Out-of-range pages are
// not rejected here; they simply yield an empty result set.
func (f *Features) Paginate() *Features {
	page := positiveInt(f.values.Get("page"), defaultPage)
	limit := positiveInt(f.values.Get("limit"), defaultLimit)
	f.Opts.SetSkip(int64((page - 1) * limit))
	f.Opts.SetLimit(int64(limit))
	return f
}

// splitBracketKey splits "price[lte]" into ("price", "lte", true).
func splitBracketKey(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	field = key[:open]
	op = key[open+1 : len(key)-1]
	if field == "" || op == "" {
		return "", "", false
	}
	return field, op, true
}

// coerceValue parses numbers and booleans so range comparisons work against
// numeric fields; everything else stays a literal string.
func coerceValue(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
