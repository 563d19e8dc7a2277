package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/buscador/internal/models"
)

// translateQuery converts the supported query DSL subset (match_all, match,
// multi_match, query_string, term) into a Bleve query.
func translateQuery(v any) (blevequery.Query, error) {
	if v == nil {
		return bleve.NewMatchAllQuery(), nil
	}
	clause, ok := v.(map[string]any)
	if !ok || len(clause) != 1 {
		return nil, fmt.Errorf("%w: query must hold exactly one clause", models.ErrUnsupportedQuery)
	}
	for kind, arg := range clause {
		switch kind {
		case "match_all":
			return bleve.NewMatchAllQuery(), nil
		case "match":
			field, val, err := singleField(kind, arg, "query")
			if err != nil {
				return nil, err
			}
			return matchQuery(fmt.Sprint(val), field, 0), nil
		case "multi_match":
			return multiMatch(arg)
		case "query_string":
			return queryString(arg)
		case "term":
			field, val, err := singleField(kind, arg, "value")
			if err != nil {
				return nil, err
			}
			return termQuery(field, val), nil
		default:
			return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedQuery, kind)
		}
	}
	return nil, fmt.Errorf("%w: empty query", models.ErrUnsupportedQuery)
}

// singleField unpacks {field: value} or {field: {inner: value}}.
func singleField(kind string, arg any, inner string) (string, any, error) {
	m, ok := arg.(map[string]any)
	if !ok || len(m) != 1 {
		return "", nil, fmt.Errorf("%w: %s needs exactly one field", models.ErrUnsupportedQuery, kind)
	}
	for field, val := range m {
		if obj, ok := val.(map[string]any); ok {
			val, ok = obj[inner]
			if !ok {
				return "", nil, fmt.Errorf("%w: %s.%s missing %q", models.ErrUnsupportedQuery, kind, field, inner)
			}
		}
		return field, val, nil
	}
	return "", nil, fmt.Errorf("%w: %s needs exactly one field", models.ErrUnsupportedQuery, kind)
}

func matchQuery(text, field string, boost float64) blevequery.Query {
	mq := bleve.NewMatchQuery(text)
	if field != "" && !strings.Contains(field, "*") {
		mq.SetField(field)
	}
	if boost > 0 {
		mq.SetBoost(boost)
	}
	return mq
}

// parseField splits "name^boost".
func parseField(f string) (string, float64) {
	name, b, ok := strings.Cut(f, "^")
	if !ok {
		return f, 0
	}
	boost, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return name, 0
	}
	return name, boost
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func fieldsQuery(text string, fields []string) blevequery.Query {
	if len(fields) == 0 {
		return matchQuery(text, "", 0)
	}
	qs := make([]blevequery.Query, 0, len(fields))
	for _, f := range fields {
		name, boost := parseField(f)
		qs = append(qs, matchQuery(text, name, boost))
	}
	if len(qs) == 1 {
		return qs[0]
	}
	return bleve.NewDisjunctionQuery(qs...)
}

func multiMatch(arg any) (blevequery.Query, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: multi_match must be an object", models.ErrUnsupportedQuery)
	}
	text, ok := m["query"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: multi_match.query must be a string", models.ErrUnsupportedQuery)
	}
	return fieldsQuery(text, stringList(m["fields"])), nil
}

func queryString(arg any) (blevequery.Query, error) {
	m, ok := arg.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: query_string must be an object", models.ErrUnsupportedQuery)
	}
	text, ok := m["query"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: query_string.query must be a string", models.ErrUnsupportedQuery)
	}
	if fields := stringList(m["fields"]); len(fields) > 0 {
		return fieldsQuery(text, fields), nil
	}
	return bleve.NewQueryStringQuery(text), nil
}

func termQuery(field string, val any) blevequery.Query {
	switch t := val.(type) {
	case bool:
		q := bleve.NewBoolFieldQuery(t)
		q.SetField(field)
		return q
	case float64:
		incl := true
		q := bleve.NewNumericRangeInclusiveQuery(&t, &t, &incl, &incl)
		q.SetField(field)
		return q
	default:
		q := bleve.NewTermQuery(fmt.Sprint(t))
		q.SetField(field)
		return q
	}
}
