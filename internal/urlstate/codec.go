// Package urlstate keeps table view state in a flat, shareable address
// (a URL query string) and decodes it back tolerantly.
package urlstate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

// Address keys
const (
	KeyPageIndex = "pageIndex"
	KeyPageSize  = "pageSize"
	KeyFilter    = "filter"
	KeyOrderBy   = "orderBy"
)

// orderByNone marks an explicit "no sort" so it survives a round trip even
// when the default sort is set.
const orderByNone = "none"

// Codec encodes one state slice into the address values and decodes it back.
// Decode never fails: missing or malformed fragments yield the slice default.
type Codec[T any] interface {
	Encode(v T, into url.Values)
	Decode(from url.Values) T
}

// PaginationCodec stores page index and size. Each field falls back to its
// default on its own (pageIndex=0, pageSize=50).
type PaginationCodec struct{}

func (PaginationCodec) Encode(p models.PaginationState, into url.Values) {
	into.Set(KeyPageIndex, strconv.Itoa(p.PageIndex))
	into.Set(KeyPageSize, strconv.Itoa(p.PageSize))
}

func (PaginationCodec) Decode(from url.Values) models.PaginationState {
	p := models.DefaultPagination()
	if idx, err := strconv.Atoi(from.Get(KeyPageIndex)); err == nil && idx >= 0 {
		p.PageIndex = idx
	}
	if size, err := strconv.Atoi(from.Get(KeyPageSize)); err == nil && size > 0 && size <= models.MaxPageSize {
		p.PageSize = size
	}
	return p
}

// FilterCodec stores each condition as one repeated "filter" value of the
// form column;type;operator;value. List values are comma separated. A single
// malformed entry makes the whole fragment decode to no filters.
type FilterCodec struct{}

var partEscaper = strings.NewReplacer("%", "%25", ";", "%3B", ",", "%2C")

func escapePart(s string) string {
	return partEscaper.Replace(s)
}

func (FilterCodec) Encode(conds []models.FilterCondition, into url.Values) {
	into.Del(KeyFilter)
	for _, c := range conds {
		into.Add(KeyFilter, encodeCondition(c))
	}
}

func (FilterCodec) Decode(from url.Values) []models.FilterCondition {
	entries := from[KeyFilter]
	conds := make([]models.FilterCondition, 0, len(entries))
	for _, entry := range entries {
		c, ok := decodeCondition(entry)
		if !ok {
			return []models.FilterCondition{}
		}
		conds = append(conds, c)
	}
	return conds
}

func encodeCondition(c models.FilterCondition) string {
	var payload string
	switch v := c.Value.(type) {
	case string:
		payload = escapePart(v)
	case float64:
		payload = strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = escapePart(item)
		}
		payload = strings.Join(items, ",")
	}
	return strings.Join([]string{
		escapePart(c.Column),
		escapePart(string(c.Type)),
		escapePart(string(c.Operator)),
		payload,
	}, ";")
}

func decodeCondition(entry string) (models.FilterCondition, bool) {
	parts := strings.Split(entry, ";")
	if len(parts) != 4 {
		return models.FilterCondition{}, false
	}
	column, err1 := url.PathUnescape(parts[0])
	typ, err2 := url.PathUnescape(parts[1])
	op, err3 := url.PathUnescape(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return models.FilterCondition{}, false
	}

	c := models.FilterCondition{
		Column:   column,
		Type:     models.FilterType(typ),
		Operator: models.FilterOperator(op),
	}

	switch c.Type {
	case models.TypeString, models.TypeDate:
		s, err := url.PathUnescape(parts[3])
		if err != nil {
			return models.FilterCondition{}, false
		}
		c.Value = s
	case models.TypeNumber:
		f, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return models.FilterCondition{}, false
		}
		c.Value = f
	case models.TypeCategorical:
		if parts[3] == "" {
			return models.FilterCondition{}, false
		}
		raw := strings.Split(parts[3], ",")
		values := make([]string, len(raw))
		for i, item := range raw {
			v, err := url.PathUnescape(item)
			if err != nil {
				return models.FilterCondition{}, false
			}
			values[i] = v
		}
		c.Value = values
	default:
		return models.FilterCondition{}, false
	}

	if err := c.Validate(); err != nil {
		return models.FilterCondition{}, false
	}
	return c, true
}

// OrderByCodec stores the sort key as column-DIRECTION, or "none" for an
// explicit absence of sort. Anything else decodes to Default.
type OrderByCodec struct {
	Default *models.OrderBy
}

func (OrderByCodec) Encode(o *models.OrderBy, into url.Values) {
	if o == nil {
		into.Set(KeyOrderBy, orderByNone)
		return
	}
	into.Set(KeyOrderBy, o.Column+"-"+string(o.Direction))
}

func (c OrderByCodec) Decode(from url.Values) *models.OrderBy {
	raw := from.Get(KeyOrderBy)
	if raw == orderByNone {
		return nil
	}
	i := strings.LastIndex(raw, "-")
	if i <= 0 {
		return c.defaultOrder()
	}
	dir := models.SortDirection(raw[i+1:])
	if dir != models.Ascending && dir != models.Descending {
		return c.defaultOrder()
	}
	return &models.OrderBy{Column: raw[:i], Direction: dir}
}

func (c OrderByCodec) defaultOrder() *models.OrderBy {
	if c.Default == nil {
		return nil
	}
	o := *c.Default
	return &o
}
