package columns

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rebeliceyang/lazyscores/internal/models"
)

// TimeFormatter renders timestamps in the caller's layout and timezone
type TimeFormatter func(time.Time) string

// ScoreColumnOptions configures the score table schema
type ScoreColumnOptions struct {
	// LinkBaseURL prefixes link targets, e.g. "https://scores.example.com"
	LinkBaseURL string
	FormatTime  TimeFormatter
}

// Score table column ids
const (
	ColTimestamp     = models.FieldTimestamp
	ColID            = models.FieldID
	ColTraceID       = models.FieldTraceID
	ColObservationID = models.FieldObservationID
	ColTraceName     = models.FieldTraceName
	ColUserID        = models.FieldUserID
	ColName          = models.FieldName
	ColValue         = models.FieldValue
	ColSource        = models.FieldSource
	ColDataType      = models.FieldDataType
	ColComment       = models.FieldComment
	ColAuthorUserID  = models.FieldAuthorUserID
)

// DefaultOrderBy is the sort used when the address names none
func DefaultOrderBy() *models.OrderBy {
	return &models.OrderBy{Column: ColTimestamp, Direction: models.Descending}
}

// PinnedUserFilter scopes the table to a single user
func PinnedUserFilter(userID string) models.FilterCondition {
	return models.FilterCondition{
		Column:   ColUserID,
		Type:     models.TypeString,
		Operator: models.OpEqual,
		Value:    userID,
	}
}

// ScoreColumns declares the score table
func ScoreColumns(opts ScoreColumnOptions) []ColumnDefinition {
	formatTime := opts.FormatTime
	if formatTime == nil {
		formatTime = func(t time.Time) string { return t.Format(time.RFC3339) }
	}
	links := linkBuilder{base: strings.TrimRight(opts.LinkBaseURL, "/")}

	return []ColumnDefinition{
		{
			ID: ColTimestamp, Accessor: models.FieldTimestamp, Label: "Timestamp",
			Capabilities:     Capabilities{Sortable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeDate,
			Render:           timeField(models.FieldTimestamp, formatTime),
		},
		{
			ID: ColID, Accessor: models.FieldID, Label: "Score ID",
			Capabilities: Capabilities{Hideable: true},
			Render:       textField(models.FieldID),
		},
		{
			ID: ColTraceID, Accessor: models.FieldTraceID, Label: "Trace",
			Capabilities:     Capabilities{Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeString,
			Render:           links.trace,
		},
		{
			ID: ColObservationID, Accessor: models.FieldObservationID, Label: "Observation",
			Capabilities:     Capabilities{Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeString,
			Render:           links.observation,
		},
		{
			ID: ColTraceName, Accessor: models.FieldTraceName, Label: "Trace Name",
			Capabilities:     Capabilities{Sortable: true, Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeString,
			Render:           textField(models.FieldTraceName),
		},
		{
			ID: ColUserID, Accessor: models.FieldUserID, Label: "User",
			Capabilities:     Capabilities{Sortable: true, Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeString,
			Render:           links.user,
		},
		{
			ID: ColName, Accessor: models.FieldName, Label: "Name",
			Capabilities:     Capabilities{Sortable: true, Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeString,
			Render:           textField(models.FieldName),
		},
		{
			ID: ColValue, Accessor: models.FieldValue, Label: "Value",
			Capabilities:     Capabilities{Sortable: true, Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeNumber,
			Render:           scoreValue,
		},
		{
			ID: ColSource, Accessor: models.FieldSource, Label: "Source",
			Capabilities:     Capabilities{Sortable: true, Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeCategorical,
			Render:           textField(models.FieldSource),
		},
		{
			ID: ColDataType, Accessor: models.FieldDataType, Label: "Data Type",
			Capabilities: Capabilities{Hideable: true, Filterable: true},
			FilterType:   models.TypeCategorical,
			Render:       textField(models.FieldDataType),
		},
		{
			ID: ColComment, Accessor: models.FieldComment, Label: "Comment",
			Capabilities:     Capabilities{Hideable: true, Filterable: true},
			VisibleByDefault: true,
			FilterType:       models.TypeString,
			Render:           textField(models.FieldComment),
		},
		{
			ID: ColAuthorUserID, Accessor: models.FieldAuthorUserID, Label: "Author",
			Capabilities: Capabilities{Hideable: true},
			Render:       textField(models.FieldAuthorUserID),
		},
	}
}

// FormatNumber renders integral values as plain integers and everything
// else with four decimals.
func FormatNumber(v float64) string {
	if !math.IsInf(v, 0) && v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func textField(key string) RenderFunc {
	return func(row models.Fields) models.DisplayValue {
		s, ok := row.String(key)
		if !ok {
			return models.Absent()
		}
		return models.Text(s)
	}
}

func timeField(key string, format TimeFormatter) RenderFunc {
	return func(row models.Fields) models.DisplayValue {
		t, ok := row.Time(key)
		if !ok {
			return models.Absent()
		}
		return models.Text(format(t))
	}
}

// scoreValue shows the string value of categorical and boolean scores and
// the numeric value otherwise.
func scoreValue(row models.Fields) models.DisplayValue {
	if dataType, _ := row.String(models.FieldDataType); dataType != "" && dataType != "NUMERIC" {
		if s, ok := row.String(models.FieldStringValue); ok {
			return models.Text(s)
		}
	}
	v, ok := row.Number(models.FieldValue)
	if !ok {
		return models.Absent()
	}
	return models.Text(FormatNumber(v))
}

type linkBuilder struct {
	base string
}

func (l linkBuilder) project(row models.Fields) (string, bool) {
	projectID, ok := row.String(models.FieldProjectID)
	if !ok {
		return "", false
	}
	return l.base + "/project/" + url.PathEscape(projectID), true
}

func (l linkBuilder) trace(row models.Fields) models.DisplayValue {
	traceID, ok := row.String(models.FieldTraceID)
	if !ok {
		return models.Absent()
	}
	prefix, ok := l.project(row)
	if !ok {
		return models.Text(traceID)
	}
	return models.Link(prefix+"/traces/"+url.PathEscape(traceID), traceID)
}

// observation links into the parent trace, so it needs the traceId sibling
func (l linkBuilder) observation(row models.Fields) models.DisplayValue {
	observationID, ok := row.String(models.FieldObservationID)
	if !ok {
		return models.Absent()
	}
	traceID, hasTrace := row.String(models.FieldTraceID)
	prefix, hasProject := l.project(row)
	if !hasTrace || !hasProject {
		return models.Text(observationID)
	}
	target := prefix + "/traces/" + url.PathEscape(traceID) + "?observation=" + url.QueryEscape(observationID)
	return models.Link(target, observationID)
}

func (l linkBuilder) user(row models.Fields) models.DisplayValue {
	userID, ok := row.String(models.FieldUserID)
	if !ok {
		return models.Absent()
	}
	prefix, ok := l.project(row)
	if !ok {
		return models.Text(userID)
	}
	return models.Link(prefix+"/users/"+url.PathEscape(userID), userID)
}
