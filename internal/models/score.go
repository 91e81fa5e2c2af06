package models

import "time"

// ScoreRecord is one labeling-score event as returned by the record source
type ScoreRecord struct {
	ID          string
	ProjectID   string
	Name        string
	Source      string
	DataType    string
	Value       float64
	StringValue *string
	Timestamp   time.Time

	// Optional references
	TraceID       *string
	ObservationID *string
	TraceName     *string
	UserID        *string
	AuthorUserID  *string
	Comment       *string
}

// Field accessors of a flattened score row
const (
	FieldID            = "id"
	FieldProjectID     = "projectId"
	FieldTimestamp     = "timestamp"
	FieldName          = "name"
	FieldValue         = "value"
	FieldStringValue   = "stringValue"
	FieldSource        = "source"
	FieldDataType      = "dataType"
	FieldTraceID       = "traceId"
	FieldObservationID = "observationId"
	FieldTraceName     = "traceName"
	FieldUserID        = "userId"
	FieldAuthorUserID  = "authorUserId"
	FieldComment       = "comment"
)

// Fields flattens the record. Missing optional fields are left out so that
// renderers see them as absent.
func (r ScoreRecord) Fields() Fields {
	f := Fields{
		FieldID:        r.ID,
		FieldProjectID: r.ProjectID,
		FieldName:      r.Name,
		FieldValue:     r.Value,
		FieldSource:    r.Source,
		FieldDataType:  r.DataType,
	}
	if !r.Timestamp.IsZero() {
		f[FieldTimestamp] = r.Timestamp
	}
	optional := map[string]*string{
		FieldStringValue:   r.StringValue,
		FieldTraceID:       r.TraceID,
		FieldObservationID: r.ObservationID,
		FieldTraceName:     r.TraceName,
		FieldUserID:        r.UserID,
		FieldAuthorUserID:  r.AuthorUserID,
		FieldComment:       r.Comment,
	}
	for key, value := range optional {
		if value != nil {
			f[key] = *value
		}
	}
	return f
}

// Fields is a flattened record keyed by accessor
type Fields map[string]interface{}

// String returns a non-empty string field
func (f Fields) String(key string) (string, bool) {
	s, ok := f[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Number returns a numeric field
func (f Fields) Number(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Time returns a non-zero timestamp field
func (f Fields) Time(key string) (time.Time, bool) {
	t, ok := f[key].(time.Time)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
