package plants

import "strings"

// MissingFieldsMessage is shown when a draft has an empty or blank field.
const MissingFieldsMessage = "Please fill in all fields"

// ValidationError is returned when a draft fails local validation. It never
// results from a network call.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Draft holds the editable fields of a plant as typed in the form.
type Draft struct {
	Name             string
	Description      string
	WateringSchedule string
}

// Trimmed returns a copy of the draft with surrounding whitespace removed from
// every field.
func (d Draft) Trimmed() Draft {
	return Draft{
		Name:             strings.TrimSpace(d.Name),
		Description:      strings.TrimSpace(d.Description),
		WateringSchedule: strings.TrimSpace(d.WateringSchedule),
	}
}

// IsZero reports whether every field is empty.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// Validate checks that no field is empty once trimmed. Whitespace-only input
// is rejected exactly like missing input. On success the trimmed draft is
// returned.
func (d Draft) Validate() (Draft, error) {
	t := d.Trimmed()
	var missing []string
	if t.Name == "" {
		missing = append(missing, "name")
	}
	if t.Description == "" {
		missing = append(missing, "description")
	}
	if t.WateringSchedule == "" {
		missing = append(missing, "wateringSchedule")
	}
	if len(missing) > 0 {
		return Draft{}, &ValidationError{Message: MissingFieldsMessage, Fields: missing}
	}
	return t, nil
}
