package messages

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mgmu/planttracker/internal/plants"
)

// Spellings accepted for the identifier and watering schedule keys. The plant
// store renamed both across its versions, so readers accept either one.
var (
	idKeys       = []string{"id", "identifier"}
	scheduleKeys = []string{"wateringSchedule", "watering_schedule"}
)

// JsonPlant describes a plant as a json object, as written by the plant store.
// Decoding is tolerant of the older and newer key spellings.
type JsonPlant struct {
	Id               int64  `json:"id,omitempty"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	WateringSchedule string `json:"watering_schedule"`

	// InvalidID holds an identifier that could not be read as an integer.
	// The plant is then treated as having none.
	InvalidID string `json:"-"`
}

// UnmarshalJSON reads a plant object accepting "id" or "identifier" (number
// or numeric string) and "wateringSchedule" or "watering_schedule". An
// unreadable identifier does not fail the decoding; it is kept in InvalidID.
func (p *JsonPlant) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("messages: plant is null")
	}

	var out JsonPlant
	for _, k := range idKeys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		id, err := decodeID(raw)
		if err != nil {
			if out.InvalidID == "" {
				out.InvalidID = string(bytes.TrimSpace(raw))
			}
			continue
		}
		if id != 0 {
			out.Id = id
			out.InvalidID = ""
			break
		}
	}
	if err := decodeString(fields, []string{"name"}, &out.Name); err != nil {
		return err
	}
	if err := decodeString(fields, []string{"description"}, &out.Description); err != nil {
		return err
	}
	if err := decodeString(fields, scheduleKeys, &out.WateringSchedule); err != nil {
		return err
	}
	*p = out
	return nil
}

// decodeID accepts a JSON number, a numeric string or null. Numbers written
// with a fraction are accepted when the fraction is zero, as in 7.0.
func decodeID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if id, err := n.Int64(); err == nil {
			return id, nil
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return 0, fmt.Errorf("identifier %s is not an integer", n)
		}
		return int64(f), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("identifier is neither a number nor a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// decodeString stores the first non-null value found under keys into dst.
func decodeString(fields map[string]json.RawMessage, keys []string, dst *string) error {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("messages: field %q: %w", k, err)
		}
		return nil
	}
	return nil
}

// Plant converts the wire object to the domain type.
func (p JsonPlant) Plant() plants.Plant {
	return plants.Plant{
		ID:               p.Id,
		Name:             p.Name,
		Description:      p.Description,
		WateringSchedule: p.WateringSchedule,
	}
}

// FromPlant converts a domain plant to its wire object.
func FromPlant(p plants.Plant) JsonPlant {
	return JsonPlant{
		Id:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		WateringSchedule: p.WateringSchedule,
	}
}

// JsonDraft is the request body of create and update calls.
type JsonDraft struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	WateringSchedule string `json:"wateringSchedule"`
}

// UnmarshalJSON accepts both watering schedule spellings, so that older
// clients can still write to the store.
func (d *JsonDraft) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var out JsonDraft
	if err := decodeString(fields, []string{"name"}, &out.Name); err != nil {
		return err
	}
	if err := decodeString(fields, []string{"description"}, &out.Description); err != nil {
		return err
	}
	if err := decodeString(fields, scheduleKeys, &out.WateringSchedule); err != nil {
		return err
	}
	*d = out
	return nil
}

func (d JsonDraft) Draft() plants.Draft {
	return plants.Draft{
		Name:             d.Name,
		Description:      d.Description,
		WateringSchedule: d.WateringSchedule,
	}
}

func FromDraft(d plants.Draft) JsonDraft {
	return JsonDraft{
		Name:             d.Name,
		Description:      d.Description,
		WateringSchedule: d.WateringSchedule,
	}
}

// JsonError is the error body returned by the plant store on failure.
// Detail is usually a string, but validation failures may carry a list.
type JsonError struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// NewJsonError builds an error body with a textual detail.
func NewJsonError(detail string) JsonError {
	raw, _ := json.Marshal(detail)
	return JsonError{Detail: raw}
}

// Message returns the detail when it is a string, or "" otherwise.
func (e JsonError) Message() string {
	var s string
	if len(e.Detail) == 0 || json.Unmarshal(e.Detail, &s) != nil {
		return ""
	}
	return s
}

// jsonPlantList is the envelope some store versions wrap the list in.
type jsonPlantList struct {
	Plants []JsonPlant `json:"plants"`
}

// DecodePlantList parses a list response. Both a bare array and an object
// with a "plants" array are accepted.
func DecodePlantList(body []byte) ([]JsonPlant, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("messages: empty plant list body")
	}
	switch body[0] {
	case '[':
		var list []JsonPlant
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var env jsonPlantList
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		if env.Plants == nil {
			return nil, errors.New(`messages: object has no "plants" array`)
		}
		return env.Plants, nil
	}
	return nil, fmt.Errorf("messages: unexpected plant list body starting with %q", body[0])
}
