package messages

import (
	"encoding/json"
	"testing"

	"github.com/mgmu/planttracker/internal/plants"
)

func TestJsonPlantAcceptsBothSpellings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want plants.Plant
	}{
		{
			name: "store spelling",
			body: `{"id":1,"name":"Rose","description":"Red","watering_schedule":"Weekly"}`,
			want: plants.Plant{ID: 1, Name: "Rose", Description: "Red", WateringSchedule: "Weekly"},
		},
		{
			name: "camel case spelling",
			body: `{"identifier":2,"name":"Tomato","description":"Vine","wateringSchedule":"Daily"}`,
			want: plants.Plant{ID: 2, Name: "Tomato", Description: "Vine", WateringSchedule: "Daily"},
		},
		{
			name: "identifier as string",
			body: `{"identifier":"7","name":"Basil","description":"Herb","wateringSchedule":"Daily"}`,
			want: plants.Plant{ID: 7, Name: "Basil", Description: "Herb", WateringSchedule: "Daily"},
		},
		{
			name: "missing identifier",
			body: `{"name":"Fern","description":"Shade","wateringSchedule":"Twice a week"}`,
			want: plants.Plant{Name: "Fern", Description: "Shade", WateringSchedule: "Twice a week"},
		},
		{
			name: "null identifier",
			body: `{"id":null,"name":"Fern","description":"Shade","watering_schedule":null}`,
			want: plants.Plant{Name: "Fern", Description: "Shade"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p JsonPlant
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := p.Plant(); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestJsonPlantRejectsNull(t *testing.T) {
	var p JsonPlant
	if err := json.Unmarshal([]byte(`null`), &p); err == nil {
		t.Error("Expected error for null plant, got nil")
	}
}

func TestJsonPlantUnreadableIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantID    int64
		invalidID string
	}{
		{"letters", `{"identifier":"a1b2","name":"Rose"}`, 0, `"a1b2"`},
		{"fraction", `{"id":7.5,"name":"Rose"}`, 0, `7.5`},
		{"object", `{"id":{"n":1},"name":"Rose"}`, 0, `{"n":1}`},
		{"zero fraction", `{"id":7.0,"name":"Rose"}`, 7, ""},
		{"second spelling readable", `{"id":"x","identifier":4,"name":"Rose"}`, 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p JsonPlant
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Id != tt.wantID {
				t.Errorf("Expected id %d, got %d", tt.wantID, p.Id)
			}
			if p.InvalidID != tt.invalidID {
				t.Errorf("Expected invalid id %q, got %q", tt.invalidID, p.InvalidID)
			}
			if p.Name != "Rose" {
				t.Errorf("Expected the name to be kept, got %q", p.Name)
			}
		})
	}
}

func TestJsonPlantMarshalUsesStoreSpelling(t *testing.T) {
	b, err := json.Marshal(FromPlant(plants.Plant{ID: 3, Name: "Mint", Description: "Herb", WateringSchedule: "Daily"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":3,"name":"Mint","description":"Herb","watering_schedule":"Daily"}`
	if string(b) != want {
		t.Errorf("Expected %s, got %s", want, b)
	}
}

func TestJsonDraft(t *testing.T) {
	b, err := json.Marshal(FromDraft(plants.Draft{Name: "Rose", Description: "Red", WateringSchedule: "Weekly"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"Rose","description":"Red","wateringSchedule":"Weekly"}`
	if string(b) != want {
		t.Errorf("Expected %s, got %s", want, b)
	}

	var d JsonDraft
	if err := json.Unmarshal([]byte(`{"name":"Rose","description":"Red","watering_schedule":"Weekly"}`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.WateringSchedule != "Weekly" {
		t.Errorf("Expected watering schedule Weekly, got %q", d.WateringSchedule)
	}
}

func TestJsonErrorMessage(t *testing.T) {
	var e JsonError
	if err := json.Unmarshal([]byte(`{"detail":"Plant with this name already exists"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := e.Message(); got != "Plant with this name already exists" {
		t.Errorf("unexpected message %q", got)
	}

	// Validation errors carry a list, which is not a message.
	if err := json.Unmarshal([]byte(`{"detail":[{"loc":["body","name"]}]}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := e.Message(); got != "" {
		t.Errorf("Expected empty message for list detail, got %q", got)
	}

	if got := NewJsonError("boom").Message(); got != "boom" {
		t.Errorf("Expected boom, got %q", got)
	}
}

func TestDecodePlantList(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"id":1,"name":"Rose"},{"id":2,"name":"Tomato"}]`, 2, false},
		{"empty array", `[]`, 0, false},
		{"envelope", `{"plants":[{"id":1,"name":"Rose"}]}`, 1, false},
		{"object without plants", `{"items":[]}`, 0, true},
		{"empty body", ``, 0, true},
		{"html", `<html></html>`, 0, true},
		{"truncated", `[{"id":1,`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := DecodePlantList([]byte(tt.body))
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error, got list %+v", list)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("Expected %d plants, got %d", tt.want, len(list))
			}
		})
	}
}
