package plants

import (
	"strconv"
	"strings"
)

// Plant represents a plant record as known by the plant store: its identifier,
// its name, a free text description and its watering schedule.
// An ID of zero means the store did not assign one (or the record predates
// identifiers); such a plant can only be addressed by its name.
type Plant struct {
	ID               int64
	Name             string
	Description      string
	WateringSchedule string
}

// HasID reports whether the plant carries a store-assigned identifier.
func (p Plant) HasID() bool {
	return p.ID > 0
}

// Addressable reports whether at least one addressing key is present.
func (p Plant) Addressable() bool {
	return p.HasID() || strings.TrimSpace(p.Name) != ""
}

// Address returns the key used to target this plant in update and delete
// requests. The identifier is preferred; the name is the fallback.
func (p Plant) Address() Address {
	if p.HasID() {
		return ByID(p.ID)
	}
	return ByName(p.Name)
}

// Draft returns the editable fields of the plant.
func (p Plant) Draft() Draft {
	return Draft{
		Name:             p.Name,
		Description:      p.Description,
		WateringSchedule: p.WateringSchedule,
	}
}

// AddressKind tells which key an Address carries.
type AddressKind int

const (
	AddressByID AddressKind = iota + 1
	AddressByName
)

// Address is either an identifier or a name, never both.
type Address struct {
	kind AddressKind
	id   int64
	name string
}

// ByID returns an identifier-based address.
func ByID(id int64) Address {
	return Address{kind: AddressByID, id: id}
}

// ByName returns a name-based address.
func ByName(name string) Address {
	return Address{kind: AddressByName, name: name}
}

func (a Address) Kind() AddressKind { return a.kind }
func (a Address) ID() int64         { return a.id }
func (a Address) Name() string      { return a.name }

func (a Address) String() string {
	switch a.kind {
	case AddressByID:
		return "id:" + strconv.FormatInt(a.id, 10)
	case AddressByName:
		return "name:" + a.name
	}
	return "none"
}
