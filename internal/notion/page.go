package notion

import "math"

// page is the subset of the Notion page object this service reads.
type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

// property covers the value types the match and player schemas use. Some
// workspaces model the result state as a status property, older ones as a
// select. Both decode here and resolve through statusName.
type property struct {
	Type     string       `json:"type,omitempty"`
	Status   *nameValue   `json:"status,omitempty"`
	Select   *nameValue   `json:"select,omitempty"`
	Relation []idRef      `json:"relation,omitempty"`
	Number   *float64     `json:"number,omitempty"`
}

type nameValue struct {
	Name string `json:"name"`
}

type idRef struct {
	ID string `json:"id"`
}

// statusName extracts the status spelling regardless of whether the slot is
// a status or select property.
func (p property) statusName() string {
	if p.Status != nil {
		return p.Status.Name
	}
	if p.Select != nil {
		return p.Select.Name
	}
	return ""
}

// relationIDs returns all linked record ids on a relation property.
func (p property) relationIDs() []string {
	ids := make([]string, 0, len(p.Relation))
	for _, ref := range p.Relation {
		ids = append(ids, ref.ID)
	}
	return ids
}

// intNumber converts a populated number property to an int, nil when the
// property is empty. Notion numbers are floats on the wire; goal counts,
// ratings, and K-factors are integers by contract.
func (p property) intNumber() *int {
	if p.Number == nil {
		return nil
	}
	n := int(math.Round(*p.Number))
	return &n
}

// numberProperty builds a number property value for a page update.
func numberProperty(n int) property {
	f := float64(n)
	return property{Number: &f}
}

// statusProperty builds a status property value for a page update.
func statusProperty(name string) property {
	return property{Status: &nameValue{Name: name}}
}
