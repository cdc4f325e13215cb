package domain

// Resource is a bookable entity (room, person, court) identified by a stable
// string id, matched by exact case-sensitive equality.
type Resource struct {
	ID   string
	Name string
}
