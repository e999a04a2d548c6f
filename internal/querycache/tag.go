package querycache

type TagType string

const (
	TagRooms    TagType = "Rooms"
	TagRoom     TagType = "Room"
	TagMessages TagType = "Messages"
	TagMembers  TagType = "Members"
	TagUser     TagType = "User"
	TagAdmin    TagType = "Admin"
)

// Tag labels a cached query. An empty ID acts as a wildcard on either side,
// so Tag{Type: TagRooms} invalidates every rooms query.
type Tag struct {
	Type TagType
	ID   string
}

func T(typ TagType, id ...string) Tag {
	t := Tag{Type: typ}
	if len(id) > 0 {
		t.ID = id[0]
	}
	return t
}

func (t Tag) Matches(other Tag) bool {
	if t.Type != other.Type {
		return false
	}
	return t.ID == "" || other.ID == "" || t.ID == other.ID
}

func (t Tag) String() string {
	if t.ID == "" {
		return string(t.Type)
	}
	return string(t.Type) + ":" + t.ID
}

func anyMatch(have, want []Tag) bool {
	for _, h := range have {
		for _, w := range want {
			if h.Matches(w) {
				return true
			}
		}
	}
	return false
}

// Intersects reports whether any tag in a matches any tag in b.
func Intersects(a, b []Tag) bool {
	return anyMatch(a, b)
}
