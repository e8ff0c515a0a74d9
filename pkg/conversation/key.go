package conversation

// Key identifies one dialogue history in a Store.
//
// User-visible conversations carry the transport's conversation id and an
// empty Purpose. Internal side conversations (for example the company name
// extraction prompt) share the ID of the conversation they serve but carry
// a non-empty Purpose, so they can never collide with a user conversation.
type Key struct {
	ID      string
	Purpose string
}

// Main returns the key of the user-visible conversation with the given id.
func Main(id string) Key {
	return Key{ID: id}
}

// Side derives the key of an internal side conversation attached to k.
func (k Key) Side(purpose string) Key {
	return Key{ID: k.ID, Purpose: purpose}
}

// IsSide reports whether k names an internal side conversation.
func (k Key) IsSide() bool {
	return k.Purpose != ""
}

func (k Key) String() string {
	if k.Purpose == "" {
		return k.ID
	}
	return k.ID + "#" + k.Purpose
}
