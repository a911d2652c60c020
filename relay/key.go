package relay

import "fmt"

// ConversationKey derives the canonical key for a direct conversation
// between two identities. Commutative: the pair is sorted, so sender and
// receiver always map to the same key.
func ConversationKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("d:%d:%d", a, b)
}

// RoomKey derives the key for a room-scoped conversation. Keyed by room id
// alone, independent of participants.
func RoomKey(roomID int64) string {
	return fmt.Sprintf("r:%d", roomID)
}
