package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversationKeyCommutative(t *testing.T) {
	tests := []struct {
		a, b int64
		want string
	}{
		{1, 2, "d:1:2"},
		{2, 1, "d:1:2"},
		{7, 7, "d:7:7"},
		{42, 9, "d:9:42"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ConversationKey(tt.a, tt.b))
		require.Equal(t, ConversationKey(tt.a, tt.b), ConversationKey(tt.b, tt.a))
	}
}

func TestRoomKeyIndependentOfParticipants(t *testing.T) {
	require.Equal(t, "r:3", RoomKey(3))
	require.NotEqual(t, RoomKey(3), RoomKey(4))
	require.NotEqual(t, RoomKey(1), ConversationKey(1, 1))
}
