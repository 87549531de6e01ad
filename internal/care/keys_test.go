package care

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

func TestConversationID_Symmetric(t *testing.T) {
	a, err := ConversationID("user-1", "therapist-1")
	require.NoError(t, err)
	b, err := ConversationID("therapist-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, "therapist-1_user-1", a)
}

func TestConversationID_RejectsInvalidPairs(t *testing.T) {
	cases := []struct{ a, b string }{
		{"", "therapist-1"},
		{"user-1", ""},
		{"user-1", "user-1"},
	}
	for _, tc := range cases {
		_, err := ConversationID(tc.a, tc.b)
		var invalid *InvalidParticipantsError
		require.ErrorAs(t, err, &invalid)
	}
}

func TestSessionKeys_PrimaryFirst(t *testing.T) {
	sess := model.Session{ID: "s1", TherapistID: "t1", ClientID: "c1", Date: "2025-03-12"}
	keys := sessionKeys(sess)
	require.Equal(t, []string{
		"session:s1",
		"therapist_session:t1:2025-03-12:s1",
		"client_session:c1:2025-03-12:s1",
	}, keys)
}

func TestStaleKeys(t *testing.T) {
	old := []string{"a", "b", "c"}
	current := []string{"a", "d"}
	require.Equal(t, []string{"b", "c"}, staleKeys(old, current))
	require.Nil(t, staleKeys(current, current))
}

func TestUserEmailKey_Lowercases(t *testing.T) {
	require.Equal(t, userEmailKey("alex@example.com"), userEmailKey("Alex@Example.com"))
}

func TestPartialIndexError_Unwraps(t *testing.T) {
	cause := errors.New("boom")
	err := &PartialIndexError{Op: "put", Unapplied: []string{"k"}, Err: cause}
	require.ErrorIs(t, err, cause)
}
