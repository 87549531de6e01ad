package care

import (
	"sort"
	"strings"

	"github.com/wellmind/care-service/internal/model"
)

// Key prefixes. Every record lives under its primary key; records that are
// read along more than one dimension carry full copies under index keys
// that embed the query dimensions, so a list is one prefix scan.
const (
	prefixUser             = "user:"
	prefixUserEmail        = "user:email:"
	prefixUserProfile      = "user_profile:"
	prefixTherapistProfile = "therapist_profile:"
	prefixSession          = "session:"
	prefixTherapistSession = "therapist_session:"
	prefixClientSession    = "client_session:"
	prefixCall             = "call_session:"
	prefixCallHistory      = "call_history:"
	prefixConversation     = "chat_conversation:"
	prefixMessage          = "chat_message:"
	prefixNotification     = "notification:"
	prefixClientNote       = "client_note:"
	prefixAuthToken        = "auth_token:"
	prefixVerifyCode       = "email_verification:"
	prefixResetCode        = "password_reset:"
	prefixUserSettings     = "user_settings:"
)

func userKey(id string) string { return prefixUser + id }

func userEmailKey(email string) string { return prefixUserEmail + strings.ToLower(email) }

func userProfileKey(id string) string { return prefixUserProfile + id }

func therapistProfileKey(id string) string { return prefixTherapistProfile + id }

func sessionKey(id string) string { return prefixSession + id }

func callKey(id string) string { return prefixCall + id }

func conversationKey(id string) string { return prefixConversation + id }

func authTokenKey(token string) string { return prefixAuthToken + token }

func verifyCodeKey(code string) string { return prefixVerifyCode + code }

func resetCodeKey(code string) string { return prefixResetCode + code }

func userSettingsKey(userID string) string { return prefixUserSettings + userID }

func therapistSessionKey(therapistID, date, sessionID string) string {
	return prefixTherapistSession + therapistID + ":" + date + ":" + sessionID
}

func clientSessionKey(clientID, date, sessionID string) string {
	return prefixClientSession + clientID + ":" + date + ":" + sessionID
}

func callHistoryKey(userID, callID string) string {
	return prefixCallHistory + userID + ":" + callID
}

func messageKey(conversationID, messageID string) string {
	return prefixMessage + conversationID + ":" + messageID
}

func notificationKey(userID, notificationID string) string {
	return prefixNotification + userID + ":" + notificationID
}

func clientNoteKey(therapistID, noteID string) string {
	return prefixClientNote + therapistID + ":" + noteID
}

// userKeys returns the full key set for a user record, primary first.
func userKeys(u model.User) []string {
	return []string{userKey(u.ID), userEmailKey(u.Email)}
}

// sessionKeys returns the full key set for a session record, primary first.
// The index keys embed therapist, client, and date, so a change to any of
// those dimensions changes the key set.
func sessionKeys(s model.Session) []string {
	return []string{
		sessionKey(s.ID),
		therapistSessionKey(s.TherapistID, s.Date, s.ID),
		clientSessionKey(s.ClientID, s.Date, s.ID),
	}
}

// callKeys returns the full key set for a call record, primary first.
// Both parties get a history index entry.
func callKeys(c model.CallSession) []string {
	return []string{
		callKey(c.ID),
		callHistoryKey(c.CallerID, c.ID),
		callHistoryKey(c.CalleeID, c.ID),
	}
}

// staleKeys returns the keys present in old but absent from the current
// key set. The writer deletes these when an indexing dimension changes so
// a record is never listed under two values of the same dimension.
func staleKeys(old, current []string) []string {
	keep := make(map[string]bool, len(current))
	for _, k := range current {
		keep[k] = true
	}
	var stale []string
	for _, k := range old {
		if !keep[k] {
			stale = append(stale, k)
		}
	}
	return stale
}

// ConversationID derives the canonical conversation id for a client and
// therapist pair. The derivation is symmetric: both participants reach
// the same conversation regardless of argument order.
func ConversationID(a, b string) (string, error) {
	if a == "" || b == "" || a == b {
		return "", &InvalidParticipantsError{A: a, B: b}
	}
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_"), nil
}
