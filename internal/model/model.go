package model

import "time"

// UserType distinguishes the two account roles on the platform.
type UserType string

const (
	UserTypeClient    UserType = "client"
	UserTypeTherapist UserType = "therapist"
)

// SessionStatus represents the lifecycle state of a therapy session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusConfirmed SessionStatus = "confirmed"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Sender identifies which party authored a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderTherapist Sender = "therapist"
)

// CallStatus represents the lifecycle state of a call.
type CallStatus string

const (
	CallStatusActive    CallStatus = "active"
	CallStatusCompleted CallStatus = "completed"
	CallStatusMissed    CallStatus = "missed"
)

// User is an account record. The password hash is persisted but stripped
// from API responses via Redacted.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	UserType     UserType  `json:"userType"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Redacted returns a copy safe to include in API responses.
func (u User) Redacted() User {
	u.PasswordHash = ""
	return u
}

// UserProfile is the client-facing profile, keyed by user id.
type UserProfile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TherapistProfile is the practitioner-facing profile, keyed by user id.
type TherapistProfile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Title           string    `json:"title,omitempty"`
	Avatar          string    `json:"avatar,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Specialties     []string  `json:"specialties,omitempty"`
	YearsExperience int       `json:"yearsExperience,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Session is a scheduled therapy session. Date is YYYY-MM-DD in the
// therapist's timezone; Time is HH:MM.
type Session struct {
	ID          string        `json:"id"`
	TherapistID string        `json:"therapistId"`
	ClientID    string        `json:"clientId"`
	ClientName  string        `json:"client,omitempty"`
	Avatar      string        `json:"avatar,omitempty"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Duration    int           `json:"duration"`
	Type        string        `json:"type,omitempty"`
	Status      SessionStatus `json:"status"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Conversation is the chat thread between one client and one therapist.
// Its ID is derived from the two participant ids and is symmetric.
type Conversation struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	TherapistID     string    `json:"therapist_id"`
	LastMessage     string    `json:"last_message,omitempty"`
	LastMessageTime time.Time `json:"last_message_time,omitzero"`
	LastSender      Sender    `json:"last_sender,omitempty"`
	Archived        bool      `json:"archived,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Message is a single chat message within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	TherapistID    string    `json:"therapist_id"`
	Text           string    `json:"text"`
	Sender         Sender    `json:"sender"`
	Timestamp      time.Time `json:"timestamp"`
	IsRead         bool      `json:"is_read"`
}

// CallSession is a video or audio call between two users.
type CallSession struct {
	ID        string     `json:"id"`
	CallerID  string     `json:"callerId"`
	CalleeID  string     `json:"calleeId"`
	CallType  string     `json:"callType"`
	Status    CallStatus `json:"status"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Duration  int        `json:"duration,omitempty"`
}

// Notification is a per-user notification.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClientNote is a private note a therapist keeps about a client.
type ClientNote struct {
	ID          string    `json:"id"`
	TherapistID string    `json:"therapistId"`
	ClientID    string    `json:"clientId"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VerificationCode is a short-lived code for email verification or
// password reset. Expiry is checked at read time.
type VerificationCode struct {
	Code      string    `json:"code"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSettings holds per-user preference toggles.
type UserSettings struct {
	UserID             string    `json:"userId"`
	EmailNotifications bool      `json:"emailNotifications"`
	PushNotifications  bool      `json:"pushNotifications"`
	ReminderHours      int       `json:"reminderHours"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
