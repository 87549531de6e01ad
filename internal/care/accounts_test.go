package care

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

// fastHasher keeps account tests quick; bcrypt at real cost dominates
// otherwise.
type fastHasher struct{}

func (fastHasher) Hash(password string) (string, error) { return "h:" + password, nil }
func (fastHasher) Compare(hash, password string) error {
	if hash != "h:"+password {
		return &ValidationError{Field: "credentials", Message: "mismatch"}
	}
	return nil
}

func newAccountStore(t *testing.T, opts ...Option) (*Store, func(d time.Duration)) {
	t.Helper()
	now := testTime
	opts = append([]Option{
		WithHasher(fastHasher{}),
		WithClock(func() time.Time { return now }),
	}, opts...)
	s, _ := newTestStore(t, opts...)
	return s, func(d time.Duration) { now = now.Add(d) }
}

func TestSignUpAndSignIn(t *testing.T) {
	s, _ := newAccountStore(t)
	ctx := context.Background()

	u, err := s.SignUp(ctx, "alex@example.com", "Alex", "secret", model.UserTypeClient)
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.False(t, u.Verified)
	require.Empty(t, u.Redacted().PasswordHash)

	got, token, err := s.SignIn(ctx, "alex@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, token)

	resolved, err := s.ResolveToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, u.ID, resolved)

	require.NoError(t, s.SignOut(ctx, token))
	resolved, err = s.ResolveToken(ctx, token)
	require.NoError(t, err)
	require.Empty(t, resolved)
}

func TestSignIn_BadCredentials(t *testing.T) {
	s, _ := newAccountStore(t)
	ctx := context.Background()
	_, err := s.SignUp(ctx, "alex@example.com", "Alex", "secret", model.UserTypeClient)
	require.NoError(t, err)

	var validation *ValidationError
	_, _, err = s.SignIn(ctx, "alex@example.com", "wrong")
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "credentials", validation.Field)

	// An unknown email fails the same way; it is not distinguishable.
	_, _, err = s.SignIn(ctx, "nobody@example.com", "secret")
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "credentials", validation.Field)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	s, _ := newAccountStore(t)
	ctx := context.Background()
	_, err := s.SignUp(ctx, "alex@example.com", "Alex", "secret", model.UserTypeClient)
	require.NoError(t, err)

	var conflict *ConflictError
	_, err = s.SignUp(ctx, "alex@example.com", "Other", "pw", model.UserTypeClient)
	require.ErrorAs(t, err, &conflict)
}

func TestUpdateUser_EmailChangeMovesEmailKey(t *testing.T) {
	s, _ := newAccountStore(t)
	kv := s.kv
	ctx := context.Background()
	u, err := s.SignUp(ctx, "old@example.com", "Alex", "secret", model.UserTypeClient)
	require.NoError(t, err)

	// Mark verified first; the change must reset it.
	u.Verified = true
	require.NoError(t, s.put(ctx, userKeys(u), nil, u))

	email := "new@example.com"
	updated, err := s.UpdateUser(ctx, u.ID, nil, &email)
	require.NoError(t, err)
	require.Equal(t, email, updated.Email)
	require.False(t, updated.Verified)

	gone, err := kv.Get(ctx, userEmailKey("old@example.com"))
	require.NoError(t, err)
	require.Nil(t, gone)

	moved, err := kv.Get(ctx, userEmailKey(email))
	require.NoError(t, err)
	require.NotNil(t, moved)

	// The old address is free again.
	_, err = s.SignUp(ctx, "old@example.com", "Other", "pw", model.UserTypeClient)
	require.NoError(t, err)
}

func TestUpdateUser_EmailTaken(t *testing.T) {
	s, _ := newAccountStore(t)
	ctx := context.Background()
	_, err := s.SignUp(ctx, "a@example.com", "A", "pw", model.UserTypeClient)
	require.NoError(t, err)
	u, err := s.SignUp(ctx, "b@example.com", "B", "pw", model.UserTypeClient)
	require.NoError(t, err)

	email := "a@example.com"
	var conflict *ConflictError
	_, err = s.UpdateUser(ctx, u.ID, nil, &email)
	require.ErrorAs(t, err, &conflict)
}

func TestDeleteUser_RemovesAccountAndOwnedRecords(t *testing.T) {
	s, _ := newAccountStore(t)
	kv := s.kv
	ctx := context.Background()

	u, err := s.SignUp(ctx, "gone@example.com", "Gone", "pw", model.UserTypeClient)
	require.NoError(t, err)
	_, err = s.PutUserProfile(ctx, model.UserProfile{ID: u.ID, Name: "Gone"})
	require.NoError(t, err)
	require.NoError(t, s.PutSettings(ctx, model.UserSettings{UserID: u.ID}))
	code, err := s.CreateVerificationCode(ctx, u.ID, time.Hour)
	require.NoError(t, err)
	_, err = s.CreateNotification(ctx, model.Notification{UserID: u.ID, Title: "welcome"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	var notFound *NotFoundError
	_, err = s.GetUser(ctx, u.ID)
	require.ErrorAs(t, err, &notFound)
	_, err = s.GetUserProfile(ctx, u.ID)
	require.ErrorAs(t, err, &notFound)
	_, err = s.VerifyEmail(ctx, code.Code)
	require.ErrorAs(t, err, &notFound)

	notifications, err := s.ListNotifications(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, notifications)

	settings, err := kv.Get(ctx, userSettingsKey(u.ID))
	require.NoError(t, err)
	require.Nil(t, settings)

	// The email key went with the account, so the address is free again.
	_, err = s.SignUp(ctx, "gone@example.com", "Next", "pw", model.UserTypeClient)
	require.NoError(t, err)

	err = s.DeleteUser(ctx, u.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestChangePassword(t *testing.T) {
	s, _ := newAccountStore(t)
	ctx := context.Background()
	u, err := s.SignUp(ctx, "alex@example.com", "Alex", "secret", model.UserTypeClient)
	require.NoError(t, err)

	var validation *ValidationError
	err = s.ChangePassword(ctx, u.ID, "wrong", "next")
	require.ErrorAs(t, err, &validation)

	require.NoError(t, s.ChangePassword(ctx, u.ID, "secret", "next"))
	_, _, err = s.SignIn(ctx, "alex@example.com", "next")
	require.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	s, tick := newAccountStore(t)
	ctx := context.Background()
	u, err := s.SignUp(ctx, "alex@example.com", "Alex", "secret", model.UserTypeClient)
	require.NoError(t, err)

	code, err := s.CreateVerificationCode(ctx, u.ID, time.Hour)
	require.NoError(t, err)

	verified, err := s.VerifyEmail(ctx, code.Code)
	require.NoError(t, err)
	require.True(t, verified.Verified)

	// Codes are single use.
	var notFound *NotFoundError
	_, err = s.VerifyEmail(ctx, code.Code)
	require.ErrorAs(t, err, &notFound)

	// Expired codes are reported as not found.
	code, err = s.CreateVerificationCode(ctx, u.ID, time.Hour)
	require.NoError(t, err)
	tick(2 * time.Hour)
	_, err = s.VerifyEmail(ctx, code.Code)
	require.ErrorAs(t, err, &notFound)
}

func TestResetPassword(t *testing.T) {
	s, _ := newAccountStore(t)
	ctx := context.Background()
	_, err := s.SignUp(ctx, "alex@example.com", "Alex", "secret", model.UserTypeClient)
	require.NoError(t, err)

	code, err := s.CreateResetCode(ctx, "alex@example.com", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.ResetPassword(ctx, code.Code, "fresh"))

	_, _, err = s.SignIn(ctx, "alex@example.com", "fresh")
	require.NoError(t, err)

	var notFound *NotFoundError
	err = s.ResetPassword(ctx, code.Code, "again")
	require.ErrorAs(t, err, &notFound)
}

func TestSettings_DefaultsWhenUnset(t *testing.T) {
	s, _ := newAccountStore(t)
	ctx := context.Background()

	settings, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	require.True(t, settings.EmailNotifications)
	require.True(t, settings.PushNotifications)
	require.Equal(t, 24, settings.ReminderHours)

	settings.EmailNotifications = false
	settings.ReminderHours = 2
	require.NoError(t, s.PutSettings(ctx, settings))

	saved, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	require.False(t, saved.EmailNotifications)
	require.Equal(t, 2, saved.ReminderHours)
}
