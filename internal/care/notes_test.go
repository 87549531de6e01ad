package care

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wellmind/care-service/internal/model"
)

func TestClientNotes(t *testing.T) {
	cs := newClockedStore(t)
	s, tick := cs.store, cs.tick
	ctx := context.Background()

	_, err := s.CreateClientNote(ctx, model.ClientNote{TherapistID: "t1", ClientID: "c1", Text: "first"})
	require.NoError(t, err)
	tick(time.Minute)
	_, err = s.CreateClientNote(ctx, model.ClientNote{TherapistID: "t1", ClientID: "c2", Text: "second"})
	require.NoError(t, err)

	notes, err := s.ListClientNotes(ctx, "t1", "")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "second", notes[0].Text, "newest first")

	only, err := s.ListClientNotes(ctx, "t1", "c1")
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.Equal(t, "first", only[0].Text)

	other, err := s.ListClientNotes(ctx, "t2", "")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestCreateClientNote_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	var validation *ValidationError
	_, err := s.CreateClientNote(context.Background(), model.ClientNote{ClientID: "c1", Text: "x"})
	require.ErrorAs(t, err, &validation)
	_, err = s.CreateClientNote(context.Background(), model.ClientNote{TherapistID: "t1", ClientID: "c1"})
	require.ErrorAs(t, err, &validation)
}
