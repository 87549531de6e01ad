package care

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/wellmind/care-service/internal/model"
)

// StartCall records an active call. The record fans out to the call key
// plus a history key for each party.
func (s *Store) StartCall(ctx context.Context, callerID, calleeID, callType string) (model.CallSession, error) {
	if callerID == "" || calleeID == "" || callerID == calleeID {
		return model.CallSession{}, &InvalidParticipantsError{A: callerID, B: calleeID}
	}
	call := model.CallSession{
		ID:        uuid.NewString(),
		CallerID:  callerID,
		CalleeID:  calleeID,
		CallType:  callType,
		Status:    model.CallStatusActive,
		StartedAt: s.now(),
	}
	if err := s.put(ctx, callKeys(call), nil, call); err != nil {
		return model.CallSession{}, err
	}
	return call, nil
}

// GetCall returns a call by id.
func (s *Store) GetCall(ctx context.Context, id string) (model.CallSession, error) {
	call, ok, err := getValue[model.CallSession](ctx, s.kv, callKey(id))
	if err != nil {
		return model.CallSession{}, err
	}
	if !ok {
		return model.CallSession{}, &NotFoundError{Resource: "call", ID: id}
	}
	return call, nil
}

// EndCall marks a call completed (or missed) and records its duration.
func (s *Store) EndCall(ctx context.Context, id string, status model.CallStatus) (model.CallSession, error) {
	if status != model.CallStatusCompleted && status != model.CallStatusMissed {
		return model.CallSession{}, &ValidationError{Field: "status", Message: "must be completed or missed"}
	}
	call, err := s.GetCall(ctx, id)
	if err != nil {
		return model.CallSession{}, err
	}
	now := s.now()
	call.Status = status
	call.EndedAt = &now
	call.Duration = int(now.Sub(call.StartedAt).Seconds())
	if err := s.put(ctx, callKeys(call), nil, call); err != nil {
		return model.CallSession{}, err
	}
	return call, nil
}

// ListCallHistory returns a user's calls, most recent first.
func (s *Store) ListCallHistory(ctx context.Context, userID string) ([]model.CallSession, error) {
	calls, err := scanValues[model.CallSession](ctx, s.kv, prefixCallHistory+userID+":")
	if err != nil {
		return nil, err
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].StartedAt.After(calls[j].StartedAt) })
	return calls, nil
}
