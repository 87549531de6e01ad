package care

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/wellmind/care-service/internal/security"
)

// put writes value under every key in keys, primary first. stale keys are
// deleted afterwards so a record never stays listed under an old value of
// an indexing dimension. A failure before the primary write leaves the
// record untouched; a failure after it returns a PartialIndexError so the
// caller can surface the inconsistency and schedule repair.
func (s *Store) put(ctx context.Context, keys []string, stale []string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", keys[0], err)
	}
	for i, key := range keys {
		if err := s.kv.Set(ctx, key, data); err != nil {
			if i == 0 {
				return fmt.Errorf("write %s: %w", key, err)
			}
			return s.partial("put", keys[:i], append(keys[i:], stale...), err)
		}
	}
	for i, key := range stale {
		if err := s.kv.Delete(ctx, key); err != nil {
			return s.partial("put", keys, stale[i:], err)
		}
	}
	return nil
}

// remove deletes every key in keys, secondaries first and the primary
// last. Deleting the primary last keeps the record repairable: as long as
// the primary exists, repair can finish the delete or restore the index.
func (s *Store) remove(ctx context.Context, keys []string) error {
	for i := len(keys) - 1; i >= 0; i-- {
		if err := s.kv.Delete(ctx, keys[i]); err != nil {
			if i == len(keys)-1 {
				return fmt.Errorf("delete %s: %w", keys[i], err)
			}
			return s.partial("remove", keys[i+1:], keys[:i+1], err)
		}
	}
	return nil
}

func (s *Store) partial(op string, applied, unapplied []string, err error) error {
	if security.PartialWritesTotal != nil {
		security.PartialWritesTotal.Inc()
	}
	return &PartialIndexError{Op: op, Applied: applied, Unapplied: unapplied, Err: err}
}

// Entity kinds accepted by Repair.
const (
	EntityUser    = "user"
	EntitySession = "session"
	EntityCall    = "call"
)

// EntityRef names one indexed record for repair.
type EntityRef struct {
	Kind string
	ID   string
}

// Repair restores the convergence invariant for one record: every key in
// its key set holds the primary's current value and no straggler index
// keys remain. When the primary is absent the record is treated as
// deleted and any remaining index keys are removed.
func (s *Store) Repair(ctx context.Context, ref EntityRef) error {
	switch ref.Kind {
	case EntityUser:
		return repairEntity(ctx, s, ref.ID, userKey(ref.ID), userKeysAny, prefixUserEmail)
	case EntitySession:
		return repairEntity(ctx, s, ref.ID, sessionKey(ref.ID), sessionKeysAny, prefixTherapistSession, prefixClientSession)
	case EntityCall:
		return repairEntity(ctx, s, ref.ID, callKey(ref.ID), callKeysAny, prefixCallHistory)
	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown entity kind %q", ref.Kind)}
	}
}

// RepairAsync runs Repair on a detached background context. Callers use
// this after observing a PartialIndexError on a request path; the request
// still fails, the repair just heals the index out of band.
func (s *Store) RepairAsync(ref EntityRef) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.repairTimeout)
		defer cancel()
		if err := s.Repair(ctx, ref); err != nil {
			if security.IndexRepairsTotal != nil {
				security.IndexRepairsTotal.WithLabelValues("error").Inc()
			}
			log.Error("Index repair failed", "kind", ref.Kind, "id", ref.ID, "err", err)
			return
		}
		if security.IndexRepairsTotal != nil {
			security.IndexRepairsTotal.WithLabelValues("ok").Inc()
		}
		log.Info("Index repaired", "kind", ref.Kind, "id", ref.ID)
	}()
}

// keyFuncs adapt the typed key-set derivations to the generic repair.

func userKeysAny(data []byte) ([]string, error) {
	var rec struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return []string{userKey(rec.ID), userEmailKey(rec.Email)}, nil
}

func sessionKeysAny(data []byte) ([]string, error) {
	var rec struct {
		ID          string `json:"id"`
		TherapistID string `json:"therapistId"`
		ClientID    string `json:"clientId"`
		Date        string `json:"date"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return []string{
		sessionKey(rec.ID),
		therapistSessionKey(rec.TherapistID, rec.Date, rec.ID),
		clientSessionKey(rec.ClientID, rec.Date, rec.ID),
	}, nil
}

func callKeysAny(data []byte) ([]string, error) {
	var rec struct {
		ID       string `json:"id"`
		CallerID string `json:"callerId"`
		CalleeID string `json:"calleeId"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return []string{
		callKey(rec.ID),
		callHistoryKey(rec.CallerID, rec.ID),
		callHistoryKey(rec.CalleeID, rec.ID),
	}, nil
}

// repairEntity reconciles one record across its primary key and the index
// key spaces named by prefixes. Index entries are matched by the id field
// embedded in their value, so stragglers written under old dimensions are
// found even though their keys no longer derive from the primary.
func repairEntity(ctx context.Context, s *Store, id, primaryKey string, keysOf func([]byte) ([]string, error), prefixes ...string) error {
	data, err := s.kv.Get(ctx, primaryKey)
	if err != nil {
		return err
	}

	var existing []string
	for _, prefix := range prefixes {
		pairs, err := s.kv.ScanPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			var rec struct {
				ID string `json:"id"`
			}
			if json.Unmarshal(p.Value, &rec) == nil && rec.ID == id {
				existing = append(existing, p.Key)
			}
		}
	}

	if data == nil {
		// Primary is gone: the record is deleted, sweep the stragglers.
		for _, key := range existing {
			if err := s.kv.Delete(ctx, key); err != nil {
				return fmt.Errorf("sweep %s: %w", key, err)
			}
		}
		return nil
	}

	want, err := keysOf(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", primaryKey, err)
	}
	wanted := make(map[string]bool, len(want))
	for _, k := range want {
		wanted[k] = true
	}
	for _, key := range existing {
		if !wanted[key] {
			if err := s.kv.Delete(ctx, key); err != nil {
				return fmt.Errorf("sweep %s: %w", key, err)
			}
		}
	}
	for _, key := range want {
		if err := s.kv.Set(ctx, key, data); err != nil {
			return fmt.Errorf("restore %s: %w", key, err)
		}
	}
	return nil
}
