package care

import (
	"context"
	"sort"
	"time"

	"github.com/wellmind/care-service/internal/model"
)

// Status and priority tags used by the roster and inbox views.
const (
	StatusNew      = "new"
	StatusActive   = "active"
	StatusInactive = "inactive"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// RosterEntry is one client row in a therapist's roster view.
type RosterEntry struct {
	ClientID          string `json:"clientId"`
	Name              string `json:"name"`
	Avatar            string `json:"avatar,omitempty"`
	Status            string `json:"status"`
	Priority          string `json:"priority"`
	SessionsCompleted int    `json:"sessionsCompleted"`
	LastSession       string `json:"lastSession,omitempty"`
	NextSession       string `json:"nextSession,omitempty"`
}

// ClientRoster builds the therapist's client roster from their session
// index. Clients are classified by how recently and how often they have
// been seen, then sorted most-urgent first.
func (s *Store) ClientRoster(ctx context.Context, therapistID string) ([]RosterEntry, error) {
	sessions, err := s.ListTherapistSessions(ctx, therapistID, "")
	if err != nil {
		return nil, err
	}

	byClient := map[string][]model.Session{}
	for _, sess := range sessions {
		byClient[sess.ClientID] = append(byClient[sess.ClientID], sess)
	}

	clientIDs := make([]string, 0, len(byClient))
	for id := range byClient {
		clientIDs = append(clientIDs, id)
	}
	profiles, err := s.userProfiles(ctx, clientIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := now.Format(dateLayout)
	entries := make([]RosterEntry, 0, len(byClient))
	for clientID, group := range byClient {
		entry := RosterEntry{
			ClientID: clientID,
			Name:     placeholderName(clientID),
		}
		if p, ok := profiles[clientID]; ok {
			if p.Name != "" {
				entry.Name = p.Name
			}
			entry.Avatar = p.Avatar
		}

		for _, sess := range group {
			if sess.Status == model.SessionStatusCompleted {
				entry.SessionsCompleted++
			}
			// LastSession is the most recent past session of any status;
			// a cancelled appointment still counts as recent contact.
			switch {
			case sess.Date < today:
				if sess.Date > entry.LastSession {
					entry.LastSession = sess.Date
				}
			case sess.Status != model.SessionStatusCancelled:
				if entry.NextSession == "" || sess.Date < entry.NextSession {
					entry.NextSession = sess.Date
				}
			}
		}

		entry.Status, entry.Priority = classifyClient(entry.SessionsCompleted, entry.LastSession, now)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := priorityRank(entries[i].Priority), priorityRank(entries[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return entries[i].SessionsCompleted > entries[j].SessionsCompleted
	})
	return entries, nil
}

// classifyClient derives the status and priority tags from the completed
// count and the most recent past session of any status. A client with no
// past session, or none in the last 30 days, is inactive. Otherwise up to
// three completed sessions counts as new, and new clients as well as
// those drifting toward the 30-day mark are flagged high priority.
func classifyClient(completed int, lastSession string, now time.Time) (status, priority string) {
	days, hasLast := -1, false
	if lastSession != "" {
		days, hasLast = daysSince(lastSession, now)
	}

	switch {
	case !hasLast || days > 30:
		status = StatusInactive
	case completed <= 3:
		status = StatusNew
	default:
		status = StatusActive
	}

	switch {
	case status == StatusNew:
		priority = PriorityHigh
	case hasLast && days > 14 && days <= 30:
		priority = PriorityHigh
	case hasLast && days <= 7 && days >= 0:
		priority = PriorityMedium
	default:
		priority = PriorityLow
	}
	return status, priority
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// placeholderName stands in for a client whose profile join is missing.
func placeholderName(clientID string) string {
	if len(clientID) > 8 {
		clientID = clientID[:8]
	}
	return "Client " + clientID
}
