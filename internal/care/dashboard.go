package care

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wellmind/care-service/internal/model"
)

// ActivityEvent is one row of the dashboard's recent-activity feed.
type ActivityEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Time      string    `json:"time"`
}

// DashboardStats is the therapist's at-a-glance view.
type DashboardStats struct {
	TodaySessions  int             `json:"todaySessions"`
	WaitingClients int             `json:"waitingClients"`
	TotalClients   int             `json:"totalClients"`
	WeekRevenue    int             `json:"weekRevenue"`
	RecentActivity []ActivityEvent `json:"recentActivity"`
}

const activityFeedLimit = 10

// Dashboard assembles the therapist's dashboard from the session index,
// the conversation space, and the note log. Everything is recomputed per
// request; nothing here is cached.
func (s *Store) Dashboard(ctx context.Context, therapistID string) (DashboardStats, error) {
	now := s.now()
	today := now.Format(dateLayout)
	weekStart, weekEnd := weekBounds(now)
	windowStart := now.AddDate(0, 0, -s.activityDays)

	sessions, err := s.ListTherapistSessions(ctx, therapistID, "")
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{RecentActivity: []ActivityEvent{}}
	clients := map[string]bool{}
	joinIDs := map[string]bool{}
	clientIDs := make([]string, 0, 8)
	collect := func(id string) {
		if !joinIDs[id] {
			joinIDs[id] = true
			clientIDs = append(clientIDs, id)
		}
	}
	var feed []ActivityEvent

	for _, sess := range sessions {
		clients[sess.ClientID] = true
		collect(sess.ClientID)
		if sess.Date == today && sess.Status != model.SessionStatusCancelled {
			stats.TodaySessions++
		}
		if sess.Status == model.SessionStatusCompleted && sess.Date >= weekStart && sess.Date <= weekEnd {
			stats.WeekRevenue += s.sessionRate
		}
	}
	stats.TotalClients = len(clients)

	conversations, err := scanValues[model.Conversation](ctx, s.kv, prefixConversation)
	if err != nil {
		return DashboardStats{}, err
	}
	waiting := map[string]bool{}
	var inbound []model.Message
	for _, conv := range conversations {
		if conv.TherapistID != therapistID {
			continue
		}
		msgs, err := scanValues[model.Message](ctx, s.kv, prefixMessage+conv.ID+":")
		if err != nil {
			return DashboardStats{}, err
		}
		for _, m := range msgs {
			if m.Sender != model.SenderUser {
				continue
			}
			if !m.IsRead {
				waiting[conv.UserID] = true
			}
			if m.Timestamp.After(windowStart) {
				inbound = append(inbound, m)
			}
		}
		collect(conv.UserID)
	}
	stats.WaitingClients = len(waiting)

	notes, err := s.ListClientNotes(ctx, therapistID, "")
	if err != nil {
		return DashboardStats{}, err
	}
	for _, n := range notes {
		collect(n.ClientID)
	}

	profiles, err := s.userProfiles(ctx, clientIDs)
	if err != nil {
		return DashboardStats{}, err
	}
	nameOf := func(clientID string) string {
		if p, ok := profiles[clientID]; ok && p.Name != "" {
			return p.Name
		}
		return placeholderName(clientID)
	}

	for _, sess := range sessions {
		if sess.UpdatedAt.After(windowStart) && sess.Status == model.SessionStatusCompleted {
			feed = append(feed, ActivityEvent{
				Type:      "session",
				Message:   fmt.Sprintf("Session with %s completed", nameOf(sess.ClientID)),
				Timestamp: sess.UpdatedAt,
			})
		}
	}
	for _, m := range inbound {
		feed = append(feed, ActivityEvent{
			Type:      "message",
			Message:   fmt.Sprintf("New message from %s", nameOf(m.UserID)),
			Timestamp: m.Timestamp,
		})
	}
	for _, n := range notes {
		if n.CreatedAt.After(windowStart) {
			feed = append(feed, ActivityEvent{
				Type:      "note",
				Message:   fmt.Sprintf("Note added for %s", nameOf(n.ClientID)),
				Timestamp: n.CreatedAt,
			})
		}
	}

	sort.Slice(feed, func(i, j int) bool { return feed[i].Timestamp.After(feed[j].Timestamp) })
	if len(feed) > activityFeedLimit {
		feed = feed[:activityFeedLimit]
	}
	for i := range feed {
		feed[i].Time = relativeTime(feed[i].Timestamp, now)
	}
	if feed != nil {
		stats.RecentActivity = feed
	}
	return stats, nil
}

