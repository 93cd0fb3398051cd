package channels

import (
	"context"

	"nutrihub/internal/realtime"

	"github.com/sirupsen/logrus"
)

// Principal is the authenticated identity requesting a subscription
type Principal struct {
	ID   int
	Name string
	Role string
}

// ConversationDirectory answers conversation membership questions
type ConversationDirectory interface {
	IsParticipant(ctx context.Context, conversationID, userID int) (bool, error)
}

// SessionDirectory resolves the two parties of a consultation session
type SessionDirectory interface {
	SessionParties(ctx context.Context, sessionID int) (patientID, professionalID int, err error)
}

// PlanDirectory resolves the two parties of a meal plan
type PlanDirectory interface {
	PlanParties(ctx context.Context, planID int) (patientID, nutritionistID int, err error)
}

// Authorizer decides whether a principal may subscribe to a channel.
// Decisions are side-effect-free and idempotent; they are re-evaluated
// on every (re)subscribe, never cached across connections. Lookup
// failures deny (fail closed), with one exception: when no
// conversation directory is wired, chat channels fall back to allowing
// any authenticated principal. That fallback mirrors a known gap in
// the legacy behavior and the default wiring always provides the
// directory.
type Authorizer struct {
	conversations ConversationDirectory
	sessions      SessionDirectory
	plans         PlanDirectory
	logger        *logrus.Entry
}

// NewAuthorizer wires the membership directories
func NewAuthorizer(conversations ConversationDirectory, sessions SessionDirectory, plans PlanDirectory, logger *logrus.Logger) *Authorizer {
	return &Authorizer{
		conversations: conversations,
		sessions:      sessions,
		plans:         plans,
		logger:        logger.WithField("component", "channel-authorizer"),
	}
}

// Authorize returns whether the principal may subscribe to channelName
func (a *Authorizer) Authorize(ctx context.Context, p Principal, channelName string) bool {
	namespace, id, ok := realtime.ParseChannel(channelName)
	if !ok {
		return false
	}

	switch namespace {
	case realtime.PresenceChannel:
		// Shared broadcast channel, open to any authenticated principal
		return true

	case "user":
		// Personal channels are never shared
		return p.ID == id

	case "chat":
		if a.conversations == nil {
			a.logger.WithField("channel", channelName).Warn("No conversation directory wired, allowing authenticated principal")
			return true
		}
		member, err := a.conversations.IsParticipant(ctx, id, p.ID)
		if err != nil {
			a.logger.Warnf("Conversation lookup for channel %s failed: %v", channelName, err)
			return false
		}
		return member

	case "session":
		if a.sessions == nil {
			return false
		}
		patientID, professionalID, err := a.sessions.SessionParties(ctx, id)
		if err != nil {
			a.logger.Warnf("Session lookup for channel %s failed: %v", channelName, err)
			return false
		}
		return p.ID == patientID || p.ID == professionalID

	case "plan":
		if a.plans == nil {
			return false
		}
		patientID, nutritionistID, err := a.plans.PlanParties(ctx, id)
		if err != nil {
			a.logger.Warnf("Plan lookup for channel %s failed: %v", channelName, err)
			return false
		}
		return p.ID == patientID || p.ID == nutritionistID
	}

	return false
}
