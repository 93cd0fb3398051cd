package channels

import "context"

// MockDirectory implements every directory interface through function
// fields, for wiring arbitrary membership answers in tests.
type MockDirectory struct {
	IsParticipantFunc  func(ctx context.Context, conversationID, userID int) (bool, error)
	SessionPartiesFunc func(ctx context.Context, sessionID int) (int, int, error)
	PlanPartiesFunc    func(ctx context.Context, planID int) (int, int, error)
}

func (m *MockDirectory) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	if m.IsParticipantFunc == nil {
		return false, nil
	}
	return m.IsParticipantFunc(ctx, conversationID, userID)
}

func (m *MockDirectory) SessionParties(ctx context.Context, sessionID int) (int, int, error) {
	if m.SessionPartiesFunc == nil {
		return 0, 0, nil
	}
	return m.SessionPartiesFunc(ctx, sessionID)
}

func (m *MockDirectory) PlanParties(ctx context.Context, planID int) (int, int, error) {
	if m.PlanPartiesFunc == nil {
		return 0, 0, nil
	}
	return m.PlanPartiesFunc(ctx, planID)
}
