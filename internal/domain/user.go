package domain

// UserProfile is the slice of a registered user the notifier reads: who they
// are and which districts they declared interest in during onboarding.
type UserProfile struct {
	UserID    string   `json:"id" dynamodbav:"user_id" validate:"required"`
	Districts []string `json:"districts" dynamodbav:"districts"`
}
