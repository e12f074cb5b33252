package models

import "time"

// UnlimitedCredits is the sentinel value the backend and client use for
// premium accounts whose credits are never consumed.
const UnlimitedCredits = -1

// Membership plans recognised by the purchase flow.
const (
	PlanAnnual = "annual"
	PlanWeekly = "weekly"
	PlanNone   = "none"
)

// User represents the profile half of an authenticated identity.
type User struct {
	ID                  string    `json:"id"`
	Username            string    `json:"username"`
	Mail                string    `json:"mail"`
	Credits             int       `json:"credits"`
	IsPremium           bool      `json:"isPremium"`
	MembershipPlan      string    `json:"membershipPlan,omitempty"`
	MembershipStartDate time.Time `json:"membershipStartDate,omitempty"`
	Avatar              string    `json:"avatar,omitempty"`
}

// Unlimited reports whether the account's credits are the unlimited sentinel.
func (u User) Unlimited() bool {
	return u.Credits == UnlimitedCredits
}

// Session pairs the bearer token with the profile it authenticates.
// Token and User are always set and cleared together.
type Session struct {
	Token string
	User  User
}

// GeneratedImage is one AI-produced artifact after normalization.
// Immutable from the client's perspective once created.
type GeneratedImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}

// Friend edge types. A request edge is directional (User1 sent it);
// a friend edge is symmetric.
const (
	EdgeRequest = "request"
	EdgeFriend  = "friend"
)

// FriendEdge is a relationship between two users, plus denormalized
// display fields for whichever side is "other" relative to the viewer.
type FriendEdge struct {
	ID       string `json:"id"`
	User1    string `json:"user1"`
	User2    string `json:"user2"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// SentBy reports whether the edge is a pending request initiated by userID.
func (e FriendEdge) SentBy(userID string) bool {
	return e.Type == EdgeRequest && e.User1 == userID
}
