package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/emircancapkan/karma-case/internal/models"
)

// rawUser tolerates the backend's inconsistent field naming (_id vs id,
// mail vs email) and maps it to the canonical profile record.
type rawUser struct {
	ID                  string `json:"id"`
	AltID               string `json:"_id"`
	Username            string `json:"username"`
	Mail                string `json:"mail"`
	Email               string `json:"email"`
	Credits             *int   `json:"credits"`
	IsPremium           bool   `json:"isPremium"`
	MembershipPlan      string `json:"membershipPlan"`
	MembershipStartDate string `json:"membershipStartDate"`
	Avatar              string `json:"avatar"`
}

func (r rawUser) normalize() models.User {
	user := models.User{
		ID:        firstNonEmpty(r.ID, r.AltID),
		Username:  r.Username,
		Mail:      firstNonEmpty(r.Mail, r.Email),
		IsPremium: r.IsPremium,
		Avatar:    r.Avatar,
	}
	if r.Credits != nil {
		user.Credits = *r.Credits
	}
	user.MembershipPlan = r.MembershipPlan
	if user.MembershipPlan == "" {
		user.MembershipPlan = models.PlanNone
	}
	if r.MembershipStartDate != "" {
		if started, err := time.Parse(time.RFC3339, r.MembershipStartDate); err == nil {
			user.MembershipStartDate = started
		}
	}
	return user
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, clientError(fmt.Errorf("decode response: %w", err))
	}
	return env, nil
}
