// Package models contains the domain types shared by storage, services and
// HTTP handlers: users with their trial subscription, writing projects with
// their version history, and advisor interactions.
package models

import "time"

// Subscription plans.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionTrial    = "trial"
)

// Editor themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// TrialPeriod is the length of the free trial granted at registration.
const TrialPeriod = 7 * 24 * time.Hour

// User is a registered writer.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // bcrypt hash, never serialized
	Name         string       `json:"name"`
	Subscription Subscription `json:"subscription"`
	Preferences  Preferences  `json:"preferences"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Subscription holds the billing plan and the trial window.
type Subscription struct {
	Plan           string    `json:"plan"`
	Status         string    `json:"status"`
	TrialStartDate time.Time `json:"trialStartDate"`
	TrialEndDate   time.Time `json:"trialEndDate"`
}

// Preferences are per-user editor defaults.
type Preferences struct {
	DefaultTemplate  string `json:"defaultTemplate"`
	AutoSaveInterval int    `json:"autoSaveInterval"` // milliseconds
	EditorTheme      string `json:"editorTheme"`
}

// PreferencesPatch is a partial preferences update; nil fields are left as is.
type PreferencesPatch struct {
	DefaultTemplate  *string `json:"defaultTemplate" validate:"omitempty,oneof=novel blog research screenplay custom"`
	AutoSaveInterval *int    `json:"autoSaveInterval" validate:"omitempty,min=0"`
	EditorTheme      *string `json:"editorTheme" validate:"omitempty,oneof=light dark"`
}

// PublicUser is the part of a user returned to clients.
type PublicUser struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Subscription Subscription `json:"subscription"`
	Preferences  Preferences  `json:"preferences"`
}

// NewUser builds a user at registration time with a fresh trial.
func NewUser(name, email, passwordHash string, now time.Time) User {
	now = now.UTC()
	return User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Subscription: Subscription{
			Plan:           PlanFree,
			Status:         SubscriptionTrial,
			TrialStartDate: now,
			TrialEndDate:   now.Add(TrialPeriod),
		},
		Preferences: DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DefaultPreferences returns the preferences of a new account.
func DefaultPreferences() Preferences {
	return Preferences{
		DefaultTemplate:  TemplateNovel,
		AutoSaveInterval: 30000,
		EditorTheme:      ThemeLight,
	}
}

// HasAccess reports whether the access gate is open: an active subscription
// or a trial window that has not ended yet.
func (u *User) HasAccess(now time.Time) bool {
	return u.Subscription.Status == SubscriptionActive || now.Before(u.Subscription.TrialEndDate)
}

// Public strips credentials and bookkeeping fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Subscription: u.Subscription,
		Preferences:  u.Preferences,
	}
}

// Apply merges the non-nil fields of the patch into p.
func (p *Preferences) Apply(patch PreferencesPatch) {
	if patch.DefaultTemplate != nil {
		p.DefaultTemplate = *patch.DefaultTemplate
	}
	if patch.AutoSaveInterval != nil {
		p.AutoSaveInterval = *patch.AutoSaveInterval
	}
	if patch.EditorTheme != nil {
		p.EditorTheme = *patch.EditorTheme
	}
}

// TrialReminder is the message published for users whose trial is about to end.
type TrialReminder struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	TrialEndDate time.Time `json:"trialEndDate"`
}
