package service

import "github.com/noah-isme/upstander-api/internal/models"

// Preference is an admin's resolved notification setting.
type Preference struct {
	NewReport  bool
	NewMessage bool
}

// EffectivePreference applies the defaults to stored flags. A nil flag, whether
// from a missing record or a missing column, means the admin wants the email.
// This is the only place the default is decided.
func EffectivePreference(newReport, newMessage *bool) Preference {
	p := Preference{NewReport: true, NewMessage: true}
	if newReport != nil {
		p.NewReport = *newReport
	}
	if newMessage != nil {
		p.NewMessage = *newMessage
	}
	return p
}

// StoredPreference resolves an optional stored record.
func StoredPreference(stored *models.NotificationPreference) Preference {
	if stored == nil {
		return EffectivePreference(nil, nil)
	}
	return EffectivePreference(&stored.NotifyOnNewReport, &stored.NotifyOnNewMessage)
}

// Allows reports whether the preference opts in to event.
func (p Preference) Allows(event models.NotificationEvent) bool {
	switch event {
	case models.EventNewReport:
		return p.NewReport
	case models.EventNewMessage:
		return p.NewMessage
	default:
		return false
	}
}
