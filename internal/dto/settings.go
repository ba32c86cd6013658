package dto

// NotificationSettingsRequest is a partial update; nil fields keep their current value.
type NotificationSettingsRequest struct {
	NotifyOnNewReport  *bool `json:"notifyOnNewReport"`
	NotifyOnNewMessage *bool `json:"notifyOnNewMessage"`
}

// NotificationSettingsResponse is the effective preference after defaults.
type NotificationSettingsResponse struct {
	NotifyOnNewReport  bool `json:"notifyOnNewReport"`
	NotifyOnNewMessage bool `json:"notifyOnNewMessage"`
}

// SchoolSearchQuery binds GET /schools.
type SchoolSearchQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit"`
}
