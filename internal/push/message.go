package push

// Fixed payload values shared by every notification.
const (
	ClickAction      = "FLUTTER_NOTIFICATION_CLICK"
	AndroidChannelID = "servico_high_importance"
	PriorityHigh     = "high"
	DefaultSound     = "default"
	DefaultBadge     = 1
)

// Message is the cross-platform push payload sent to a single device token.
type Message struct {
	Token        string        `json:"token"`
	Notification Notification  `json:"notification"`
	Data         Data          `json:"data"`
	Android      AndroidConfig `json:"android"`
	APNS         APNSConfig    `json:"apns"`
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Data is the string-only key/value block delivered to the app.
type Data struct {
	Type           string `json:"type"`
	BookingID      string `json:"bookingId"`
	NotificationID string `json:"notificationId"`
	ClickAction    string `json:"click_action"`
}

// Map returns the data block in the key/value form gateways expect.
func (d Data) Map() map[string]string {
	return map[string]string{
		"type":           d.Type,
		"bookingId":      d.BookingID,
		"notificationId": d.NotificationID,
		"click_action":   d.ClickAction,
	}
}

type AndroidConfig struct {
	Priority     string              `json:"priority"`
	Notification AndroidNotification `json:"notification"`
}

type AndroidNotification struct {
	ChannelID string `json:"channelId"`
	Sound     string `json:"sound"`
	Priority  string `json:"priority"`
}

type APNSConfig struct {
	Payload APNSPayload `json:"payload"`
}

type APNSPayload struct {
	Aps Aps `json:"aps"`
}

type Aps struct {
	Sound string `json:"sound"`
	Badge int    `json:"badge"`
}

// DefaultAndroid returns the high-priority Android settings.
func DefaultAndroid() AndroidConfig {
	return AndroidConfig{
		Priority: PriorityHigh,
		Notification: AndroidNotification{
			ChannelID: AndroidChannelID,
			Sound:     DefaultSound,
			Priority:  PriorityHigh,
		},
	}
}

// DefaultAPNS returns the APNs settings: default sound, badge 1.
func DefaultAPNS() APNSConfig {
	return APNSConfig{Payload: APNSPayload{Aps: Aps{Sound: DefaultSound, Badge: DefaultBadge}}}
}
