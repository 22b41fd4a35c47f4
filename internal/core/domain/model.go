package domain

// Message is an inbound chat message, stripped down to what command handlers use.
type Message struct {
	ID           int       `json:"message_id"`
	ChatID       int64     `json:"chat_id"`
	ChatType     string    `json:"chat_type,omitempty"`
	FromID       int64     `json:"from_id,omitempty"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	Text         string    `json:"text,omitempty"`
	Contact      *Contact  `json:"contact,omitempty"`
	Location     *Location `json:"location,omitempty"`
	ChatUsername string    `json:"chat_username,omitempty"`
}

type Contact struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CallbackAction is a button press on an inline keyboard.
type CallbackAction struct {
	ID     string
	FromID int64
	ChatID int64
	Data   string
}

// Event is a single update received from the remote API. Exactly one of Message and Callback
// is set for events the bot cares about.
type Event struct {
	UpdateID int64
	Message  *Message
	Callback *CallbackAction
}

// DisplayName returns the sender's username, falling back to the first name.
func (m *Message) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}

	return m.FirstName
}
