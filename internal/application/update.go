package application

// Kind tags an inbound update so the router can pick a handler.
type Kind string

const (
	KindStart    Kind = "start"
	KindContact  Kind = "contact"
	KindLocation Kind = "location"
	KindPhoto    Kind = "photo"
	KindText     Kind = "text"
	KindButton   Kind = "button"
	KindCallback Kind = "callback"
)

type Contact struct {
	PhoneNumber string
	// UserID is the Telegram id the contact belongs to; 0 for phone-book contacts.
	UserID int64
}

type Location struct {
	Latitude  float64
	Longitude float64
}

type Photo struct {
	FileID   string
	FileSize int
}

// Update is one user turn as seen by the conversation, independent of the transport.
type Update struct {
	Kind       Kind
	TelegramID int64
	ChatID     int64

	FirstName string
	LastName  string
	Username  string

	// Text carries message text, or callback data for KindCallback.
	Text     string
	Contact  *Contact
	Location *Location
	Photo    *Photo
}
