package gallery

import "fmt"

// User-facing messages
const (
	MsgInvalidQuery   = "Invalid query"
	MsgSearchError    = "Error searching"
	MsgNoResults      = "Sorry, there are no images matching your search query. Please try again."
	MsgEndOfResults   = "You've reached the end of search results"
	msgFoundImagesFmt = "Hooray! We found %d images."
)

// FoundMessage is the notice shown after the first page of a search
func FoundMessage(totalHits int) string {
	return fmt.Sprintf(msgFoundImagesFmt, totalHits)
}

// Level is the severity of a Notification
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelFailure
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelFailure:
		return "failure"
	default:
		return "info"
	}
}

// Notification is a short message for the user
type Notification struct {
	Level   Level
	Message string
}

// Notifier delivers notifications. Implementations must not call back
// into the Controller synchronously.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
