package ports

// NoticeLevel is the severity of a user-visible notification.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// String returns the string representation of the notice level.
func (l NoticeLevel) String() string {
	switch l {
	case NoticeInfo:
		return "info"
	case NoticeWarn:
		return "warn"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier shows messages to the user.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}
