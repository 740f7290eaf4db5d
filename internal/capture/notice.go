package capture

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ecohunt/serverless-backend/internal/api"
)

// Level of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient, user-facing message.
type Notice struct {
	Level   Level
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a logrus logger, errors at error level.
func LogNotifier(log logrus.FieldLogger) Notifier {
	return NotifierFunc(func(n Notice) {
		e := log.WithField("notice", n.Level.String())
		if n.Level == LevelError {
			e.Error(n.Message)
			return
		}
		e.Info(n.Message)
	})
}

func successMessage(resp api.ValidateResponse) string {
	return fmt.Sprintf("+%d points! %s", resp.Points, resp.Feedback)
}
