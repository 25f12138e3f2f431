package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// InitLogger configures the shared logger. Debug runs get a timestamped
// text formatter; normal runs emit JSON on stderr so the progress line on
// stdout stays readable.
func InitLogger(debug bool) {
	Log = logrus.New()
	Log.Out = os.Stderr

	if debug {
		Log.SetLevel(logrus.DebugLevel)
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		Log.SetLevel(logrus.InfoLevel)
		Log.SetFormatter(&logrus.JSONFormatter{})
	}
}
