package client

import (
	"context"

	"github.com/sirupsen/logrus"
)

var OpenApp = func(ctx context.Context, settings Settings, log *logrus.Logger, restore bool) (*App, error) {
	return open(ctx, settings, log, restore)
}

// Answer makes the prompts return the given lines in order and the given password.
func Answer(password string, lines ...string) (restore func()) {
	line, pass := promptLine, promptPassword

	promptLine = func(string) (string, error) {
		if len(lines) == 0 {
			return "", nil
		}
		l := lines[0]
		lines = lines[1:]
		return l, nil
	}
	promptPassword = func(string) ([]byte, error) {
		return []byte(password), nil
	}

	return func() {
		promptLine, promptPassword = line, pass
	}
}
