package tui

import (
	"io"

	"github.com/sirupsen/logrus"
)

// This file is only for test purpose and is only loaded by test framework.

// NewFileHook returns the hook used by NewLogger writing in w for test purpose.
func NewFileHook(w io.Writer, level logrus.Level) logrus.Hook {
	return newFileHook(w, level)
}

// Next exposes next for test purpose.
var Next = next
