package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultLogFile is the file where the client logs are written.
	DefaultLogFile = "lfc.log"
	// DefaultLogLevel is the minimum level written in the log file.
	DefaultLogLevel = "info"

	timeLayout = "2006-01-02 15:04:05"
)

// Dump logs the given value, deeply dumped when verbose is set.
func Dump(l logrus.FieldLogger, v any, verbose ...bool) {
	if len(verbose) > 0 && verbose[0] {
		l.Debug(litter.Sdump(v))
		return
	}
	l.Debugf("%+v", v)
}

// NewLogger returns a logger writing the entries of at least the given level in a rotated file.
// Nothing is written on stdout & stderr, they belong to the commands and the TUI.
func NewLogger(filename, level string) (*logrus.Logger, error) {
	if filename == "" {
		filename = DefaultLogFile
	}
	if level == "" {
		level = DefaultLogLevel
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetFormatter(new(lineFormatter))
	log.SetLevel(lvl)
	log.Hooks.Add(newFileHook(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}, lvl))

	return log, nil
}

///// File hook
////
//

type fileHook struct {
	mu        sync.Mutex
	w         io.Writer
	levels    []logrus.Level
	formatter logrus.Formatter
}

func newFileHook(w io.Writer, level logrus.Level) *fileHook {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= level {
			levels = append(levels, l)
		}
	}

	return &fileHook{
		w:         w,
		levels:    levels,
		formatter: new(lineFormatter),
	}
}

// Fire writes the entry in the file.
func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return errors.Wrap(err, "could not format log entry")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = h.w.Write(line)
	return err
}

// Levels implements logrus.Hook.
func (h *fileHook) Levels() []logrus.Level {
	return h.levels
}

///// Formatter
////
//

// lineFormatter writes one line per entry, fields sorted by name and the error last.
type lineFormatter struct{}

// Format implements logrus.Formatter.
func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s",
		entry.Time.Format(timeLayout),
		strings.ToUpper(entry.Level.String()),
		entry.Message,
	)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k != logrus.ErrorKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := entry.Data[logrus.ErrorKey]; ok {
		keys = append(keys, logrus.ErrorKey)
	}

	for _, k := range keys {
		v := fmt.Sprint(entry.Data[k])
		if strings.ContainsAny(v, " \t\"") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(&b, " %s=%s", k, v)
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}
