package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 100

// Logger is a levelled logger backed by logrus. Entries go to a file (or any
// writer) and are fanned out to subscribers, which is how diagnostics reach the
// presentation side.
type Logger struct {
	log *logrus.Logger

	mu   sync.Mutex // guards file and name
	file *os.File   // nil when the logger was built around a plain writer
	name string

	subMu       sync.Mutex
	subscribers []chan string
}

// NewLogger opens (or creates) filename in append mode and logs into it.
// An empty filename logs to stderr.
func NewLogger(filename string) (*Logger, error) {
	if filename == "" {
		return NewLoggerTo(os.Stderr), nil
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", filename, err)
	}

	l := NewLoggerTo(file)
	l.file = file
	l.name = filename
	return l, nil
}

// NewLoggerTo builds a Logger writing to w.
func NewLoggerTo(w io.Writer) *Logger {
	l := &Logger{log: logrus.New()}
	l.log.SetOutput(w)
	l.log.SetLevel(logrus.DebugLevel)
	l.log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.log.AddHook(subscriberHook{l})
	return l
}

// SetLevel sets the minimum level by name ("debug", "info", "warning", ...).
func (l *Logger) SetLevel(name string) error {
	if name == "" {
		return nil
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	l.log.SetLevel(level)
	return nil
}

// Close closes the underlying log file, if any. Later entries go to stderr.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.log.SetOutput(os.Stderr)
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Reopen switches logging to filename, closing the previous file. If filename
// cannot be opened, logging falls back to stderr.
func (l *Logger) Reopen(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.log.SetOutput(os.Stderr)
		l.closeFile()
		return fmt.Errorf("reopen log file %s: %w", filename, err)
	}

	l.log.SetOutput(file)
	l.closeFile()
	l.file = file
	l.name = filename
	return nil
}

// closeFile closes the current file; logrus must no longer point at it.
func (l *Logger) closeFile() {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

// Log writes message at level.
func (l *Logger) Log(level LogLevel, message string) {
	l.log.Log(level.toLogrus(), message)
}

// WithFields returns an entry carrying structured fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

// CheckRotate rotates the log file once it grows beyond maxSize bytes.
// Loggers not backed by a file never rotate.
func (l *Logger) CheckRotate(maxSize int64) error {
	if maxSize <= 0 {
		return nil
	}

	l.mu.Lock()
	if l.file == nil {
		l.mu.Unlock()
		return nil
	}
	info, err := l.file.Stat()
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}

	if info.Size() > maxSize {
		return l.rotateLog()
	}
	return nil
}

func (l *Logger) rotateLog() error {
	// entries written while the file is moved go to stderr
	l.mu.Lock()
	name := l.name
	l.log.SetOutput(os.Stderr)
	l.closeFile()
	l.mu.Unlock()

	ext := ""
	base := name
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	rotated := fmt.Sprintf("%s.%s%s", base, time.Now().Format("20060102150405.000000000"), ext)
	if err := os.Rename(name, rotated); err != nil {
		// keep appending to the unrotated file
		if reopenErr := l.Reopen(name); reopenErr != nil {
			return errors.Join(fmt.Errorf("rotate log file: %w", err), reopenErr)
		}
		return fmt.Errorf("rotate log file: %w", err)
	}

	return l.Reopen(name)
}

// Subscribe returns a channel receiving every formatted entry from now on.
// Entries are dropped for subscribers whose buffer is full.
func (l *Logger) Subscribe() <-chan string {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	ch := make(chan string, subscriberBuffer)
	l.subscribers = append(l.subscribers, ch)
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (l *Logger) Unsubscribe(ch <-chan string) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	for i, sub := range l.subscribers {
		if sub == ch {
			l.subscribers = append(l.subscribers[:i], l.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (l *Logger) publish(entry string) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
}

type subscriberHook struct {
	l *Logger
}

func (h subscriberHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h subscriberHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	h.l.publish(strings.TrimRight(line, "\n"))
	return nil
}

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) toLogrus() logrus.Level {
	switch l {
	case DEBUG:
		return logrus.DebugLevel
	case WARNING:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		// Logged at fatal severity without exiting; callers decide.
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseSize evaluates size expressions such as "10 * 1024 * 1024".
func ParseSize(expr string) (int64, error) {
	if strings.TrimSpace(expr) == "" {
		return 0, nil
	}
	var result int64 = 1
	for _, part := range strings.Split(expr, "*") {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size expression %q: %w", expr, err)
		}
		result *= num
	}
	return result, nil
}

func (l *Logger) Debug(msg string)   { l.Log(DEBUG, msg) }
func (l *Logger) Info(msg string)    { l.Log(INFO, msg) }
func (l *Logger) Warning(msg string) { l.Log(WARNING, msg) }
func (l *Logger) Error(msg string)   { l.Log(ERROR, msg) }
func (l *Logger) Fatal(msg string)   { l.Log(FATAL, msg) }
