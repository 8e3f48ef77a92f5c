// Package logger wrapper for zerolog
package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config logger settings
type Config struct {
	Level             string
	TimeFieldFormat   string
	PrettyPrint       bool
	RedirectStdLogger bool
	DisableSampling   bool
	ErrorStack        bool
	ShowCaller        bool
	FileName          string
	FileMaxSize       int
	FileMaxBackups    int
	FileMaxAge        int
}

// Logger object capable of interacting with Logger
type Logger struct {
	zero              zerolog.Logger
	zeroErr           zerolog.Logger
	level             string
	prettyPrint       bool
	redirectSTDLogger bool
	showCaller        bool
	fileWriter        io.Writer
}

var defaultConfig = Config{
	Level:           "debug",
	TimeFieldFormat: time.RFC3339,
	PrettyPrint:     true,
	DisableSampling: true,
}

// NewDefault creates Logger with default settings
func NewDefault() *Logger {
	return New(defaultConfig)
}

// NewNop creates Logger that writes nothing
func NewNop() *Logger {
	return &Logger{
		zero:    zerolog.Nop(),
		zeroErr: zerolog.Nop(),
		level:   "disabled",
	}
}

// New creates a new Logger
func New(config Config) *Logger {
	zerolog.SetGlobalLevel(getZerologLevel(config.Level))
	zerolog.DisableSampling(config.DisableSampling)
	zerolog.TimeFieldFormat = config.TimeFieldFormat
	if config.ErrorStack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	}

	l := &Logger{
		level:             config.Level,
		prettyPrint:       config.PrettyPrint,
		redirectSTDLogger: config.RedirectStdLogger,
		showCaller:        config.ShowCaller,
	}

	if config.FileName != "" {
		l.fileWriter = &lumberjack.Logger{
			Filename:   prepareLogFileName(config.FileName),
			MaxSize:    config.FileMaxSize,
			MaxBackups: config.FileMaxBackups,
			MaxAge:     config.FileMaxAge,
		}
	}

	l.compileLogger()

	return l
}

// Debug starts a new message with debug level
func (l *Logger) Debug() *zerolog.Event {
	return l.zero.Debug()
}

// Info starts a new message with info level
func (l *Logger) Info() *zerolog.Event {
	return l.zero.Info()
}

// Warn starts a new message with warn level
func (l *Logger) Warn() *zerolog.Event {
	return l.zeroErr.Warn()
}

// Error starts a new message with error level
func (l *Logger) Error() *zerolog.Event {
	return l.zeroErr.Error()
}

// With creates a child logger with the field added to its context
func (l *Logger) With() zerolog.Context {
	return l.zero.With()
}

// Fatal sends the event with fatal level
func (l *Logger) Fatal(v ...interface{}) {
	l.zeroErr.Fatal().Msgf("%v", v)
}

// Fatalf sends the event with formatted msg with fatal level
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.zeroErr.Fatal().Msgf(format, v...)
}

// Printf sends the event with formatted msg with debug level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zero.Debug().Msgf(format, v...)
}

// SetLevel changes the global level
func (l *Logger) SetLevel(level string) {
	l.level = level
	zerolog.SetGlobalLevel(getZerologLevel(level))
}

// Level returns current level name
func (l *Logger) Level() string {
	return l.level
}

// Duplicate creates a logger sharing outputs with l and the context of zero
func (l *Logger) Duplicate(zero zerolog.Logger) *Logger {
	dup := &Logger{
		level:             l.level,
		prettyPrint:       l.prettyPrint,
		redirectSTDLogger: l.redirectSTDLogger,
		showCaller:        l.showCaller,
		fileWriter:        l.fileWriter,
	}

	out, errOut := dup.writers()
	dup.zero = zero.Output(out).With().Logger()
	dup.zeroErr = zero.Output(errOut).With().Logger()

	if l.prettyPrint {
		dup.addPrettyPrint()
	}

	return dup
}

func (l *Logger) writers() (io.Writer, io.Writer) {
	if l.fileWriter == nil {
		return os.Stdout, os.Stderr
	}
	return zerolog.MultiLevelWriter(os.Stdout, l.fileWriter), zerolog.MultiLevelWriter(os.Stderr, l.fileWriter)
}

func (l *Logger) compileLogger() {
	out, errOut := l.writers()
	l.zero = zerolog.New(out).With().Timestamp().Logger()
	l.zeroErr = zerolog.New(errOut).With().Timestamp().Logger()

	if l.showCaller {
		l.zero = l.zero.With().Caller().Logger()
		l.zeroErr = l.zeroErr.With().Caller().Logger()
	}

	if l.redirectSTDLogger {
		log.SetFlags(0)
		log.SetOutput(l.zero)
	}

	if l.prettyPrint {
		l.addPrettyPrint()
	}
}

func (l *Logger) addPrettyPrint() {
	if l.fileWriter != nil {
		// keep the file in JSON, only the console is pretty printed
		l.zero = l.zero.Output(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stdout}, l.fileWriter))
		l.zeroErr = l.zeroErr.Output(zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, l.fileWriter))
		return
	}
	l.zero = l.zero.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	l.zeroErr = l.zeroErr.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func getZerologLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	}
	return zerolog.NoLevel
}

func prepareLogFileName(pattern string) string {
	cur := time.Now()
	pattern = strings.ReplaceAll(pattern, "%D", cur.Format("02"))
	pattern = strings.ReplaceAll(pattern, "%M", cur.Format("01"))
	pattern = strings.ReplaceAll(pattern, "%Y", cur.Format("2006"))
	pattern = strings.ReplaceAll(pattern, "%H", cur.Format("15"))
	return pattern
}
