package logger

import (
	"bufio"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

// sensitiveKeys hold user utterances or tool content and are masked before writing
var sensitiveKeys = map[string]bool{
	"text":      true,
	"utterance": true,
	"content":   true,
	"reply":     true,
}

type ZapLogger struct {
	logger   *zap.Logger
	filePath string
}

func newRotator(logFilePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

func newJSONEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// NewZapLogger writes JSON to a rotated file and mirrors everything to stdout.
// Development mode uses the human readable console encoder for stdout.
func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	jsonEncoder := newJSONEncoder()
	consoleEncoder := jsonEncoder
	if !isProd {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	core := zapcore.NewTee(
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(newRotator(logFilePath)), zap.InfoLevel),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), zap.DebugLevel),
	)

	return &ZapLogger{
		logger:   zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)),
		filePath: logFilePath,
	}
}

// NewIsolatedLogger writes only to its own file. The websocket hub logs here.
func NewIsolatedLogger(logFilePath string) *ZapLogger {
	core := zapcore.NewCore(newJSONEncoder(), zapcore.AddSync(newRotator(logFilePath)), zap.InfoLevel)
	return &ZapLogger{
		logger:   zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)),
		filePath: logFilePath,
	}
}

// NewNopLogger discards everything. Used by tests and the offline simulator.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.write(zapcore.DebugLevel, module, message, details)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.write(zapcore.InfoLevel, module, message, details)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.write(zapcore.WarnLevel, module, message, details)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.write(zapcore.ErrorLevel, module, message, details)
}

func (l *ZapLogger) write(level zapcore.Level, module, message string, details map[string]interface{}) {
	ce := l.logger.Check(level, message)
	if ce == nil {
		return
	}
	fields := []zap.Field{zap.String("module", module), zap.Any("details", maskDetails(details))}
	if err, ok := details["error"].(error); ok {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

// maskDetails copies details, replacing user text with MaskText
func maskDetails(details map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		if s, ok := v.(string); ok && sensitiveKeys[k] {
			out[k] = MaskText(s)
			continue
		}
		if err, ok := v.(error); ok {
			out[k] = err.Error()
			continue
		}
		out[k] = v
	}
	return out
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

type LogEntry struct {
	Id        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Module    string                 `json:"module,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// LogQuery filters the diagnostics log view. Empty fields match everything.
type LogQuery struct {
	Level   string
	Module  string
	TraceId string
	Limit   int
	Offset  int
}

func (q LogQuery) matches(e LogEntry) bool {
	if q.Level != "" && e.Level != q.Level {
		return false
	}
	if q.Module != "" && e.Module != q.Module {
		return false
	}
	if q.TraceId != "" {
		if id, _ := e.Details["trace_id"].(string); id != q.TraceId {
			return false
		}
	}
	return true
}

// GetLogs reads the active log file newest first. Rotated archives are not scanned.
func (l *ZapLogger) GetLogs(q LogQuery) ([]LogEntry, error) {
	if l.filePath == "" {
		return []LogEntry{}, nil
	}
	file, err := os.Open(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		var entry LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if !q.matches(entry) {
			continue
		}
		if entry.Id == "" {
			entry.Id = fmt.Sprintf("%x", md5.Sum(line))
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	if q.Offset >= len(entries) {
		return []LogEntry{}, nil
	}
	end := len(entries)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return entries[q.Offset:end], nil
}

func (l *ZapLogger) GetLogById(id string) (*LogEntry, error) {
	logs, err := l.GetLogs(LogQuery{})
	if err != nil {
		return nil, err
	}
	for i := range logs {
		if logs[i].Id == id {
			return &logs[i], nil
		}
	}
	return nil, fmt.Errorf("log not found")
}
