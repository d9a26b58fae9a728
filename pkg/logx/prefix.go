// Package logx holds small helpers on top of github.com/cyclopcam/logs
package logx

import "github.com/cyclopcam/logs"

// PrefixLogger writes to the underlying log, but all messages are prefixed with a component name
type PrefixLogger struct {
	Log    logs.Log
	Prefix string
}

// NewPrefixLogger returns a logger that prefixes every message with "prefix: ".
// Closing it does not close the underlying log, which is owned by whoever created it.
func NewPrefixLogger(log logs.Log, prefix string) *PrefixLogger {
	// Don't stack prefixes when a component hands its logger to a child
	if p, ok := log.(*PrefixLogger); ok {
		log = p.Log
	}
	return &PrefixLogger{
		Log:    log,
		Prefix: prefix + ": ",
	}
}

func (l *PrefixLogger) Close() {
}

func (l *PrefixLogger) Debugf(format string, a ...interface{}) {
	l.Log.Debugf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Infof(format string, a ...interface{}) {
	l.Log.Infof(l.Prefix+format, a...)
}

func (l *PrefixLogger) Warnf(format string, a ...interface{}) {
	l.Log.Warnf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Errorf(format string, a ...interface{}) {
	l.Log.Errorf(l.Prefix+format, a...)
}

func (l *PrefixLogger) Criticalf(format string, a ...interface{}) {
	l.Log.Criticalf(l.Prefix+format, a...)
}
