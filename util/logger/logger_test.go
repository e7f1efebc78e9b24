package logger

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/zenizh/go-capturer"
)

var timeRx = `[A-Z][a-z]{2} [ 0-9]{2} [0-9]{2}:[0-9]{2}:[0-9]{2}`

func TestNew(t *testing.T) {
	out := capturer.CaptureStderr(func() {
		log := New(logrus.DebugLevel)
		log.Trace("message")
		log.Debug("message")
		log.Info("message")
		log.Warn("message")
		log.Error("message")
		assert.Panics(t, func() { log.Panic("message") }, "should panic")
	})
	assert.NotContains(t, out, "TRAC", "should not print trace messages with debug level logger")
	assert.Regexp(t, regexp.MustCompile(timeRx+`.*DEBU.* message`), out)
	assert.Regexp(t, regexp.MustCompile(timeRx+`.*INFO.* message`), out)
	assert.Regexp(t, regexp.MustCompile(timeRx+`.*WARN.* message`), out)
	assert.Regexp(t, regexp.MustCompile(timeRx+`.*ERRO.* message`), out)
	assert.Regexp(t, regexp.MustCompile(timeRx+`.*PANI.* message`), out)
}

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, logrus.InfoLevel)
	log.Debug("hidden")
	log.WithField("entry", "logo").Info("Copying")

	assert.NotContains(t, buf.String(), "hidden", "should not print debug messages with info level logger")
	assert.Contains(t, buf.String(), "Copying", "should print message")
	assert.Contains(t, buf.String(), "entry=logo", "should print fields")
}
