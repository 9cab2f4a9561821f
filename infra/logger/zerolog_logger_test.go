package logger

import "testing"

func TestNewReturnsLogger(t *testing.T) {
	l := New("test")
	if l == nil {
		t.Fatal("expected logger")
	}
	// Must not panic on any level.
	l.Debugf("debug %d", 1)
	l.Infof("info %s", "x")
	l.Warnf("warn")
	l.Errorf("error: %v", nil)
}

func TestNewDevConsole(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := New("test")
	l.Infof("console output")
}
