package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func jsonConfig() Config {
	c := DefaultConfig()
	c.Formatter = "json"
	c.JSONFormat.DisableTimestamp = true
	return c
}

func TestLog(t *testing.T) {
	l := New("foons", "basearg", 1)
	l.Configure(jsonConfig())

	var b bytes.Buffer
	l.SetOutput(&b)
	l.Info("test")

	expect := `{"basearg":1,"level":"info","msg":"test","ns":"foons"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}

func TestErrorFieldLog(t *testing.T) {
	l := New("foons", "basearg", 1)
	l.Configure(jsonConfig())

	var b bytes.Buffer
	l.SetOutput(&b)

	err := errors.New("fooerr")
	l.Info("test", err)

	expect := `{"basearg":1,"error":"fooerr","level":"info","msg":"test","ns":"foons"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}

func TestSubLogger(t *testing.T) {
	l := New("root")
	l.Configure(jsonConfig())

	var b bytes.Buffer
	l.SetOutput(&b)

	l.Sub("child").WithFields("jobID", "job-1").Info("submitted", "count", 2)

	expect := `{"count":2,"jobID":"job-1","level":"info","msg":"submitted","ns":"child"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}

func TestLevel(t *testing.T) {
	c := jsonConfig()
	c.Level = "error"
	l := NewLogger("foons", c)

	var b bytes.Buffer
	l.SetOutput(&b)
	l.Info("hidden")
	l.Debug("hidden")
	l.Error("shown")

	if strings.Contains(b.String(), "hidden") {
		t.Fatal("unexpected log:", b.String())
	}
	if !strings.Contains(b.String(), "shown") {
		t.Fatal("missing log:", b.String())
	}
}

func TestTextFormatterFallsBackToJSON(t *testing.T) {
	l := New("foons")
	c := DefaultConfig()
	c.JSONFormat.DisableTimestamp = true
	l.Configure(c)

	var b bytes.Buffer
	l.SetOutput(&b)
	l.Info("test", "k", "v")

	expect := `{"k":"v","level":"info","msg":"test","ns":"foons"}` + "\n"
	if b.String() != expect {
		t.Fatal("unexpected log:", b.String())
	}
}
