package inspect

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSink_PrimaryOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)

	sink.Writef("hello %d\n", 42)

	if got := buf.String(); got != "hello 42\n" {
		t.Errorf("primary: got %q, want %q", got, "hello 42\n")
	}
}

func TestSink_Duplication(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)
	path := filepath.Join(t.TempDir(), "dump.txt")

	if err := sink.Arm(path); err != nil {
		t.Fatalf("arm: %v", err)
	}
	sink.Writef("line one\n")
	sink.Writef("line %s\n", "two")
	sink.Disarm()

	fileContent, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read tee file: %v", err)
	}
	if !bytes.Equal(fileContent, buf.Bytes()) {
		t.Errorf("sinks diverged:\nprimary: %q\nfile: %q", buf.String(), fileContent)
	}
}

func TestSink_ArmFailure(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)

	err := sink.Arm(filepath.Join(t.TempDir(), "no", "such", "dir", "x"))
	if err == nil {
		t.Fatal("expected error arming unopenable path")
	}
	if sink.Armed() != "" {
		t.Error("failed arm must leave no secondary sink")
	}

	// Primary output unaffected.
	sink.Writef("still works\n")
	if buf.String() != "still works\n" {
		t.Errorf("primary after failed arm: got %q", buf.String())
	}
}

func TestSink_ArmFailureReleasesPrevious(t *testing.T) {
	sink := NewSink(&bytes.Buffer{})
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")

	if err := sink.Arm(pathA); err != nil {
		t.Fatalf("arm a: %v", err)
	}
	if err := sink.Arm(filepath.Join(dir, "no", "b.txt")); err == nil {
		t.Fatal("expected error")
	}
	if sink.Armed() != "" {
		t.Error("failed re-arm must close the previous sink and arm nothing")
	}
}

func TestSink_RearmReplaces(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")

	if err := sink.Arm(pathA); err != nil {
		t.Fatalf("arm a: %v", err)
	}
	sink.Writef("to a\n")

	if err := sink.Arm(pathB); err != nil {
		t.Fatalf("arm b: %v", err)
	}
	if sink.Armed() != pathB {
		t.Errorf("armed path: got %q, want %q", sink.Armed(), pathB)
	}
	sink.Writef("to b\n")
	sink.Disarm()

	a, _ := os.ReadFile(pathA)
	b, _ := os.ReadFile(pathB)
	if string(a) != "to a\n" {
		t.Errorf("a.txt: got %q, want %q", a, "to a\n")
	}
	if string(b) != "to b\n" {
		t.Errorf("b.txt: got %q, want %q", b, "to b\n")
	}
}

func TestSink_EmptyPathDisarms(t *testing.T) {
	sink := NewSink(&bytes.Buffer{})
	path := filepath.Join(t.TempDir(), "a.txt")

	if err := sink.Arm(path); err != nil {
		t.Fatalf("arm: %v", err)
	}
	if err := sink.Arm(""); err != nil {
		t.Fatalf("arm empty: %v", err)
	}
	if sink.Armed() != "" {
		t.Error("empty path should disarm")
	}
}

func TestSink_DisarmIdempotent(t *testing.T) {
	sink := NewSink(&bytes.Buffer{})
	path := filepath.Join(t.TempDir(), "a.txt")

	if err := sink.Arm(path); err != nil {
		t.Fatalf("arm: %v", err)
	}
	sink.Disarm()
	sink.Disarm() // must not fault on double close
	sink.Disarm()
}

func TestSink_NilPrimaryDefaultsToStdout(t *testing.T) {
	sink := NewSink(nil)
	if sink.primary != os.Stdout {
		t.Error("nil primary should default to os.Stdout")
	}
}

// failingWriter always errors, standing in for a full disk.
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestSink_AttachedFailureDoesNotDisturbPrimary(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf)
	sink.Attach(failingWriter{})

	sink.Writef("payload\n")

	if buf.String() != "payload\n" {
		t.Errorf("primary corrupted by attached failure: %q", buf.String())
	}
}

func TestSink_AttachDetach(t *testing.T) {
	var buf, extra bytes.Buffer
	sink := NewSink(&buf)

	sink.Attach(&extra)
	sink.Writef("one\n")
	sink.Detach(&extra)
	sink.Writef("two\n")

	if extra.String() != "one\n" {
		t.Errorf("extra: got %q, want %q", extra.String(), "one\n")
	}
	if buf.String() != "one\ntwo\n" {
		t.Errorf("primary: got %q", buf.String())
	}
}
