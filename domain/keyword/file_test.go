package keyword

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFile_RoundTripThroughJSON(t *testing.T) {
	entries := []Entry{
		NewEntry("a1", CategoryContext, "the user <name> exists", ""),
		NewEntry("a2", CategoryOutcome, "the light is green", "traffic signal state"),
	}

	var buf bytes.Buffer
	if err := NewFile(entries).Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"keyword": "the user <name> exists"`) {
		t.Fatalf("angle brackets should not be escaped:\n%s", buf.String())
	}

	f, err := ReadFile(&buf)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got, err := f.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 2 || got[1] != entries[1] || got[0] != entries[0] {
		t.Fatalf("got %+v, want %+v", got, entries)
	}
}

func TestFile_EntriesRejectsUnknownType(t *testing.T) {
	f := File{Keywords: []FileEntry{{ID: "a", Type: "Given", Keyword: "x"}}}
	_, err := f.Entries()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestFile_EntriesRejectsReservedID(t *testing.T) {
	f := File{Keywords: []FileEntry{{ID: "a-k", Type: "Action", Keyword: "x"}}}
	_, err := f.Entries()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestReadFile_Malformed(t *testing.T) {
	_, err := ReadFile(strings.NewReader("{"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}
