package keyword

import (
	"errors"
	"testing"
)

func TestPartitionKey_RoundTrip(t *testing.T) {
	cases := []struct {
		modelID  int64
		project  string
		category Category
	}{
		{1, "Common", CategoryContext},
		{42, "my_project_2", CategoryAction},
		{7, "", CategoryOutcome},
		{9007199254740993, "P", CategoryOutcome},
	}

	for _, tc := range cases {
		name, err := EncodePartitionKey(tc.modelID, tc.project, tc.category)
		if err != nil {
			t.Fatalf("encode(%d, %q, %s): %v", tc.modelID, tc.project, tc.category, err)
		}
		key, err := DecodePartitionKey(name)
		if err != nil {
			t.Fatalf("decode(%q): %v", name, err)
		}
		if key.ModelID() != tc.modelID || key.Project() != tc.project || key.Category() != tc.category {
			t.Errorf("round trip %q: got (%d, %q, %s)", name, key.ModelID(), key.Project(), key.Category())
		}
	}
}

func TestEncodePartitionKey_Format(t *testing.T) {
	name, err := EncodePartitionKey(3, "Common", CategoryAction)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "3-Common-Action" {
		t.Errorf("expected 3-Common-Action, got %q", name)
	}
}

func TestEncodePartitionKey_Validation(t *testing.T) {
	cases := []struct {
		name     string
		project  string
		category Category
	}{
		{"delimiter in project", "bad-project", CategoryOutcome},
		{"space in project", "my project", CategoryOutcome},
		{"slash in project", "a/b", CategoryContext},
		{"unknown category", "P", Category("Given")},
		{"empty category", "P", Category("")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodePartitionKey(1, tc.project, tc.category)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestDecodePartitionKey_ParseErrors(t *testing.T) {
	for _, name := range []string{"", "Outcome", "1-Outcome", "x-P-Outcome", "1-P-Then", "a-b-P-Outcome"} {
		_, err := DecodePartitionKey(name)
		if !errors.Is(err, ErrParse) {
			t.Errorf("decode(%q): expected ErrParse, got %v", name, err)
		}
	}
}

func TestDocumentID_RoundTrip(t *testing.T) {
	for _, id := range []string{"e1", "4f6e2c1a-9b7d-4c3e-8a21-0d5f6b7c8e9a", "x"} {
		ext, kind, err := DecodeDocumentID(EncodeDocumentID(id, false))
		if err != nil {
			t.Fatalf("decode keyword id: %v", err)
		}
		if ext != id || kind != KindKeyword {
			t.Errorf("keyword round trip %q: got (%q, %s)", id, ext, kind)
		}

		ext, kind, err = DecodeDocumentID(EncodeDocumentID(id, true))
		if err != nil {
			t.Fatalf("decode description id: %v", err)
		}
		if ext != id || kind != KindDescription {
			t.Errorf("description round trip %q: got (%q, %s)", id, ext, kind)
		}
	}
}

func TestDecodeDocumentID_ParseErrors(t *testing.T) {
	for _, id := range []string{"e1", "e1-x", "e1-", "e1-kd"} {
		_, _, err := DecodeDocumentID(id)
		if !errors.Is(err, ErrParse) {
			t.Errorf("decode(%q): expected ErrParse, got %v", id, err)
		}
	}
}

func TestSiblingID(t *testing.T) {
	got, err := SiblingID("e1-k")
	if err != nil || got != "e1-d" {
		t.Errorf("sibling of e1-k: got (%q, %v)", got, err)
	}
	got, err = SiblingID("e1-d")
	if err != nil || got != "e1-k" {
		t.Errorf("sibling of e1-d: got (%q, %v)", got, err)
	}
	if _, err := SiblingID("e1-z"); !errors.Is(err, ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestValidateExternalID(t *testing.T) {
	if err := ValidateExternalID("4f6e2c1a-9b7d-4c3e-8a21-0d5f6b7c8e9a"); err != nil {
		t.Errorf("uuid should be accepted: %v", err)
	}
	for _, id := range []string{"", "  ", "e1-k", "e1-d"} {
		if err := ValidateExternalID(id); !errors.Is(err, ErrValidation) {
			t.Errorf("ValidateExternalID(%q): expected ErrValidation, got %v", id, err)
		}
	}
}

func TestError_Structure(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrUnknownPartition, "1-P-Outcome", cause)

	if !errors.Is(err, ErrUnknownPartition) {
		t.Error("expected errors.Is to match kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match cause")
	}
	if errors.Is(err, ErrUnknownModel) {
		t.Error("unexpected match on other kind")
	}

	var target *Error
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to find *Error")
	}
	if target.Subject() != "1-P-Outcome" {
		t.Errorf("expected subject 1-P-Outcome, got %q", target.Subject())
	}
	if err.Error() != `unknown partition: "1-P-Outcome": boom` {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, err := ParseCategory(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = (%s, %v)", c, got, err)
		}
	}
	if _, err := ParseCategory("context"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for lowercase, got %v", err)
	}
}
