package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"Schema", KeySchema, "Game reviews", Schema("Game reviews")},
		{"Field", KeyField, "title", Field("title")},
		{"Kind", KeyKind, "image_url", Kind("image_url")},
		{"RemotePath", KeyRemotePath, "reviews/celeste.html", RemotePath("reviews/celeste.html")},
		{"Operation", KeyOperation, "publish", Operation("publish")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal { // Value is slog.Value
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := SchemaID(3); v.Key != KeySchemaID { t.Fatalf("SchemaID key mismatch: %s", v.Key) }
	if v := RecordID(7); v.Key != KeyRecordID { t.Fatalf("RecordID key mismatch: %s", v.Key) }
	if v := Batch(2); v.Key != KeyBatch { t.Fatalf("Batch key mismatch: %s", v.Key) }
	if v := FileCount(60); v.Key != KeyFileCount { t.Fatalf("FileCount key mismatch: %s", v.Key) }
	if v := DurationMS(12.5); v.Key != KeyDurationMS { t.Fatalf("DurationMS key mismatch: %s", v.Key) }
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError { t.Fatalf("Error key mismatch: %s", attr.Key) }
	if attr.Value.String() != "" { t.Fatalf("Expected empty error string, got %s", attr.Value.String()) }
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" { t.Fatalf("Expected 'err-test', got %s", attr.Value.String()) }
}

type errTest struct{}
func (e errTest) Error() string { return "err-test" }
