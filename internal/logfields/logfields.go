package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySchema     = "schema"
	KeySchemaID   = "schema_id"
	KeyRecordID   = "record_id"
	KeyField      = "field"
	KeyKind       = "kind"
	KeyRemotePath = "remote_path"
	KeyBatch      = "batch"
	KeyFileCount  = "file_count"
	KeyOperation  = "operation"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Schema(name string) slog.Attr      { return slog.String(KeySchema, name) }
func SchemaID(id int64) slog.Attr       { return slog.Int64(KeySchemaID, id) }
func RecordID(id int64) slog.Attr       { return slog.Int64(KeyRecordID, id) }
func Field(name string) slog.Attr       { return slog.String(KeyField, name) }
func Kind(kind string) slog.Attr        { return slog.String(KeyKind, kind) }
func RemotePath(path string) slog.Attr  { return slog.String(KeyRemotePath, path) }
func Batch(n int) slog.Attr             { return slog.Int(KeyBatch, n) }
func FileCount(n int) slog.Attr         { return slog.Int(KeyFileCount, n) }
func Operation(op string) slog.Attr     { return slog.String(KeyOperation, op) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
