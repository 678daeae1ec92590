// Package store persists schemas, records and field values in SQLite.
//
// Values are stored opaquely as JSON text; encoding and decoding is owned by
// the field type registered under each field's kind. The store only moves
// bytes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/schema"
)

const timeLayout = time.RFC3339Nano

// Store implements the record store on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if necessary) the database at dbPath.
// Use ":memory:" for an in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.StoreFailed("open", err)
	}
	// A single connection keeps ":memory:" databases coherent and sidesteps
	// SQLite writer contention.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.StoreFailed("initialize", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS template (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		base_path TEXT NOT NULL DEFAULT '',
		entry_template TEXT NOT NULL DEFAULT '',
		entry_path_template TEXT NOT NULL DEFAULT '',
		index_template TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS template_field (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL REFERENCES template(id),
		field_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		options_json TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		UNIQUE(template_id, field_name)
	);
	CREATE TABLE IF NOT EXISTS template_entry (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL REFERENCES template(id),
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS template_field_value (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_entry_id INTEGER NOT NULL REFERENCES template_entry(id),
		template_field_id INTEGER NOT NULL REFERENCES template_field(id),
		value_json TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_field_template ON template_field(template_id);
	CREATE INDEX IF NOT EXISTS idx_entry_template ON template_entry(template_id);
	CREATE INDEX IF NOT EXISTS idx_value_entry ON template_field_value(template_entry_id);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// CreateSchema persists a new schema and its field definitions. The assigned
// IDs are written back into sc.
func (s *Store) CreateSchema(ctx context.Context, sc *schema.Schema) error {
	if err := sc.Validate(); err != nil {
		return errors.ValidationFailed("schema", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StoreFailed("create_schema", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM template WHERE name = ?", sc.Name).Scan(&exists); err != nil {
		return errors.StoreFailed("create_schema", err)
	}
	if exists > 0 {
		return errors.DuplicateSchemaName(sc.Name)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO template (name, base_path, entry_template, entry_path_template, index_template) VALUES (?, ?, ?, ?, ?)",
		sc.Name, sc.BasePath, sc.EntryTemplate, sc.EntryPathTemplate, sc.IndexTemplate,
	)
	if err != nil {
		return errors.StoreFailed("create_schema", err)
	}
	sc.ID, err = res.LastInsertId()
	if err != nil {
		return errors.StoreFailed("create_schema", err)
	}

	for i := range sc.Fields {
		f := &sc.Fields[i]
		opts, err := encodeOptions(f.Options)
		if err != nil {
			return errors.StoreFailed("create_schema", err)
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO template_field (template_id, field_name, kind, options_json, position) VALUES (?, ?, ?, ?, ?)",
			sc.ID, f.Name, f.Kind, opts, i,
		)
		if err != nil {
			return errors.StoreFailed("create_schema", err)
		}
		if f.ID, err = res.LastInsertId(); err != nil {
			return errors.StoreFailed("create_schema", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StoreFailed("create_schema", err)
	}
	return nil
}

// GetSchema loads a schema and its field definitions by ID.
func (s *Store) GetSchema(ctx context.Context, id int64) (*schema.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadSchema(ctx, "id = ?", id)
}

// GetSchemaByName loads a schema and its field definitions by name.
func (s *Store) GetSchemaByName(ctx context.Context, name string) (*schema.Schema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadSchema(ctx, "name = ?", name)
}

func (s *Store) loadSchema(ctx context.Context, where string, arg any) (*schema.Schema, error) {
	sc := &schema.Schema{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, base_path, entry_template, entry_path_template, index_template FROM template WHERE "+where,
		arg,
	).Scan(&sc.ID, &sc.Name, &sc.BasePath, &sc.EntryTemplate, &sc.EntryPathTemplate, &sc.IndexTemplate)
	if err == sql.ErrNoRows {
		if id, ok := arg.(int64); ok {
			return nil, errors.SchemaNotFound(id)
		}
		return nil, errors.New(errors.CategoryStorage, errors.SeverityFatal, "schema not found").
			WithContext("schema", arg)
	}
	if err != nil {
		return nil, errors.StoreFailed("get_schema", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, field_name, kind, options_json FROM template_field WHERE template_id = ? ORDER BY position, id",
		sc.ID,
	)
	if err != nil {
		return nil, errors.StoreFailed("get_schema", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f schema.FieldDefinition
		var opts sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &f.Kind, &opts); err != nil {
			return nil, errors.StoreFailed("get_schema", err)
		}
		if opts.Valid {
			if f.Options, err = decodeOptions(opts.String); err != nil {
				return nil, errors.StoreFailed("get_schema", err)
			}
		}
		sc.Fields = append(sc.Fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreFailed("get_schema", err)
	}
	return sc, nil
}

// CreateRecord inserts a new empty record for the schema and returns it with
// updated_at set to now.
func (s *Store) CreateRecord(ctx context.Context, schemaID int64) (*schema.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO template_entry (template_id, updated_at) VALUES (?, ?)",
		schemaID, now.Format(timeLayout),
	)
	if err != nil {
		return nil, errors.StoreFailed("create_record", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.StoreFailed("create_record", err)
	}
	return &schema.Record{ID: id, SchemaID: schemaID, UpdatedAt: now}, nil
}

// GetRecord loads a single record by ID.
func (s *Store) GetRecord(ctx context.Context, id int64) (*schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec schema.Record
	var ts string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, template_id, updated_at FROM template_entry WHERE id = ?", id,
	).Scan(&rec.ID, &rec.SchemaID, &ts)
	if err == sql.ErrNoRows {
		return nil, errors.RecordNotFound(id)
	}
	if err != nil {
		return nil, errors.StoreFailed("get_record", err)
	}
	if rec.UpdatedAt, err = parseTime(ts); err != nil {
		return nil, errors.StoreFailed("get_record", err)
	}
	return &rec, nil
}

// GetRecords returns all records for a schema, most recently updated first.
func (s *Store) GetRecords(ctx context.Context, schemaID int64) ([]schema.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, template_id, updated_at FROM template_entry WHERE template_id = ? ORDER BY updated_at DESC, id DESC",
		schemaID,
	)
	if err != nil {
		return nil, errors.StoreFailed("get_records", err)
	}
	defer rows.Close()

	var recs []schema.Record
	for rows.Next() {
		var rec schema.Record
		var ts string
		if err := rows.Scan(&rec.ID, &rec.SchemaID, &ts); err != nil {
			return nil, errors.StoreFailed("get_records", err)
		}
		if rec.UpdatedAt, err = parseTime(ts); err != nil {
			return nil, errors.StoreFailed("get_records", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreFailed("get_records", err)
	}
	return recs, nil
}

// GetFieldValues returns the stored values for a record, keyed by field name.
func (s *Store) GetFieldValues(ctx context.Context, recordID int64) ([]schema.FieldValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT f.field_name, v.value_json
		 FROM template_field_value v
		 JOIN template_field f ON f.id = v.template_field_id
		 WHERE v.template_entry_id = ?
		 ORDER BY f.position, f.id`,
		recordID,
	)
	if err != nil {
		return nil, errors.StoreFailed("get_field_values", err)
	}
	defer rows.Close()

	var values []schema.FieldValue
	for rows.Next() {
		fv := schema.FieldValue{RecordID: recordID}
		var raw string
		if err := rows.Scan(&fv.FieldName, &raw); err != nil {
			return nil, errors.StoreFailed("get_field_values", err)
		}
		fv.ValueJSON = []byte(raw)
		values = append(values, fv)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreFailed("get_field_values", err)
	}
	return values, nil
}

// ReplaceFieldValues replaces ALL stored values for the record with the given
// set, in one transaction. Fields absent from values end up with no stored
// value. The record's updated_at is bumped to now; the new timestamp is
// returned.
func (s *Store) ReplaceFieldValues(ctx context.Context, recordID int64, values []schema.FieldValue) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return time.Time{}, errors.StoreFailed("replace_field_values", err)
	}
	defer tx.Rollback()

	var schemaID int64
	err = tx.QueryRowContext(ctx, "SELECT template_id FROM template_entry WHERE id = ?", recordID).Scan(&schemaID)
	if err == sql.ErrNoRows {
		return time.Time{}, errors.RecordNotFound(recordID)
	}
	if err != nil {
		return time.Time{}, errors.StoreFailed("replace_field_values", err)
	}

	fieldIDs := map[string]int64{}
	rows, err := tx.QueryContext(ctx, "SELECT id, field_name FROM template_field WHERE template_id = ?", schemaID)
	if err != nil {
		return time.Time{}, errors.StoreFailed("replace_field_values", err)
	}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return time.Time{}, errors.StoreFailed("replace_field_values", err)
		}
		fieldIDs[name] = id
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return time.Time{}, errors.StoreFailed("replace_field_values", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, "DELETE FROM template_field_value WHERE template_entry_id = ?", recordID); err != nil {
		return time.Time{}, errors.StoreFailed("replace_field_values", err)
	}

	for _, fv := range values {
		fieldID, ok := fieldIDs[fv.FieldName]
		if !ok {
			return time.Time{}, errors.ValidationFailed(fv.FieldName, "no such field in schema")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO template_field_value (template_entry_id, template_field_id, value_json) VALUES (?, ?, ?)",
			recordID, fieldID, string(fv.ValueJSON),
		); err != nil {
			return time.Time{}, errors.StoreFailed("replace_field_values", err)
		}
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE template_entry SET updated_at = ? WHERE id = ?", now.Format(timeLayout), recordID,
	); err != nil {
		return time.Time{}, errors.StoreFailed("replace_field_values", err)
	}

	if err := tx.Commit(); err != nil {
		return time.Time{}, errors.StoreFailed("replace_field_values", err)
	}
	return now, nil
}

// DeleteRecord removes the record and its stored values.
func (s *Store) DeleteRecord(ctx context.Context, recordID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StoreFailed("delete_record", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM template_field_value WHERE template_entry_id = ?", recordID); err != nil {
		return errors.StoreFailed("delete_record", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM template_entry WHERE id = ?", recordID)
	if err != nil {
		return errors.StoreFailed("delete_record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.StoreFailed("delete_record", err)
	}
	if n == 0 {
		return errors.RecordNotFound(recordID)
	}
	return tx.Commit()
}

func encodeOptions(opts []string) (sql.NullString, error) {
	if len(opts) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeOptions(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err
}
