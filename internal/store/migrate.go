package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/mouseadmin/internal/errors"
	"git.home.luguber.info/inful/mouseadmin/internal/logfields"
)

var shortMonths = []string{"jan", "feb", "mar", "apr", "may", "june", "july", "aug", "sep", "oct", "nov", "dec"}

// MigrateShortDates rewrites stored date values in the legacy short format
// ("2006 jan 2") to ISO 8601 ("2006-01-02"). Values already in ISO form, null
// values and values that parse as neither are left untouched. Returns the
// number of rewritten values.
func (s *Store) MigrateShortDates(ctx context.Context, schemaID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT v.id, v.value_json
		 FROM template_field_value v
		 JOIN template_field f ON f.id = v.template_field_id
		 WHERE f.template_id = ? AND f.kind = 'date'`,
		schemaID,
	)
	if err != nil {
		return 0, errors.StoreFailed("migrate_short_dates", err)
	}

	type rewrite struct {
		id  int64
		iso string
	}
	var rewrites []rewrite
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return 0, errors.StoreFailed("migrate_short_dates", err)
		}
		var stored *string
		if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored == nil {
			continue
		}
		if _, err := time.Parse("2006-01-02", *stored); err == nil {
			continue
		}
		t, ok := ParseShortDate(*stored)
		if !ok {
			continue
		}
		iso, err := json.Marshal(t.Format("2006-01-02"))
		if err != nil {
			rows.Close()
			return 0, errors.StoreFailed("migrate_short_dates", err)
		}
		rewrites = append(rewrites, rewrite{id: id, iso: string(iso)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, errors.StoreFailed("migrate_short_dates", err)
	}
	rows.Close()

	for _, rw := range rewrites {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE template_field_value SET value_json = ? WHERE id = ?", rw.iso, rw.id,
		); err != nil {
			return 0, errors.StoreFailed("migrate_short_dates", err)
		}
	}

	slog.Info("migrated short date values",
		logfields.SchemaID(schemaID),
		slog.Int("rewritten", len(rewrites)))
	return len(rewrites), nil
}

// ParseShortDate parses the legacy "2006 jan 2" display format.
func ParseShortDate(s string) (time.Time, bool) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(parts) != 3 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, false
	}
	month := 0
	for i, m := range shortMonths {
		if parts[1] == m {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%02d-%02d", year, month, day))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
