package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// TimelineStore is the structured store for extracted timeline records.
type TimelineStore struct {
	*Store
}

var _ driven.TimelineStore = (*TimelineStore)(nil)

func timelineMigrations() fs.FS {
	sub, err := fs.Sub(migrations.TimelineFS, "timeline")
	if err != nil {
		panic(err)
	}
	return sub
}

// OpenTimeline opens the structured store at path, creating it if needed.
func OpenTimeline(path string) (*TimelineStore, error) {
	s, err := open(path, timelineMigrations())
	if err != nil {
		return nil, err
	}
	return &TimelineStore{Store: s}, nil
}

// NewTimelineBuild opens an empty structured store beside target for a
// rebuild. Call Publish to move it into place.
func NewTimelineBuild(target string) (*TimelineStore, error) {
	tmp, err := freshPath(target)
	if err != nil {
		return nil, err
	}
	return OpenTimeline(tmp)
}

// Publish closes the build store, renames it over target and reopens it
// there. Existing connections to the previous file are unaffected.
func (s *TimelineStore) Publish(target string) (*TimelineStore, error) {
	if err := s.Close(); err != nil {
		return nil, fmt.Errorf("closing build store: %w", err)
	}
	if err := replaceFile(s.path, target); err != nil {
		return nil, err
	}
	return OpenTimeline(target)
}

// AddMilestones appends milestone records.
func (s *TimelineStore) AddMilestones(ctx context.Context, records []domain.MilestoneRecord) error {
	return s.insert(ctx, `
		INSERT INTO milestones (id, source_file, slide, area, title, raw_date, normalized_date, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, len(records), func(i int) []any {
		m := records[i]
		return []any{m.ID, m.SourceFile, m.Slide, m.Area, m.Title, m.RawDate, formatDate(m.NormalizedDate), m.Confidence}
	})
}

// AddSpans appends span records.
func (s *TimelineStore) AddSpans(ctx context.Context, records []domain.SpanRecord) error {
	return s.insert(ctx, `
		INSERT INTO spans (id, source_file, slide, area, title, start_raw, end_raw, start_normalized, end_normalized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(records), func(i int) []any {
		sp := records[i]
		return []any{sp.ID, sp.SourceFile, sp.Slide, sp.Area, sp.Title, sp.StartRaw, sp.EndRaw,
			formatDate(sp.StartNormalized), formatDate(sp.EndNormalized)}
	})
}

// AddStatuses appends status card records.
func (s *TimelineStore) AddStatuses(ctx context.Context, records []domain.StatusRecord) error {
	return s.insert(ctx, `
		INSERT INTO statuses (id, source_file, slide, area, status, color_hex)
		VALUES (?, ?, ?, ?, ?, ?)
	`, len(records), func(i int) []any {
		st := records[i]
		return []any{st.ID, st.SourceFile, st.Slide, st.Area, st.Status, st.ColorHex}
	})
}

func (s *TimelineStore) insert(ctx context.Context, query string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("inserting record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteBySource removes every record from one source file.
func (s *TimelineStore) DeleteBySource(ctx context.Context, sourceFile string) error {
	for _, table := range []string{"milestones", "spans", "statuses"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE source_file = ?", sourceFile); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}
	return nil
}

// Reset removes every record.
func (s *TimelineStore) Reset(ctx context.Context) error {
	for _, table := range []string{"milestones", "spans", "statuses"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// where accumulates filter clauses.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// like builds a literal substring pattern for a LIKE ... ESCAPE '\' clause.
func like(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func commonFilter(w *where, f domain.TimelineFilter) {
	if f.Area != "" {
		w.add(`LOWER(area) LIKE ? ESCAPE '\'`, like(f.Area))
	}
	if f.SourceFile != "" {
		w.add("source_file = ?", f.SourceFile)
	}
}

func titleFilter(w *where, f domain.TimelineFilter) {
	if f.TitleExact != "" {
		w.add("title = ?", f.TitleExact)
	}
	if f.TitleContains != "" {
		w.add(`LOWER(title) LIKE ? ESCAPE '\'`, like(f.TitleContains))
	}
}

// Milestones returns milestones matching filter, ordered by date.
// A date window excludes milestones whose date did not resolve.
func (s *TimelineStore) Milestones(ctx context.Context, f domain.TimelineFilter) ([]domain.MilestoneRecord, error) {
	var w where
	commonFilter(&w, f)
	titleFilter(&w, f)
	if f.From != nil {
		w.add("normalized_date >= ?", formatDate(f.From))
	}
	if f.To != nil {
		w.add("normalized_date <= ?", formatDate(f.To))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_file, slide, area, title, raw_date, normalized_date, confidence
		FROM milestones`+w.String()+`
		ORDER BY normalized_date IS NULL, normalized_date, source_file, slide, rowid
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying milestones: %w", err)
	}
	defer rows.Close()

	var out []domain.MilestoneRecord
	for rows.Next() {
		var m domain.MilestoneRecord
		var date sql.NullString
		if err := rows.Scan(&m.ID, &m.SourceFile, &m.Slide, &m.Area, &m.Title, &m.RawDate, &date, &m.Confidence); err != nil {
			return nil, fmt.Errorf("scanning milestone: %w", err)
		}
		if m.NormalizedDate, err = parseDate(date); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Spans returns spans matching filter, ordered by start date.
// A date window keeps spans that overlap it.
func (s *TimelineStore) Spans(ctx context.Context, f domain.TimelineFilter) ([]domain.SpanRecord, error) {
	var w where
	commonFilter(&w, f)
	titleFilter(&w, f)
	if f.From != nil {
		w.add("COALESCE(end_normalized, start_normalized) >= ?", formatDate(f.From))
	}
	if f.To != nil {
		w.add("COALESCE(start_normalized, end_normalized) <= ?", formatDate(f.To))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_file, slide, area, title, start_raw, end_raw, start_normalized, end_normalized
		FROM spans`+w.String()+`
		ORDER BY start_normalized IS NULL, start_normalized, source_file, slide, rowid
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying spans: %w", err)
	}
	defer rows.Close()

	var out []domain.SpanRecord
	for rows.Next() {
		var sp domain.SpanRecord
		var start, end sql.NullString
		if err := rows.Scan(&sp.ID, &sp.SourceFile, &sp.Slide, &sp.Area, &sp.Title,
			&sp.StartRaw, &sp.EndRaw, &start, &end); err != nil {
			return nil, fmt.Errorf("scanning span: %w", err)
		}
		if sp.StartNormalized, err = parseDate(start); err != nil {
			return nil, err
		}
		if sp.EndNormalized, err = parseDate(end); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// Statuses returns status cards matching filter, ordered by area.
func (s *TimelineStore) Statuses(ctx context.Context, f domain.TimelineFilter) ([]domain.StatusRecord, error) {
	var w where
	commonFilter(&w, f)
	if f.Status != "" {
		w.add("LOWER(status) = ?", strings.ToLower(f.Status))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_file, slide, area, status, color_hex
		FROM statuses`+w.String()+`
		ORDER BY area, source_file, slide, rowid
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusRecord
	for rows.Next() {
		var st domain.StatusRecord
		if err := rows.Scan(&st.ID, &st.SourceFile, &st.Slide, &st.Area, &st.Status, &st.ColorHex); err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
