package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const entrySelect = `
SELECT d.id,
       r.id, r.name,
       pg.id, pg.name,
       pv.id, pv.name,
       s.id, s.name, s.code
  FROM data_structures d
  JOIN regions r    ON r.id = d.region_id
  JOIN programs pg  ON pg.id = d.program_id
  JOIN providers pv ON pv.id = d.provider_id
  JOIN subjects s   ON s.id = d.subject_id`

func (s *SQLStore) ListEntries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, entrySelect+` ORDER BY d.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetEntry(ctx context.Context, id string) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, entrySelect+` WHERE d.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (s *SQLStore) PutEntry(ctx context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []struct {
		q    string
		args []any
	}{
		{`INSERT INTO regions (id,name) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`,
			[]any{e.Region.ID, e.Region.Name}},
		{`INSERT INTO programs (id,name) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`,
			[]any{e.Program.ID, e.Program.Name}},
		{`INSERT INTO providers (id,name) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`,
			[]any{e.Provider.ID, e.Provider.Name}},
		{`INSERT INTO subjects (id,name,code) VALUES ($1,$2,$3) ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, code=EXCLUDED.code`,
			[]any{e.Subject.ID, e.Subject.Name, e.Subject.Code}},
		{`INSERT INTO data_structures (id,region_id,program_id,provider_id,subject_id,created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET region_id=EXCLUDED.region_id, program_id=EXCLUDED.program_id,
				provider_id=EXCLUDED.provider_id, subject_id=EXCLUDED.subject_id`,
			[]any{e.ID, e.Region.ID, e.Program.ID, e.Provider.ID, e.Subject.ID, time.Now().Unix()}},
	} {
		if _, err := tx.ExecContext(ctx, stmt.q, stmt.args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID,
		&e.Region.ID, &e.Region.Name,
		&e.Program.ID, &e.Program.Name,
		&e.Provider.ID, &e.Provider.Name,
		&e.Subject.ID, &e.Subject.Name, &e.Subject.Code)
	return e, err
}
