package paper

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const paperColumns = `id,schema_version,status,data_structure_id,metadata_json,questions_json,created_at,updated_at`

func (s *SQLStore) PutPaper(ctx context.Context, p Paper) error {
	mj, err := json.Marshal(p.Metadata)
	if err != nil {
		return err
	}
	qj, err := json.Marshal(p.Questions)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO papers (id,title,schema_version,status,data_structure_id,metadata_json,questions_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, schema_version=EXCLUDED.schema_version, status=EXCLUDED.status,
			data_structure_id=EXCLUDED.data_structure_id, metadata_json=EXCLUDED.metadata_json,
			questions_json=EXCLUDED.questions_json, updated_at=EXCLUDED.updated_at`,
		p.ID, p.Metadata.Title, p.SchemaVersion, string(p.Status), p.DataStructureID, string(mj), string(qj), p.CreatedAt, now)
	return err
}

func (s *SQLStore) GetPaper(ctx context.Context, id string) (Paper, error) {
	return scanPaper(s.db.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM papers WHERE id=$1`, id))
}

func (s *SQLStore) ListPapers(ctx context.Context, opts ListOpts) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,status,data_structure_id,questions_json,created_at
		FROM papers
		WHERE ($1 = '' OR title LIKE '%' || $1 || '%')
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		opts.Q, string(opts.Status), limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum    Summary
			status string
			qjson  string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &status, &sum.DataStructureID, &qjson, &sum.CreatedAt); err != nil {
			return nil, err
		}
		sum.Status = Status(status)
		var qs []json.RawMessage
		if err := json.Unmarshal([]byte(qjson), &qs); err == nil {
			sum.Questions = len(qs)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateMetadata(ctx context.Context, id string, m Metadata) (Paper, error) {
	return s.modify(ctx, id, func(p *Paper) error {
		if p.Status == StatusConfirmed {
			return ErrLocked
		}
		p.Metadata = m
		return nil
	})
}

func (s *SQLStore) SetMatch(ctx context.Context, id, dataStructureID string) (Paper, error) {
	return s.modify(ctx, id, func(p *Paper) error {
		if p.Status == StatusConfirmed {
			return ErrLocked
		}
		p.DataStructureID = dataStructureID
		return nil
	})
}

func (s *SQLStore) SetStatus(ctx context.Context, id string, st Status) (Paper, error) {
	return s.modify(ctx, id, func(p *Paper) error {
		p.Status = st
		return nil
	})
}

func (s *SQLStore) SaveAnswers(ctx context.Context, id, number string, alts []Alternative) (Paper, error) {
	return s.modify(ctx, id, func(p *Paper) error {
		return SetAnswers(p, number, alts)
	})
}

func (s *SQLStore) AddAttachment(ctx context.Context, id, number, key string) (Paper, error) {
	return s.modify(ctx, id, func(p *Paper) error {
		return AttachFile(p, number, key)
	})
}

// modify loads, mutates and rewrites one paper inside a transaction.
func (s *SQLStore) modify(ctx context.Context, id string, fn func(*Paper) error) (Paper, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Paper{}, err
	}
	defer tx.Rollback()

	p, err := scanPaper(tx.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM papers WHERE id=$1`, id))
	if err != nil {
		return Paper{}, err
	}
	if err := fn(&p); err != nil {
		return Paper{}, err
	}

	mj, err := json.Marshal(p.Metadata)
	if err != nil {
		return Paper{}, err
	}
	qj, err := json.Marshal(p.Questions)
	if err != nil {
		return Paper{}, err
	}
	p.UpdatedAt = time.Now().Unix()
	if _, err := tx.ExecContext(ctx, `UPDATE papers
		SET title=$1, status=$2, data_structure_id=$3, metadata_json=$4, questions_json=$5, updated_at=$6
		WHERE id=$7`,
		p.Metadata.Title, string(p.Status), p.DataStructureID, string(mj), string(qj), p.UpdatedAt, id); err != nil {
		return Paper{}, err
	}
	if err := tx.Commit(); err != nil {
		return Paper{}, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (Paper, error) {
	var (
		p      Paper
		status string
		mjson  string
		qjson  string
	)
	if err := row.Scan(&p.ID, &p.SchemaVersion, &status, &p.DataStructureID, &mjson, &qjson, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Paper{}, ErrNotFound
		}
		return Paper{}, err
	}
	p.Status = Status(status)
	if err := json.Unmarshal([]byte(mjson), &p.Metadata); err != nil {
		return Paper{}, fmt.Errorf("paper %s: metadata: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(qjson), &p.Questions); err != nil {
		return Paper{}, fmt.Errorf("paper %s: questions: %w", p.ID, err)
	}
	return p, nil
}
