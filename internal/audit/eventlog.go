package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	PaperImported  = "PaperImported"
	MetadataEdited = "MetadataEdited"
	MatchSelected  = "MatchSelected"
	AnswersSaved   = "AnswersSaved"
	FileAttached   = "FileAttached"
	PaperConfirmed = "PaperConfirmed"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Key       string          `json:"key"` // paper id
	Actor     string          `json:"actor,omitempty"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

type Query struct {
	Type  string
	Key   string
	Since int64 // seq, exclusive
	Limit int
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

// Append records one event. data is marshalled to JSON; the actor travels
// inside the payload.
func (r *EventRepo) Append(ctx context.Context, typ, key, actor string, data any) error {
	payload := map[string]any{"actor": actor}
	if data != nil {
		payload["data"] = data
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.siteID, typ, key, string(b), time.Now().Unix())
	return err
}

// Search lists events oldest first.
func (r *EventRepo) Search(ctx context.Context, q Query) ([]Event, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE ($1 = '' OR typ = $1) AND ($2 = '' OR key = $2) AND seq > $3
		 ORDER BY seq LIMIT $4`,
		q.Type, q.Key, q.Since, q.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			e   Event
			raw string
		)
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		var p struct {
			Actor string          `json:"actor"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			e.Actor, e.Data = p.Actor, p.Data
		}
		if len(e.Data) == 0 {
			e.Data = json.RawMessage("null")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
