package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("data structure not found")

type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SubjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Entry is one data structure row: a unique (region, program, provider,
// subject) combination that imported papers are filed under.
type Entry struct {
	ID       string     `json:"id"`
	Region   Ref        `json:"region"`
	Program  Ref        `json:"program"`
	Provider Ref        `json:"provider"`
	Subject  SubjectRef `json:"subject"`
}

type Store interface {
	ListEntries(ctx context.Context) ([]Entry, error)
	GetEntry(ctx context.Context, id string) (Entry, error)
	// PutEntry upserts the entry and its four referenced rows.
	PutEntry(ctx context.Context, e Entry) error
}

// Validate reports the first missing id or name.
func (e Entry) Validate() error {
	switch {
	case e.ID == "":
		return errors.New("id required")
	case e.Region.ID == "" || e.Region.Name == "":
		return errors.New("region id and name required")
	case e.Program.ID == "" || e.Program.Name == "":
		return errors.New("program id and name required")
	case e.Provider.ID == "" || e.Provider.Name == "":
		return errors.New("provider id and name required")
	case e.Subject.ID == "" || e.Subject.Name == "":
		return errors.New("subject id and name required")
	}
	return nil
}
