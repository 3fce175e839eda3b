package paper

import "context"

type ListOpts struct {
	Q      string
	Status Status
	Limit  int
	Offset int
}

type Store interface {
	PutPaper(ctx context.Context, p Paper) error
	GetPaper(ctx context.Context, id string) (Paper, error)
	ListPapers(ctx context.Context, opts ListOpts) ([]Summary, error)

	UpdateMetadata(ctx context.Context, id string, m Metadata) (Paper, error)
	SetMatch(ctx context.Context, id, dataStructureID string) (Paper, error)
	SetStatus(ctx context.Context, id string, s Status) (Paper, error)

	// SaveAnswers is all-or-nothing: a *ValidationError leaves the stored paper untouched.
	SaveAnswers(ctx context.Context, id, number string, alts []Alternative) (Paper, error)
	AddAttachment(ctx context.Context, id, number, key string) (Paper, error)
}
