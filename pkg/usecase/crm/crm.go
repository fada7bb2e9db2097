// Package crm implements the record resolvers and executors invoked by the
// assistant's tools.
package crm

import (
	"time"

	"github.com/m-mizutani/sidekick/pkg/repository"
)

const (
	companySearchLimit     = 5
	companyNameLookupLimit = 1
	contactSearchLimit     = 5
)

type UseCase struct {
	repo repository.Repository
	now  func() time.Time
}

type Option func(*UseCase)

// WithClock replaces time.Now for timestamps written by the use case
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

func New(repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}
