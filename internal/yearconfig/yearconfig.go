// Package yearconfig owns the reference lunar year that every Sao/Hạn
// calculation is made for.
package yearconfig

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/joseph-ayodele/anphuc-nienso/constants"
	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
	"github.com/joseph-ayodele/anphuc-nienso/internal/repository"
)

// Provider supplies the reference year. Services depend on this rather than on Service.
type Provider interface {
	CurrentYear(ctx context.Context) (int, error)
}

type Service struct {
	repo   repository.ConfigRepository
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for the fallback year.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo repository.ConfigRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentYear returns the stored lunar year, or the calendar year when none is
// stored or the stored value is not a number.
func (s *Service) CurrentYear(ctx context.Context) (int, error) {
	v, ok, err := s.repo.Get(ctx, constants.KeyLunarYear)
	if err != nil {
		return 0, err
	}
	if ok {
		if y, err := strconv.Atoi(v); err == nil {
			return y, nil
		}
		s.logger.Warn("ignoring malformed lunar year", "value", v)
	}
	return s.now().Year(), nil
}

// SetYear stores year after checking it lies in 1900..2100.
func (s *Service) SetYear(ctx context.Context, year int) error {
	if year < constants.MinLunarYear || year > constants.MaxLunarYear {
		return common.InvalidInputf("year must be between %d and %d", constants.MinLunarYear, constants.MaxLunarYear)
	}
	return s.repo.Set(ctx, constants.KeyLunarYear, strconv.Itoa(year))
}

// Static is a Provider with a fixed year, used by the CLI.
type Static int

func (y Static) CurrentYear(context.Context) (int, error) { return int(y), nil }
