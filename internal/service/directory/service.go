package directory

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
)

// ErrNoProfile means the email has no directory entry. During a sweep this
// is routine, not exceptional.
var ErrNoProfile = stderrors.New("no profile for email")

// Service resolves responsible emails to directory profiles with a short
// lived cache in front. A sweep touches the same handful of owners over and
// over, so the cache saves most of the lookups.
type Service struct {
	users repository.UserRepository
	cache *cache.Cache
}

func NewService(users repository.UserRepository) *Service {
	return &Service{
		users: users,
		cache: cache.New(5*time.Minute, 15*time.Minute),
	}
}

func (s *Service) Lookup(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNoProfile
	}

	if cached, found := s.cache.Get(email); found {
		if cached == nil {
			return nil, ErrNoProfile
		}
		return cached.(*model.User), nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			// negative entries are cached too, misses repeat just as often
			s.cache.Set(email, nil, cache.DefaultExpiration)
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("failed to look up %s: %w", email, err)
	}

	s.cache.Set(email, user, cache.DefaultExpiration)
	return user, nil
}

// Invalidate drops a cached profile, called after token or role changes.
func (s *Service) Invalidate(email string) {
	s.cache.Delete(strings.ToLower(strings.TrimSpace(email)))
}
