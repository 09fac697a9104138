package todos

import (
	"context"
	"strings"

	"github.com/tasklight/tasklight/internal/apierr"
)

const maxTitleLength = 500

// Service wraps the repository with input validation and API error mapping.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, userID int64) ([]Todo, error) {
	out, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apierr.Internal("list failed")
	}
	return out, nil
}

// ListAll returns every user's todos. Authorization is the caller's concern;
// the transport layer gates this behind the admin role.
func (s *Service) ListAll(ctx context.Context) ([]Todo, error) {
	out, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apierr.Internal("list failed")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Todo, error) {
	t, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, apierr.NotFound("todo not found")
		}
		return nil, apierr.Internal("get failed")
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, userID int64, title string) (*Todo, error) {
	title, err := validTitle(title)
	if err != nil {
		return nil, err
	}
	t, createErr := s.repo.Create(ctx, userID, title)
	if createErr != nil {
		return nil, apierr.Internal("create failed")
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, userID, id int64, update Update) (*Todo, error) {
	switch u := update.(type) {
	case FullUpdate:
		title, err := validTitle(u.Title)
		if err != nil {
			return nil, err
		}
		u.Title = title
		update = u
	case PartialUpdate:
		if u.Title != nil {
			title, err := validTitle(*u.Title)
			if err != nil {
				return nil, err
			}
			u.Title = &title
			update = u
		}
		if u.Title == nil && u.Completed == nil {
			return nil, apierr.BadRequest("no fields to update")
		}
	default:
		return nil, apierr.BadRequest("unsupported update")
	}

	t, err := s.repo.Update(ctx, userID, id, update)
	if err != nil {
		if err == ErrNotFound {
			return nil, apierr.NotFound("todo not found")
		}
		return nil, apierr.Internal("update failed")
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if err == ErrNotFound {
			return apierr.NotFound("todo not found")
		}
		return apierr.Internal("delete failed")
	}
	return nil
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apierr.BadRequest("title is required")
	}
	if len(title) > maxTitleLength {
		return "", apierr.BadRequest("title too long")
	}
	return title, nil
}
