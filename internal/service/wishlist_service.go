package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
)

type WishlistService interface {
	Get(ctx context.Context, caller *models.User) (*models.Wishlist, error)
	Add(ctx context.Context, caller *models.User, courseID string) (*models.Wishlist, error)
	Remove(ctx context.Context, caller *models.User, courseID string) (*models.Wishlist, error)
}

type wishlistService struct {
	wishlists repository.WishlistRepository
	courses   repository.CourseRepository
	now       func() time.Time
	logger    zerolog.Logger
}

func NewWishlistService(wishlists repository.WishlistRepository, courses repository.CourseRepository, logger zerolog.Logger) WishlistService {
	return &wishlistService{
		wishlists: wishlists,
		courses:   courses,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *wishlistService) Get(ctx context.Context, caller *models.User) (*models.Wishlist, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	items, err := s.wishlists.List(ctx, caller.ID)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to load wishlist")
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CourseID)
	}
	courses, err := s.courses.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to resolve wishlist courses")
	}

	wishlist := &models.Wishlist{
		UserID:  caller.ID,
		Courses: make([]models.WishlistCourse, 0, len(items)),
	}
	for _, item := range items {
		entry := models.WishlistCourse{CourseID: item.CourseID, AddedAt: item.AddedAt}
		if c, ok := courses[item.CourseID]; ok {
			entry.CourseName = c.CourseName
			entry.Price = c.Price
		}
		wishlist.Courses = append(wishlist.Courses, entry)
	}
	return wishlist, nil
}

func (s *wishlistService) Add(ctx context.Context, caller *models.User, courseID string) (*models.Wishlist, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	err := s.wishlists.Add(ctx, &models.WishlistItem{
		UserID:   caller.ID,
		CourseID: courseID,
		AddedAt:  s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("course is already in your wishlist")
		}
		return nil, fromRepo(err, "add to wishlist", msgCourseNotFound)
	}

	s.logger.Debug().
		Str("user_id", caller.ID).
		Str("course_id", courseID).
		Msg("Course added to wishlist")

	return s.Get(ctx, caller)
}

func (s *wishlistService) Remove(ctx context.Context, caller *models.User, courseID string) (*models.Wishlist, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	if err := s.wishlists.Remove(ctx, caller.ID, courseID); err != nil {
		return nil, fromRepo(err, "remove from wishlist", "course is not in your wishlist")
	}

	return s.Get(ctx, caller)
}
