package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Imtihan-Edutech/Swanirbhar/internal/apperrors"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/models"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/repository"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/service/integration"
	"github.com/Imtihan-Edutech/Swanirbhar/internal/validation"
)

const (
	defaultContentPageSize = 10
	maxContentPageSize     = 100
)

var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// CoverUpload is an image file received from a multipart form.
type CoverUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// ContentService serves articles, blogs and case studies. All three kinds
// share one store; the kind keeps them apart.
type ContentService interface {
	Create(ctx context.Context, caller *models.User, kind models.ContentKind, req *models.CreateContentRequest) (*models.Content, error)
	List(ctx context.Context, kind models.ContentKind, q models.ContentListQuery) (*models.ContentsResponse, error)
	Get(ctx context.Context, kind models.ContentKind, id string) (*models.ContentView, error)
	Delete(ctx context.Context, caller *models.User, kind models.ContentKind, id string) error
	AddComment(ctx context.Context, caller *models.User, kind models.ContentKind, id string, req *models.CommentRequest) (*models.Comment, error)
	UploadCover(ctx context.Context, caller *models.User, kind models.ContentKind, id string, upload CoverUpload) (*models.Content, error)
}

type contentService struct {
	contents      repository.ContentRepository
	users         repository.UserRepository
	media         integration.MediaStorage
	maxUploadSize int64
	now           func() time.Time
	logger        zerolog.Logger
}

func NewContentService(
	contents repository.ContentRepository,
	users repository.UserRepository,
	media integration.MediaStorage,
	maxUploadSize int64,
	logger zerolog.Logger,
) ContentService {
	return &contentService{
		contents:      contents,
		users:         users,
		media:         media,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
		logger:        logger,
	}
}

func notFoundMsg(kind models.ContentKind) string {
	return kind.Label() + " not found"
}

func (s *contentService) Create(ctx context.Context, caller *models.User, kind models.ContentKind, req *models.CreateContentRequest) (*models.Content, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	content := &models.Content{
		ID:          uuid.New().String(),
		Kind:        kind,
		Title:       strings.TrimSpace(req.Title),
		Category:    req.Category,
		Description: req.Description,
		Body:        req.Content,
		CoverImage:  req.CoverImage,
		VideoURL:    req.VideoURL,
		CreatedBy:   caller.ID,
		Comments:    []models.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.contents.Create(ctx, content); err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to create %s", kind)
	}

	s.logger.Info().
		Str("kind", kind.String()).
		Str("content_id", content.ID).
		Str("creator_id", caller.ID).
		Msg("Content created")

	return content, nil
}

func (s *contentService) List(ctx context.Context, kind models.ContentKind, q models.ContentListQuery) (*models.ContentsResponse, error) {
	page, limit, offset := paging(q.Page, q.Limit, defaultContentPageSize, maxContentPageSize)

	filter := models.ContentFilter{
		Kind:     kind,
		Title:    q.Title,
		Category: q.Category,
		Limit:    limit,
		Offset:   offset,
	}
	if author := strings.TrimSpace(q.Author); author != "" {
		ids, err := s.users.FindIDsByName(ctx, author)
		if err != nil {
			return nil, apperrors.Unexpectedf(err, "failed to search authors")
		}
		filter.AuthorIDs = nonNilStrings(ids)
	}

	items, total, err := s.contents.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to list %s", kind)
	}

	ids := make([]string, 0, len(items))
	for _, c := range items {
		ids = append(ids, c.CreatedBy)
	}
	users, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to resolve authors")
	}

	views := make([]models.ContentView, 0, len(items))
	for i := range items {
		views = append(views, contentView(&items[i], users, false))
	}

	return &models.ContentsResponse{
		Items: views,
		Total: total,
		Pages: models.Pages(total, limit),
		Page:  page,
		Limit: limit,
	}, nil
}

func contentView(c *models.Content, users map[string]models.UserSummary, resolveCommenters bool) models.ContentView {
	view := models.ContentView{
		Content:  *c,
		Comments: make([]models.CommentView, 0, len(c.Comments)),
	}
	if creator, ok := users[c.CreatedBy]; ok {
		view.Creator = &creator
	}
	for _, cm := range c.Comments {
		cv := models.CommentView{Comment: cm}
		if resolveCommenters {
			if u, ok := users[cm.UserID]; ok {
				cv.User = &u
			}
		}
		view.Comments = append(view.Comments, cv)
	}
	return view
}

func (s *contentService) Get(ctx context.Context, kind models.ContentKind, id string) (*models.ContentView, error) {
	content, err := s.contents.GetByID(ctx, kind, id)
	if err != nil {
		return nil, fromRepo(err, "get "+kind.String(), notFoundMsg(kind))
	}

	ids := []string{content.CreatedBy}
	for _, cm := range content.Comments {
		ids = append(ids, cm.UserID)
	}
	users, err := s.users.GetSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Unexpectedf(err, "failed to resolve content users")
	}

	view := contentView(content, users, true)
	return &view, nil
}

func (s *contentService) owned(ctx context.Context, caller *models.User, kind models.ContentKind, id, action string) (*models.Content, error) {
	content, err := s.contents.GetByID(ctx, kind, id)
	if err != nil {
		return nil, fromRepo(err, "get "+kind.String(), notFoundMsg(kind))
	}
	if content.CreatedBy != caller.ID {
		return nil, apperrors.Forbidden(fmt.Sprintf("only the author can %s this %s", action, strings.ToLower(kind.Label())))
	}
	return content, nil
}

func (s *contentService) Delete(ctx context.Context, caller *models.User, kind models.ContentKind, id string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	content, err := s.owned(ctx, caller, kind, id, "delete")
	if err != nil {
		return err
	}

	if err := s.contents.Delete(ctx, kind, id); err != nil {
		return fromRepo(err, "delete "+kind.String(), notFoundMsg(kind))
	}

	s.logger.Info().
		Str("kind", kind.String()).
		Str("content_id", id).
		Str("deleted_by", caller.ID).
		Msg("Content deleted")

	if key := coverKey(content.CoverImage); key != "" {
		if err := s.media.Delete(ctx, key); err != nil && !errors.Is(err, integration.ErrMediaDisabled) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete cover image")
		}
	}

	return nil
}

func (s *contentService) AddComment(ctx context.Context, caller *models.User, kind models.ContentKind, id string, req *models.CommentRequest) (*models.Comment, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        uuid.New().String(),
		ContentID: id,
		UserID:    caller.ID,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now().UTC(),
	}

	// the kind check keeps a blog comment from landing on an article id
	if _, err := s.contents.GetByID(ctx, kind, id); err != nil {
		return nil, fromRepo(err, "get "+kind.String(), notFoundMsg(kind))
	}
	if err := s.contents.AddComment(ctx, comment); err != nil {
		return nil, fromRepo(err, "add comment", notFoundMsg(kind))
	}

	return comment, nil
}

func (s *contentService) UploadCover(ctx context.Context, caller *models.User, kind models.ContentKind, id string, upload CoverUpload) (*models.Content, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	ext, ok := coverExtensions[upload.ContentType]
	if !ok {
		return nil, apperrors.Validation("cover must be a JPEG, PNG, WebP or GIF image",
			apperrors.FieldError{Field: "cover", Error: "unsupported content type " + upload.ContentType})
	}
	if s.maxUploadSize > 0 && upload.Size > s.maxUploadSize {
		return nil, apperrors.Validation(fmt.Sprintf("cover must not exceed %d bytes", s.maxUploadSize),
			apperrors.FieldError{Field: "cover", Error: "file too large"})
	}

	content, err := s.owned(ctx, caller, kind, id, "change the cover of")
	if err != nil {
		return nil, err
	}

	key := path.Join("covers", kind.String(), uuid.New().String()+ext)
	url, err := s.media.Upload(ctx, key, upload.Reader, upload.Size, upload.ContentType)
	if err != nil {
		if errors.Is(err, integration.ErrMediaDisabled) {
			return nil, apperrors.Validation("cover uploads are not enabled")
		}
		return nil, apperrors.Unexpectedf(err, "failed to upload cover")
	}

	if err := s.contents.UpdateCover(ctx, kind, id, url); err != nil {
		return nil, fromRepo(err, "update cover", notFoundMsg(kind))
	}

	s.logger.Info().
		Str("kind", kind.String()).
		Str("content_id", id).
		Str("key", key).
		Msg("Cover image uploaded")

	content.CoverImage = url
	content.UpdatedAt = s.now().UTC()
	return content, nil
}

// coverKey returns the object key of an uploaded cover, or "" for
// covers that were given as external URLs.
func coverKey(coverURL string) string {
	idx := strings.Index(coverURL, "/covers/")
	if idx < 0 {
		return ""
	}
	return coverURL[idx+1:]
}
