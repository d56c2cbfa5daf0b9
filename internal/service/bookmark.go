package service

import (
	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmarkd/bookmarkd/internal/db"
)

var ErrAccessDenied = errors.New("access to resource denied")

type (
	BookmarkPatch struct {
		Title       *string
		Link        *string
		Description *string
	}

	Bookmark struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewBookmark(db *gorm.DB, l *zap.SugaredLogger) *Bookmark {
	return &Bookmark{
		db:     db,
		logger: l,
	}
}

func (s *Bookmark) List(userID uint64) ([]db.Bookmark, error) {
	sql, args, err := squirrel.
		Select("id", "created_at", "updated_at", "title", "link", "description", "user_id").
		From("bookmarks").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	bookmarks := make([]db.Bookmark, 0)
	res := s.db.Raw(sql, args...).Scan(&bookmarks)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	return bookmarks, nil
}

func (s *Bookmark) Create(userID uint64, title, link string, description *string) (*db.Bookmark, error) {
	model := db.Bookmark{
		Title:       title,
		Link:        link,
		Description: description,
		UserID:      userID,
	}

	res := s.db.Create(&model)
	if res.Error != nil {
		return nil, res.Error
	}

	return &model, nil
}

// Get returns (nil, nil) when the bookmark does not exist or belongs to
// another user. The two cases are indistinguishable to the caller.
func (s *Bookmark) Get(userID, bookmarkID uint64) (*db.Bookmark, error) {
	bookmark := db.Bookmark{}
	res := s.db.Where("id = ? AND user_id = ?", bookmarkID, userID).First(&bookmark)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, res.Error
	}
	return &bookmark, nil
}

func (s *Bookmark) Update(userID, bookmarkID uint64, patch BookmarkPatch) (*db.Bookmark, error) {
	bookmark := db.Bookmark{}
	res := s.db.First(&bookmark, bookmarkID)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return nil, ErrAccessDenied
		}
		return nil, res.Error
	}
	if bookmark.UserID != userID {
		return nil, ErrAccessDenied
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Link != nil {
		updates["link"] = *patch.Link
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if len(updates) != 0 {
		if res := s.db.Model(&bookmark).Updates(updates); res.Error != nil {
			return nil, errors.Wrap(res.Error, "update bookmark")
		}
	}

	res = s.db.First(&bookmark, bookmarkID)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get bookmark")
	}

	return &bookmark, nil
}

func (s *Bookmark) Delete(userID, bookmarkID uint64) error {
	bookmark := db.Bookmark{}
	res := s.db.First(&bookmark, bookmarkID)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return ErrAccessDenied
		}
		return res.Error
	}
	if bookmark.UserID != userID {
		return ErrAccessDenied
	}

	res = s.db.Where("user_id = ?", userID).Delete(&db.Bookmark{}, bookmarkID)
	if res.Error != nil {
		return res.Error
	}
	return nil
}
