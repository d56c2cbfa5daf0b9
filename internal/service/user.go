package service

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bookmarkd/bookmarkd/internal/db"
)

type (
	UserPatch struct {
		Email     *string
		FirstName *string
		LastName  *string
	}

	User struct {
		db     *gorm.DB
		logger *zap.SugaredLogger
	}
)

func NewUser(db *gorm.DB, l *zap.SugaredLogger) *User {
	return &User{
		db:     db,
		logger: l,
	}
}

func (s *User) Get(userID uint64) (*db.User, error) {
	user := db.User{}
	res := s.db.First(&user, userID)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get user")
	}
	return &user, nil
}

// Edit applies the provided subset of profile fields to the user's own record.
func (s *User) Edit(userID uint64, patch UserPatch) (*db.User, error) {
	user := db.User{}
	res := s.db.First(&user, userID)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get user")
	}

	updates := map[string]interface{}{}
	if patch.Email != nil {
		updates["email"] = *patch.Email
	}
	if patch.FirstName != nil {
		updates["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		updates["last_name"] = *patch.LastName
	}
	if len(updates) != 0 {
		if res := s.db.Model(&user).Updates(updates); res.Error != nil {
			return nil, errors.Wrap(res.Error, "update user")
		}
	}

	res = s.db.First(&user, userID)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get user")
	}

	return &user, nil
}
