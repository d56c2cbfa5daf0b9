package service

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bookmarkd/bookmarkd/internal/config"
	"github.com/bookmarkd/bookmarkd/internal/db"
)

var (
	ErrCredentialsTaken          = errors.New("credentials taken")
	ErrLoginUserNotFound         = errors.New("user not found")
	ErrLoginPasswordDoesNotMatch = errors.New("password does not match")
	ErrTokenInvalid              = errors.New("token is invalid")
)

type Auth struct {
	db     *gorm.DB
	cfg    *config.Config
	logger *zap.SugaredLogger
}

func NewAuth(db *gorm.DB, cfg *config.Config, l *zap.SugaredLogger) *Auth {
	return &Auth{
		db:     db,
		cfg:    cfg,
		logger: l,
	}
}

func (s *Auth) Signup(email, pass string) (string, error) {
	existing := db.User{}
	res := s.db.Where("email = ?", email).First(&existing)
	if res.Error == nil {
		return "", ErrCredentialsTaken
	}
	if res.Error != gorm.ErrRecordNotFound {
		return "", res.Error
	}

	hash, err := s.bcryptGen(pass)
	if err != nil {
		return "", errors.Wrap(err, "bcryptGen")
	}

	user := db.User{
		Email:    email,
		Password: hash,
	}
	res = s.db.Create(&user)
	if res.Error != nil {
		return "", res.Error
	}

	return s.issueToken(user.ID)
}

func (s *Auth) Signin(email, pass string) (string, error) {
	user := db.User{}
	res := s.db.Where("email = ?", email).First(&user)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return "", ErrLoginUserNotFound
		}
		return "", res.Error
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return "", ErrLoginPasswordDoesNotMatch
	}

	return s.issueToken(user.ID)
}

// ParseToken verifies a bearer token and returns the user id from its subject claim.
func (s *Auth) ParseToken(token string) (uint64, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "parse token")
	}
	if !parsed.Valid {
		return 0, ErrTokenInvalid
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse subject")
	}
	return userID, nil
}

func (s *Auth) issueToken(userID uint64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.TokenTTLMin) * time.Minute)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return token, nil
}

func (s *Auth) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), 14)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *Auth) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
