package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenKind    = errors.New("wrong token kind")
)

const (
	kindPlayer = "player"
	kindResume = "resume"

	DefaultPlayerTTL = 24 * time.Hour
	DefaultResumeTTL = 10 * time.Minute
)

type claims struct {
	Kind     string `json:"kind"`
	PlayerID int64  `json:"user_id"`
	Name     string `json:"name,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	jwt.RegisteredClaims
}

// Player is the identity carried by a player token.
type Player struct {
	ID   int64
	Name string
}

// Resume is what a resumption credential grants: the seat of one player in
// one room.
type Resume struct {
	RoomID   string
	PlayerID int64
	Name     string
}

// TokenService issues and verifies HS256 tokens. Player tokens identify a
// user, resume tokens let a dropped connection reclaim its seat.
type TokenService struct {
	secret    []byte
	playerTTL time.Duration
	resumeTTL time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, playerTTL, resumeTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if playerTTL <= 0 {
		playerTTL = DefaultPlayerTTL
	}
	if resumeTTL <= 0 {
		resumeTTL = DefaultResumeTTL
	}
	return &TokenService{
		secret:    []byte(secret),
		playerTTL: playerTTL,
		resumeTTL: resumeTTL,
		now:       time.Now,
	}, nil
}

func (s *TokenService) IssuePlayer(playerID int64, name string) (string, error) {
	return s.sign(claims{Kind: kindPlayer, PlayerID: playerID, Name: name}, s.playerTTL)
}

func (s *TokenService) IssueResume(roomID string, playerID int64, name string) (string, error) {
	return s.sign(claims{Kind: kindResume, PlayerID: playerID, Name: name, RoomID: roomID}, s.resumeTTL)
}

func (s *TokenService) ParsePlayer(token string) (Player, error) {
	c, err := s.parse(token, kindPlayer)
	if err != nil {
		return Player{}, err
	}
	return Player{ID: c.PlayerID, Name: c.Name}, nil
}

func (s *TokenService) ParseResume(token string) (Resume, error) {
	c, err := s.parse(token, kindResume)
	if err != nil {
		return Resume{}, err
	}
	if c.RoomID == "" {
		return Resume{}, fmt.Errorf("%w: room_id missing", ErrInvalidToken)
	}
	return Resume{RoomID: c.RoomID, PlayerID: c.PlayerID, Name: c.Name}, nil
}

func (s *TokenService) sign(c claims, ttl time.Duration) (string, error) {
	now := s.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.NotBefore = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

func (s *TokenService) parse(token string, kind string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Kind != kind {
		return nil, ErrTokenKind
	}
	if c.PlayerID <= 0 {
		return nil, fmt.Errorf("%w: user_id not found", ErrInvalidToken)
	}
	return c, nil
}
