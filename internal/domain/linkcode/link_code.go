package linkcode

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mc-economy-bridge/internal/domain/shared"
)

// CodeLength is the number of characters shown to players in game
const CodeLength = 6

var (
	ErrEmptyGameUUID   = errors.New("game uuid cannot be empty")
	ErrGameUUIDTooLong = errors.New("game uuid is too long")
)

// LinkCode authorizes one chat identity to claim a game identity. It is consumable once.
type LinkCode struct {
	Code      string     `json:"code"`
	GameUUID  string     `json:"game_uuid"`
	ExpiresAt time.Time  `json:"expires_at"`
	Used      bool       `json:"used"`
	UsedBy    *string    `json:"used_by,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewLinkCode builds an unused code for the game identity valid for ttl
func NewLinkCode(code, gameUUID string, ttl time.Duration, now time.Time) (*LinkCode, error) {
	gameUUID = strings.TrimSpace(gameUUID)
	if gameUUID == "" {
		return nil, ErrEmptyGameUUID
	}
	if shared.TooLong(gameUUID, shared.MaxIdentityLength) {
		return nil, ErrGameUUIDTooLong
	}

	return &LinkCode{
		Code:      Normalize(code),
		GameUUID:  gameUUID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// GenerateCode returns a short upper-case token drawn from a random UUID
func GenerateCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:CodeLength])
}

// Normalize makes user-typed codes case-insensitive
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsRedeemable reports whether the code is unused and not yet expired
func (c *LinkCode) IsRedeemable(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}

func (c *LinkCode) MarkUsed(identityKey string, at time.Time) {
	c.Used = true
	c.UsedBy = &identityKey
	c.UsedAt = &at
}
