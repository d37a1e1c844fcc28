package bot

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// BotUserIDPrefix marks seat user ids that belong to AI players.
const BotUserIDPrefix = "bot-"

// BotIdentity is how an AI player appears at the table.
type BotIdentity struct {
	UserID      string     `json:"user_id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Difficulty  Difficulty `json:"difficulty"`
}

var botNames = []string{"Ace", "Blaze", "Cinder", "Dash", "Echo", "Flint"}

// NewIdentity returns a fresh identity for the bot seated at seat.
func NewIdentity(seat int, level Difficulty) BotIdentity {
	name := botNames[seat%len(botNames)]
	return BotIdentity{
		UserID:      BotUserIDPrefix + uuid.NewString(),
		Username:    strings.ToLower(fmt.Sprintf("%s_%s", name, level)),
		DisplayName: fmt.Sprintf("%s (%s AI)", name, level),
		Difficulty:  level,
	}
}

// IsBot reports whether the given user ID belongs to an AI player.
func IsBot(userID string) bool {
	return strings.HasPrefix(userID, BotUserIDPrefix)
}
