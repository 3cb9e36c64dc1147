package domain

import "math/rand"

// Categories the question bank is partitioned into. Matchmaking and
// question sampling both key on the same category value.
var Categories = []string{"Technical", "Aptitude", "Logical Reasoning"}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

var BotNames = []string{"Bot_Alpha", "Bot_Beta", "Bot_Omega", "Bot_Zeta"}

func RandomBotName() string {
	return BotNames[rand.Intn(len(BotNames))]
}

func IsBotName(displayName string) bool {
	for _, name := range BotNames {
		if displayName == name {
			return true
		}
	}
	return false
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrNotFound        Error = "session not found"
	ErrAlreadyQueued   Error = "already in matchmaking queue"
	ErrInvalidCategory Error = "invalid category"
	ErrDuelInProgress  Error = "duel already in progress"
)
