package domain

import (
	"maps"

	"planar/internal/api"
)

// Account is a third-party identity linked to the signed-in user. Fields are
// copied from the server payload as-is.
type Account struct {
	Provider          string
	ProviderAccountID string
	UserID            string
	CreatedAt         string
	LastConnectedAt   string
	Metadata          map[string]any
}

// NewAccountFromPayload copies a wire account.
func NewAccountFromPayload(p api.AccountPayload) Account {
	return Account{
		Provider:          p.Provider,
		ProviderAccountID: p.ProviderAccountID,
		UserID:            p.User,
		CreatedAt:         p.CreatedAt,
		LastConnectedAt:   p.LastConnectedAt,
		Metadata:          maps.Clone(p.Metadata),
	}
}
