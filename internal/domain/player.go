package domain

import (
	json "github.com/goccy/go-json"
)

// ResolvedPlayer is the outcome of resolving one PlayerDescriptor. The only
// implementations are Found and NotFound; switch on the concrete type.
type ResolvedPlayer interface {
	Identity() PlayerDescriptor
	IsFound() bool
	resolved()
}

// Found is a descriptor matched to a directory identity.
type Found struct {
	Info               PlayerDescriptor   `json:"info"`
	Username           string             `json:"username"`
	PlatformFound      Platform           `json:"platformFound"`
	LifetimeStatistics LifetimeStatistics `json:"lifetimeStatistics"`
}

// NewFound builds a Found for desc from the accepted candidate.
func NewFound(desc PlayerDescriptor, candidate Candidate, stats LifetimeStatistics) Found {
	return Found{
		Info:               desc,
		Username:           candidate.Username,
		PlatformFound:      candidate.Platform,
		LifetimeStatistics: stats,
	}
}

func (f Found) Identity() PlayerDescriptor { return f.Info }
func (f Found) IsFound() bool              { return true }
func (Found) resolved()                    {}

// GameStatistics returns the in-match statistics carried by the descriptor.
func (f Found) GameStatistics() *GameStatistics { return f.Info.GameStatistics }

// WithIdentity returns a copy of f bound to another roster entry. Used when a
// cached identity is reused in a different match.
func (f Found) WithIdentity(desc PlayerDescriptor) Found {
	f.Info = desc
	return f
}

func (f Found) MarshalJSON() ([]byte, error) {
	type plain Found
	return json.Marshal(struct {
		Found bool `json:"found"`
		plain
	}{Found: true, plain: plain(f)})
}

// NotFound keeps the original roster entry of a player no candidate was
// accepted for.
type NotFound struct {
	Info PlayerDescriptor `json:"info"`
}

func NewNotFound(desc PlayerDescriptor) NotFound {
	return NotFound{Info: desc}
}

func (n NotFound) Identity() PlayerDescriptor { return n.Info }
func (n NotFound) IsFound() bool              { return false }
func (NotFound) resolved()                    {}

func (n NotFound) MarshalJSON() ([]byte, error) {
	type plain NotFound
	return json.Marshal(struct {
		Found bool `json:"found"`
		plain
	}{Found: false, plain: plain(n)})
}

// FoundOnly filters players down to the Found variant.
func FoundOnly(players []ResolvedPlayer) []Found {
	found := make([]Found, 0, len(players))
	for _, p := range players {
		if f, ok := p.(Found); ok {
			found = append(found, f)
		}
	}
	return found
}
