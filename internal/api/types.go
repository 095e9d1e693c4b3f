package api

import (
	"strings"

	json "github.com/goccy/go-json"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type errorData struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func isAuthMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not authenticated") || strings.Contains(msg, "not permitted")
}

type SearchHit struct {
	Platform  string `json:"platform"`
	Username  string `json:"username"`
	AccountID string `json:"accountId"`
}

type ProfileData struct {
	Title    string  `json:"title"`
	Platform string  `json:"platform"`
	Username string  `json:"username"`
	Level    float64 `json:"level"`
	Lifetime struct {
		Mode struct {
			BR struct {
				Properties *BRProperties `json:"properties"`
			} `json:"br"`
		} `json:"mode"`
	} `json:"lifetime"`
}

type BRProperties struct {
	Wins           float64 `json:"wins"`
	Kills          float64 `json:"kills"`
	KdRatio        float64 `json:"kdRatio"`
	TimePlayed     float64 `json:"timePlayed"`
	GamesPlayed    float64 `json:"gamesPlayed"`
	ScorePerMinute float64 `json:"scorePerMinute"`
	Deaths         float64 `json:"deaths"`
}

type MatchesData struct {
	Matches []RawMatch `json:"matches"`
}

// RawMatch is a match record as the directory returns it.
type RawMatch struct {
	MatchID         string          `json:"matchID"`
	Mode            string          `json:"mode"`
	UTCStartSeconds int64           `json:"utcStartSeconds"`
	UTCEndSeconds   int64           `json:"utcEndSeconds"`
	Duration        int64           `json:"duration"`
	PlayerCount     int             `json:"playerCount"`
	Player          *RawMatchPlayer `json:"player"`
	RankedTeams     []RawRankedTeam `json:"rankedTeams"`
}

// RawMatchPlayer is the account whose history the match was read from.
type RawMatchPlayer struct {
	Team     string `json:"team"`
	Username string `json:"username"`
	Clantag  string `json:"clantag"`
}

type RawRankedTeam struct {
	Name      string          `json:"name"`
	Placement int             `json:"placement"`
	Players   []RawTeamPlayer `json:"players"`
}

type RawTeamPlayer struct {
	Username    string          `json:"username"`
	Platform    string          `json:"platform"`
	Team        string          `json:"team"`
	PlayerStats *RawPlayerStats `json:"playerStats"`
}

type RawPlayerStats struct {
	Kills             float64 `json:"kills"`
	KdRatio           float64 `json:"kdRatio"`
	Score             float64 `json:"score"`
	TimePlayed        float64 `json:"timePlayed"`
	PercentTimeMoving float64 `json:"percentTimeMoving"`
	LongestStreak     float64 `json:"longestStreak"`
	ScorePerMinute    float64 `json:"scorePerMinute"`
	DamageDone        float64 `json:"damageDone"`
	DistanceTraveled  float64 `json:"distanceTraveled"`
	Deaths            float64 `json:"deaths"`
	DamageTaken       float64 `json:"damageTaken"`
}

// ContainsMatch reports whether matchID is among matches.
func ContainsMatch(matches []RawMatch, matchID string) bool {
	for _, m := range matches {
		if m.MatchID == matchID {
			return true
		}
	}
	return false
}
