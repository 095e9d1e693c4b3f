package domain

type Platform string

const (
	PlatformBattle  Platform = "battle"
	PlatformPSN     Platform = "psn"
	PlatformXBL     Platform = "xbl"
	PlatformUno     Platform = "uno"
	PlatformUnknown Platform = "unknown"
)

// Valid reports whether p is one of the four platforms the directory knows.
func (p Platform) Valid() bool {
	switch p {
	case PlatformBattle, PlatformPSN, PlatformXBL, PlatformUno:
		return true
	}
	return false
}

// Compatible returns the candidate platforms a player seen on p may be
// registered under. Battle.net players are searched on battle and uno, every
// console platform on itself and uno. Unknown platforms have no match.
func (p Platform) Compatible() []Platform {
	switch p {
	case PlatformBattle:
		return []Platform{PlatformBattle, PlatformUno}
	case PlatformPSN, PlatformXBL:
		return []Platform{p, PlatformUno}
	case PlatformUno:
		return []Platform{PlatformUno}
	}
	return nil
}

type GameStatistics struct {
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

type LifetimeStatistics struct {
	Wins           float64 `json:"wins"`
	Kills          float64 `json:"kills"`
	KdRatio        float64 `json:"kdRatio"`
	TimePlayed     float64 `json:"timePlayed"`
	GamesPlayed    float64 `json:"gamesPlayed"`
	ScorePerMinute float64 `json:"scorePerMinute"`
	Deaths         float64 `json:"deaths"`
}

// PlayerDescriptor is a roster entry as it appeared in the match, before
// any lookup against the directory.
type PlayerDescriptor struct {
	InGameName     string          `json:"inGameName"`
	Username       string          `json:"username"`
	Platform       Platform        `json:"platform"`
	Team           string          `json:"team"`
	GameStatistics *GameStatistics `json:"gameStatistics,omitempty"`
}

// Candidate is one hit returned by a fuzzy search.
type Candidate struct {
	Username string   `json:"username"`
	Platform Platform `json:"platform"`
}

type MatchInfo struct {
	ID                      string             `json:"id"`
	Mode                    string             `json:"mode"`
	TotalPlayers            int                `json:"totalPlayers"`
	UTCStartSeconds         int64              `json:"utcStartSeconds"`
	UTCEndSeconds           int64              `json:"utcEndSeconds"`
	Duration                int64              `json:"duration"`
	FollowedTeam            string             `json:"followedTeam"`
	FollowedTeamDescriptors []PlayerDescriptor `json:"-"`
	OtherPlayerDescriptors  []PlayerDescriptor `json:"-"`
}

// Descriptors returns both partitions, followed team first.
func (m *MatchInfo) Descriptors() []PlayerDescriptor {
	all := make([]PlayerDescriptor, 0, len(m.FollowedTeamDescriptors)+len(m.OtherPlayerDescriptors))
	all = append(all, m.FollowedTeamDescriptors...)
	return append(all, m.OtherPlayerDescriptors...)
}

type PlatformCounts struct {
	Battle int `json:"battle"`
	PSN    int `json:"psn"`
	XBL    int `json:"xbl"`
}

// GroupStatistics holds the averages of one roster partition. When
// PlayersFound is zero every average is zero.
type GroupStatistics struct {
	PlayersFound              int                `json:"playersFound"`
	AverageGameStatistics     GameStatistics     `json:"averageGameStatistics"`
	AverageLifetimeStatistics LifetimeStatistics `json:"averageLifetimeStatistics"`
}

type MatchStatistics struct {
	TotalPlayers      int             `json:"totalPlayers"`
	TotalPlayersFound int             `json:"totalPlayersFound"`
	CountPerPlatform  PlatformCounts  `json:"countPerPlatform"`
	FollowedTeam      GroupStatistics `json:"followedTeam"`
	OtherPlayers      GroupStatistics `json:"otherPlayers"`
}

type MatchPlayers struct {
	FollowedTeam []ResolvedPlayer `json:"followedTeam"`
	OtherPlayers []ResolvedPlayer `json:"otherPlayers"`
}

type MatchSummaryInfo struct {
	Mode            string `json:"mode"`
	UTCStartSeconds int64  `json:"utcStartSeconds"`
	UTCEndSeconds   int64  `json:"utcEndSeconds"`
	Duration        int64  `json:"duration"`
}

type Match struct {
	ID         string           `json:"id"`
	Info       MatchSummaryInfo `json:"info"`
	Statistics MatchStatistics  `json:"statistics"`
	Players    MatchPlayers     `json:"players"`
}
