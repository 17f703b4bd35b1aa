package stats

import (
	"context"
	"log/slog"

	"github.com/mcoot/gamehub-console/internal/model"
)

// EmptyLeaderboardText is shown when the API returns no players
const EmptyLeaderboardText = "No players found"

// API is the part of the REST API the dashboard uses
type API interface {
	Stats(ctx context.Context, token string) (*model.Stats, error)
}

// Counter is one headline number
type Counter struct {
	Label string
	Value int
}

// Leader is one leaderboard row
type Leader struct {
	Rank     int
	Username string
	Score    int
}

// View is the rendered dashboard
type View struct {
	Counters []Counter
	Leaders  []Leader
}

// Service loads the statistics dashboard
type Service struct {
	api    API
	logger *slog.Logger
}

// New creates a new stats Service
func New(api API, logger *slog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

// Load fetches the dashboard. Missing counters read as zero.
func (s *Service) Load(ctx context.Context, session *model.AuthSession) (*View, error) {
	st, err := s.api.Stats(ctx, session.Token)
	if err != nil {
		return nil, err
	}

	view := &View{
		Counters: []Counter{
			{Label: "Games", Value: st.TotalGames},
			{Label: "Players", Value: st.TotalPlayers},
			{Label: "Genres", Value: st.TotalGenres},
			{Label: "Platforms", Value: st.TotalPlatforms},
			{Label: "Sessions", Value: st.TotalSessions},
		},
	}
	for i, p := range st.TopFivePlayer.Players {
		name := p.Username
		if name == "" {
			name = model.Placeholder
		}
		view.Leaders = append(view.Leaders, Leader{Rank: i + 1, Username: name, Score: p.TotalScore})
	}

	s.logger.Debug("stats loaded", slog.Int("leaders", len(view.Leaders)))
	return view, nil
}
