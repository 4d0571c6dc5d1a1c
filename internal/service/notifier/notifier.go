package service_notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coplay/gamenight/core/internal/config"
	"github.com/coplay/gamenight/core/internal/model"
)

// Service posts a "game picked" message to the configured incoming
// webhooks when a voting session closes with a winner. Deliveries are
// fire-and-forget: a failed webhook is logged, never surfaced to the
// voting flow.
type Service struct {
	slackURL string
	teamsURL string
	http     *http.Client
	logger   *slog.Logger
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(cfg config.Webhooks, opts ...ServiceOption) *Service {
	s := &Service{
		slackURL: cfg.SlackURL,
		teamsURL: cfg.TeamsURL,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotifyGamePicked fires every configured webhook and reports per-service
// delivery success.
func (s *Service) NotifyGamePicked(ctx context.Context, sessionID string, game model.GameRecord) map[string]bool {
	results := make(map[string]bool)

	if s.slackURL != "" {
		results["slack"] = s.post(ctx, "slack", s.slackURL, slackPayload(sessionID, game))
	}
	if s.teamsURL != "" {
		results["teams"] = s.post(ctx, "teams", s.teamsURL, teamsPayload(sessionID, game))
	}
	return results
}

func (s *Service) post(ctx context.Context, service, url string, payload any) bool {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("webhook payload marshal failed",
			slog.String("service", service),
			slog.String("error", err.Error()))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("webhook request build failed",
			slog.String("service", service),
			slog.String("error", err.Error()))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed",
			slog.String("service", service),
			slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("webhook rejected",
			slog.String("service", service),
			slog.Int("status", resp.StatusCode))
		return false
	}
	return true
}

func slackPayload(sessionID string, game model.GameRecord) map[string]any {
	text := fmt.Sprintf(":video_game: *%s* won the vote!", game.Name)
	return map[string]any{
		"text": text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": fmt.Sprintf("%s\nSession `%s`, %d owners ready to play.",
						text, sessionID, len(game.Owners)),
				},
			},
		},
	}
}

func teamsPayload(sessionID string, game model.GameRecord) map[string]any {
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"summary":    "Game picked",
		"themeColor": "6441a5",
		"title":      fmt.Sprintf("%s won the vote", game.Name),
		"text":       fmt.Sprintf("Session %s finished. Time to play %s!", sessionID, game.Name),
	}
}
