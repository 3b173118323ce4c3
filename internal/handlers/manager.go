package handlers

import (
	"net/http"
	"time"

	"github.com/dominionwar/dominion/internal/config"
	"github.com/dominionwar/dominion/internal/middleware"
	"github.com/dominionwar/dominion/internal/services"
)

// Manager wires the operation surface to the services. Every route is
// authenticated as the acting user.
type Manager struct {
	cfg        *config.Config
	battles    *services.BattleService
	rebellions *services.RebellionService
	limiter    *middleware.RateLimiter
}

func NewManager(cfg *config.Config, battles *services.BattleService, rebellions *services.RebellionService) *Manager {
	return &Manager{
		cfg:        cfg,
		battles:    battles,
		rebellions: rebellions,
		limiter:    middleware.NewRateLimiter(cfg.RateLimitPerUser, time.Minute),
	}
}

func (m *Manager) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/wars/declare", m.withAuth(m.handleDeclareWar))
	mux.HandleFunc("POST /api/alliances/form", m.withAuth(m.handleFormAlliance))

	mux.HandleFunc("POST /api/battles/start", m.withAuth(m.handleStartBattle))
	mux.HandleFunc("POST /api/battles/damage", m.withAuth(m.handleApplyDamage))
	mux.HandleFunc("POST /api/battles/repair", m.withAuth(m.handleRepair))

	mux.HandleFunc("POST /api/uprisings/start", m.withAuth(m.handleStartUprising))
	mux.HandleFunc("POST /api/uprisings/support", m.withAuth(m.handleSupportUprising))
	mux.HandleFunc("POST /api/uprisings/exile", m.withAuth(m.handleExileLeader))
	mux.HandleFunc("POST /api/uprisings/reinvite", m.withAuth(m.handleReinviteLeader))
	mux.HandleFunc("POST /api/uprisings/negotiation/request", m.withAuth(m.handleRequestNegotiation))
	mux.HandleFunc("POST /api/uprisings/negotiation/respond", m.withAuth(m.handleRespondNegotiation))
	mux.HandleFunc("POST /api/civil-wars/resolve", m.withAuth(m.handleResolveCivilWar))

	mux.HandleFunc("POST /api/sweep", m.withAuth(m.handleSweep))

	return mux
}

func (m *Manager) handleSweep(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	battles := m.battles.SweepDue(now)
	rebellions := m.rebellions.SweepExpiredAgitations(now)
	writeJSON(w, http.StatusOK, map[string]int{
		"battles_resolved":  battles,
		"rebellions_failed": rebellions,
	})
}
