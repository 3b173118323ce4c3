package handlers

import (
	"net/http"

	"github.com/dominionwar/dominion/internal/models"
	"github.com/dominionwar/dominion/internal/services"
)

type startUprisingRequest struct {
	CommunityID uint `json:"community_id"`
}

func (m *Manager) handleStartUprising(w http.ResponseWriter, r *http.Request) {
	var req startUprisingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rebellion, err := m.rebellions.StartUprising(actingUser(r), req.CommunityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rebellion_id":      rebellion.ID,
		"required_supports": rebellion.RequiredSupports,
		"current_supports":  rebellion.CurrentSupports,
		"expires_at":        rebellion.AgitationExpiresAt.Format(timeFormat),
	})
}

type supportUprisingRequest struct {
	RebellionID uint `json:"rebellion_id"`
}

func (m *Manager) handleSupportUprising(w http.ResponseWriter, r *http.Request) {
	var req supportUprisingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rebellion, civilWarStarted, err := m.rebellions.SupportUprising(actingUser(r), req.RebellionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_supports":  rebellion.CurrentSupports,
		"required_supports": rebellion.RequiredSupports,
		"civil_war_started": civilWarStarted,
	})
}

type rebellionActionRequest struct {
	RebellionID uint `json:"rebellion_id"`
}

func (m *Manager) handleExileLeader(w http.ResponseWriter, r *http.Request) {
	var req rebellionActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := m.rebellions.ExileLeader(req.RebellionID, actingUser(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (m *Manager) handleReinviteLeader(w http.ResponseWriter, r *http.Request) {
	var req rebellionActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := m.rebellions.ReinviteLeader(req.RebellionID, actingUser(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type negotiationRequest struct {
	RebellionID uint   `json:"rebellion_id"`
	Terms       string `json:"terms"`
}

func (m *Manager) handleRequestNegotiation(w http.ResponseWriter, r *http.Request) {
	var req negotiationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := m.rebellions.RequestNegotiation(req.RebellionID, actingUser(r), req.Terms); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type negotiationResponseRequest struct {
	RebellionID uint `json:"rebellion_id"`
	Accept      bool `json:"accept"`
}

func (m *Manager) handleRespondNegotiation(w http.ResponseWriter, r *http.Request) {
	var req negotiationResponseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	status, err := m.rebellions.RespondToNegotiation(req.RebellionID, actingUser(r), req.Accept)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"outcome": status,
	})
}

type resolveCivilWarRequest struct {
	CivilWarID uint                    `json:"civil_war_id"`
	Winner     services.CivilWarWinner `json:"winner"`
}

func (m *Manager) handleResolveCivilWar(w http.ResponseWriter, r *http.Request) {
	var req resolveCivilWarRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	status, err := m.rebellions.ResolveCivilWar(req.CivilWarID, req.Winner)
	if err != nil {
		writeError(w, err)
		return
	}

	outcome := "rulers_held"
	if status == models.RebellionStatusSuccess {
		outcome = "rebels_won"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"status":  status,
	})
}
