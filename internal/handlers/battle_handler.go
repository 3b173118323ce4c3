package handlers

import (
	"net/http"

	"github.com/dominionwar/dominion/internal/models"
)

type declareWarRequest struct {
	CommunityID       uint `json:"community_id"`
	TargetCommunityID uint `json:"target_community_id"`
}

func (m *Manager) handleDeclareWar(w http.ResponseWriter, r *http.Request) {
	var req declareWarRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := m.battles.DeclareWar(actingUser(r), req.CommunityID, req.TargetCommunityID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type formAllianceRequest struct {
	CommunityID     uint `json:"community_id"`
	AllyCommunityID uint `json:"ally_community_id"`
}

func (m *Manager) handleFormAlliance(w http.ResponseWriter, r *http.Request) {
	var req formAllianceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := m.battles.FormAlliance(actingUser(r), req.CommunityID, req.AllyCommunityID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type startBattleRequest struct {
	AttackerCommunityID uint `json:"attacker_community_id"`
	TerritoryID         uint `json:"territory_id"`
}

type battleResponse struct {
	BattleID       uint                `json:"battle_id"`
	Status         models.BattleStatus `json:"status"`
	CurrentDefense int64               `json:"current_defense"`
	InitialDefense int64               `json:"initial_defense"`
	AttackerScore  int64               `json:"attacker_score"`
	DefenderScore  int64               `json:"defender_score"`
	EndsAt         string              `json:"ends_at"`
}

func toBattleResponse(b *models.Battle) battleResponse {
	return battleResponse{
		BattleID:       b.ID,
		Status:         b.Status,
		CurrentDefense: b.CurrentDefense,
		InitialDefense: b.InitialDefense,
		AttackerScore:  b.AttackerScore,
		DefenderScore:  b.DefenderScore,
		EndsAt:         b.EndsAt.Format(timeFormat),
	}
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func (m *Manager) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	var req startBattleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	battle, err := m.battles.StartBattle(actingUser(r), req.AttackerCommunityID, req.TerritoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBattleResponse(battle))
}

type applyDamageRequest struct {
	BattleID uint              `json:"battle_id"`
	Side     models.BattleSide `json:"side"`
	Amount   int64             `json:"amount"`
}

func (m *Manager) handleApplyDamage(w http.ResponseWriter, r *http.Request) {
	var req applyDamageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	battle, err := m.battles.ApplyDamage(req.BattleID, actingUser(r), req.Side, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBattleResponse(battle))
}

type repairRequest struct {
	BattleID uint  `json:"battle_id"`
	Amount   int64 `json:"amount"`
}

func (m *Manager) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	battle, err := m.battles.Repair(req.BattleID, actingUser(r), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBattleResponse(battle))
}
