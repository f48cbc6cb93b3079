package server

import (
	"encoding/json"
	"net/http"
)

// lookupArena 按 ?arena= 选择战场，缺省落到默认战场
func lookupArena(r *http.Request) (*Arena, error) {
	name := r.URL.Query().Get("arena")
	if name == "" {
		name = GetArenaManager().DefaultArenaName()
	}
	return GetArenaManager().GetOrCreate(name)
}

// HandleAdminRules 提供战斗数值的读取与更新（热更新）
// GET /admin/rules?arena=arena-1  返回当前数值
// POST /admin/rules?arena=arena-1 以 JSON 载荷更新部分字段
// 更新经协调循环生效，不直接写战场状态
func HandleAdminRules(w http.ResponseWriter, r *http.Request) {
	arena, err := lookupArena(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type patch struct {
		MaxHealth    *int `json:"maxHealth,omitempty"`
		AttackDamage *int `json:"attackDamage,omitempty"`
		PickupHeal   *int `json:"pickupHeal,omitempty"`
		JumpDistance *int `json:"jumpDistance,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(arena.CurrentRules())
		return
	case http.MethodPost:
		var body patch
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		rules := arena.CurrentRules()
		if body.MaxHealth != nil {
			rules.MaxHealth = *body.MaxHealth
		}
		if body.AttackDamage != nil {
			rules.AttackDamage = *body.AttackDamage
		}
		if body.PickupHeal != nil {
			rules.PickupHeal = *body.PickupHeal
		}
		if body.JumpDistance != nil {
			rules.JumpDistance = *body.JumpDistance
		}
		if rules.MaxHealth <= 0 || rules.AttackDamage <= 0 || rules.PickupHeal < 0 || rules.JumpDistance < 1 {
			http.Error(w, "invalid rules", http.StatusBadRequest)
			return
		}
		if !arena.UpdateRules(rules) {
			http.Error(w, "arena stopped", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		Log.Infof("admin: rules update requested: arena=%s hp=%d dmg=%d heal=%d jump=%d",
			arena.Name, rules.MaxHealth, rules.AttackDamage, rules.PickupHeal, rules.JumpDistance)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出指定战场的运行指标
// GET /metrics?arena=arena-1
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	arena, err := lookupArena(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	payload := map[string]any{
		"arena":   arena.Name,
		"metrics": arena.Metrics().Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
