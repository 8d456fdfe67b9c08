package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"netrunner/internal/engine"
)

const defaultLogLimit = 50

type stateResponse struct {
	State       engine.Snapshot `json:"state"`
	HackEnabled bool            `json:"hackEnabled"`
	Events      []engine.Event  `json:"events"`
}

type serverRequest struct {
	Target string `json:"target"`
	Server string `json:"server"`
}

type idRequest struct {
	ID string `json:"id"`
}

type skillRequest struct {
	Skill string `json:"skill"`
}

type sellRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type missionRequest struct {
	Chain string `json:"chain"`
}

type grantRequest struct {
	Credits        float64 `json:"credits"`
	ResearchPoints float64 `json:"researchPoints"`
	SkillPoints    int     `json:"skillPoints"`
}

func newMux(s *engine.Session, token string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse{
			State:       s.State(),
			HackEnabled: s.HackEnabled(),
			Events:      s.ActiveEvents(),
		})
	})

	mux.HandleFunc("/api/log", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		limit := defaultLogLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, s.Notifications(limit))
	})

	mux.HandleFunc("/api/targets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, s.Targets())
	})

	mux.HandleFunc("/api/scan", post(func(w http.ResponseWriter, r *http.Request) {
		var req serverRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := s.Scan(r.Context(), req.Target, req.Server)
		respond(w, res, err)
	}))

	mux.HandleFunc("/api/hack", post(func(w http.ResponseWriter, r *http.Request) {
		var req serverRequest
		if !decode(w, r, &req) {
			return
		}
		res, err := s.Hack(r.Context(), req.Target, req.Server)
		respond(w, res, err)
	}))

	idAction := func(fn func(string) error) http.HandlerFunc {
		return post(func(w http.ResponseWriter, r *http.Request) {
			var req idRequest
			if !decode(w, r, &req) {
				return
			}
			respond(w, s.State(), fn(strings.TrimSpace(req.ID)))
		})
	}
	mux.HandleFunc("/api/gear/buy", idAction(s.BuyItem))
	mux.HandleFunc("/api/programs/learn", idAction(s.LearnProgram))
	mux.HandleFunc("/api/programs/equip", idAction(s.EquipProgram))
	mux.HandleFunc("/api/programs/unequip", idAction(s.UnequipProgram))
	mux.HandleFunc("/api/upgrades/unlock", idAction(s.UnlockUpgrade))
	mux.HandleFunc("/api/upgrades/research", idAction(s.ResearchUpgrade))

	mux.HandleFunc("/api/skills/spend", post(func(w http.ResponseWriter, r *http.Request) {
		var req skillRequest
		if !decode(w, r, &req) {
			return
		}
		respond(w, s.State(), s.SpendSkillPoint(strings.TrimSpace(req.Skill)))
	}))

	// An empty id sells the whole inventory; quantity <= 0 sells the stack.
	mux.HandleFunc("/api/loot/sell", post(func(w http.ResponseWriter, r *http.Request) {
		var req sellRequest
		if !decode(w, r, &req) {
			return
		}
		var (
			sale engine.Sale
			err  error
		)
		if id := strings.TrimSpace(req.ID); id != "" {
			sale, err = s.SellLoot(id, req.Quantity)
		} else {
			sale, err = s.SellAllLoot()
		}
		respond(w, sale, err)
	}))

	mux.HandleFunc("/api/missions/accept", post(func(w http.ResponseWriter, r *http.Request) {
		var req missionRequest
		if !decode(w, r, &req) {
			return
		}
		respond(w, s.State(), s.AcceptMissionChain(strings.TrimSpace(req.Chain)))
	}))

	mux.HandleFunc("/api/missions/abandon", post(func(w http.ResponseWriter, r *http.Request) {
		if !s.AbandonMission() {
			respond(w, nil, engine.ErrNotFound)
			return
		}
		respond(w, s.State(), nil)
	}))

	mux.HandleFunc("/api/admin/grant", post(func(w http.ResponseWriter, r *http.Request) {
		if !isAdmin(r, token) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var req grantRequest
		if !decode(w, r, &req) {
			return
		}
		s.Grant(req.Credits, req.ResearchPoints, req.SkillPoints)
		respond(w, s.State(), nil)
	}))

	mux.HandleFunc("/api/admin/reset", post(func(w http.ResponseWriter, r *http.Request) {
		if !isAdmin(r, token) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		s.Reset()
		respond(w, s.State(), nil)
	}))
	return mux
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// decode reads an optional JSON body. An empty body leaves v zeroed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case errors.Is(err, engine.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"reason": engine.RejectionReason(err)})
	case engine.RejectionReason(err) != "":
		writeJSON(w, http.StatusConflict, map[string]string{"reason": engine.RejectionReason(err)})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		log.Printf("request failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response failed: %v", err)
	}
}

// isAdmin accepts the admin token as a query parameter or any loopback caller.
func isAdmin(r *http.Request, token string) bool {
	if token != "" && r.URL.Query().Get("token") == token {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return host == "localhost" || (ip != nil && ip.IsLoopback())
}
