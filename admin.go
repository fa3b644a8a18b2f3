package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// Admin serves the operator and monitoring endpoints
type Admin struct {
	rooms   *RoomRegistry
	hub     *Hub
	auth    *Auth
	started time.Time
}

// NewAdmin creates the admin handlers
func NewAdmin(rooms *RoomRegistry, hub *Hub, auth *Auth) *Admin {
	return &Admin{rooms: rooms, hub: hub, auth: auth, started: time.Now()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleLogin exchanges operator credentials for a bearer token
// POST /admin/login {"username": "...", "password": "..."}
func (a *Admin) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	token, err := a.auth.Login(body.Username, body.Password, extractIP(r))
	switch err {
	case nil:
		Log.Infof("admin login from %s", extractIP(r))
		writeJSON(w, http.StatusOK, map[string]any{"token": token, "expiresIn": int(jwtExpiry.Seconds())})
	case ErrAdminDisabled:
		http.Error(w, err.Error(), http.StatusNotFound)
	case ErrRateLimited:
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	default:
		Log.Infof("admin login failed from %s", extractIP(r))
		http.Error(w, ErrBadCredentials.Error(), http.StatusUnauthorized)
	}
}

// HandleRooms lists every room, private ones included
// GET /admin/rooms
func (a *Admin) HandleRooms(w http.ResponseWriter, r *http.Request) {
	type roomDetail struct {
		RoomInfo
		Metrics map[string]any `json:"metrics"`
	}
	rooms := a.rooms.Rooms()
	out := make([]roomDetail, 0, len(rooms))
	for _, rm := range rooms {
		out = append(out, roomDetail{RoomInfo: rm.Info(), Metrics: rm.metrics.Snapshot()})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleMetrics reports process-wide counters
// GET /metrics
func (a *Admin) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_s": int(time.Since(a.started).Seconds()),
		"rooms":    a.rooms.Count(),
		"clients":  a.hub.ClientCount(),
		"conns":    a.hub.TotalConns(),
		"server":   Metrics.Snapshot(),
	})
}

// HandleHealth is the liveness probe
func (a *Admin) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// HandleQR renders an invite link for a room as a PNG
// GET /qr?room=name
func (a *Admin) HandleQR(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("room")
	if name == "" {
		http.Error(w, "missing room", http.StatusBadRequest)
		return
	}
	if a.rooms.Get(name) == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(inviteURL(r, name), qrcode.Medium, qrSize)
	if err != nil {
		Log.Errorf("qr for room %q: %v", name, err)
		http.Error(w, "qr error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(png)
}

// inviteURL builds the join link that the QR code points at
func inviteURL(r *http.Request, room string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: "/"}
	q := u.Query()
	q.Set("room", room)
	u.RawQuery = q.Encode()
	return u.String()
}
