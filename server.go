package main

import (
	"net"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts browser upgrades only from the page's own host.
// Clients that send no Origin header are allowed.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// staticHandler serves the browser client with no-cache so a redeploy is
// picked up on the next load
func staticHandler(clientDir string) http.Handler {
	files := http.FileServer(http.Dir(clientDir))
	index := filepath.Join(clientDir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "/" {
			http.ServeFile(w, r, index)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// serveWS upgrades a game connection and hands it to the hub
func serveWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			Log.Infof("connection from %s refused: limit reached", ip)
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Warnf("upgrade error: %v", err)
			return
		}
		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client
		Log.Debugf("client %s connected from %s", client.id, ip)

		go client.WritePump()
		go client.ReadPump()
	}
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, admin *Admin, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", staticHandler(clientDir))
	mux.HandleFunc("/ws", serveWS(hub))

	mux.HandleFunc("/healthz", admin.HandleHealth)
	mux.HandleFunc("/metrics", admin.HandleMetrics)
	mux.HandleFunc("/qr", admin.HandleQR)
	mux.HandleFunc("/admin/login", admin.HandleLogin)
	mux.HandleFunc("/admin/rooms", admin.auth.RequireAdmin(admin.HandleRooms))
	return mux
}
