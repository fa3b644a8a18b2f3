package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// ---------- helpers ----------

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

const testAdminPassword = "let-me-in"

type testServer struct {
	srv   *httptest.Server
	wsURL string
	rooms *RoomRegistry
	board *Leaderboard
}

// startTestServer spins up an httptest.Server with the full stack and
// returns it with a cleanup func.
func startTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	jsDir := filepath.Join(tmpDir, "js")
	os.MkdirAll(jsDir, 0o755)
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)
	os.WriteFile(filepath.Join(jsDir, "main.js"), []byte("// test"), 0o644)

	board := NewLeaderboard(nil)
	rooms := NewRoomRegistry(board)
	hub := NewHub(rooms, board)
	go hub.Run()
	sched := NewScheduler(rooms, SchedulerInterval)
	go sched.Run()

	auth, err := NewAuth("admin", testAdminPassword, "test-secret", nil)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	mux := SetupRoutes(hub, NewAdmin(rooms, hub, auth), tmpDir)
	srv := httptest.NewServer(mux)

	ts := &testServer{
		srv:   srv,
		wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		rooms: rooms,
		board: board,
	}
	return ts, func() {
		srv.Close()
		sched.Stop()
		hub.Stop()
	}
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	return conn
}

// readEnvelope reads one message from the WebSocket. Binary frames are
// msgpack state frames.
func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read WS: %v", err)
	}
	if msgType == websocket.BinaryMessage {
		gs, err := DecodeStateFrame(raw)
		if err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return Envelope{T: MsgState, Data: gs}
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

// readUntil skips messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Envelope {
	t.Helper()
	for i := 0; i < 500; i++ {
		env := readEnvelope(t, conn)
		if env.T == msgType {
			return env
		}
	}
	t.Fatalf("no %s message received", msgType)
	return Envelope{}
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	env := Envelope{T: msgType, Data: data}
	raw, _ := json.Marshal(env)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// dataMap extracts the Data field as map[string]interface{}.
func dataMap(t *testing.T, env Envelope) map[string]interface{} {
	t.Helper()
	raw, _ := json.Marshal(env.Data)
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	return m
}

// joinRoom joins a room and returns the player id from the welcome.
func joinRoom(t *testing.T, conn *websocket.Conn, join map[string]interface{}) string {
	t.Helper()
	sendMsg(t, conn, MsgJoinGame, join)
	welcome := readUntil(t, conn, MsgWelcome)
	return dataMap(t, welcome)["id"].(string)
}

func adminToken(t *testing.T, base string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": testAdminPassword})
	resp, err := http.Post(base+"/admin/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	return out.Token
}

// ---------- UUID generation ----------

func TestGenerateUUIDFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := GenerateUUID()
		if !uuidRegex.MatchString(id) {
			t.Errorf("GenerateUUID() = %q, does not match UUID v4 format", id)
		}
	}
}

func TestLeaderboardEntryIDIsUUID(t *testing.T) {
	id, _ := NewLeaderboard(nil).Record("P", 1)
	if !uuidRegex.MatchString(id) {
		t.Errorf("entry id %q is not a valid UUID v4", id)
	}
}

// ---------- static files ----------

func TestStaticRoot(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(ts.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(body), "<html>") {
		t.Errorf("GET / = %d %q", resp.StatusCode, body)
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Error("expected no-cache")
	}
}

func TestStaticFiles(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(ts.srv.URL + "/js/main.js")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("GET /js/main.js status = %d, want 200", resp.StatusCode)
	}
}

// ---------- game protocol ----------

func TestJoinFlow(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	defer c.Close()

	sendMsg(t, c, MsgJoinGame, map[string]interface{}{"name": "Alice", "room": "Arena"})
	welcome := readEnvelope(t, c)
	if welcome.T != MsgWelcome {
		t.Fatalf("expected welcome first, got %s", welcome.T)
	}
	d := dataMap(t, welcome)
	if d["room"] != "Arena" || d["mode"] != "COOP" || d["tickRate"].(float64) != 30 {
		t.Errorf("unexpected welcome %v", d)
	}

	mapMsg := readUntil(t, c, MsgMapUpdate)
	if dataMap(t, mapMsg)["name"] != "Classic" {
		t.Errorf("unexpected map %v", dataMap(t, mapMsg))
	}

	state := readUntil(t, c, MsgState)
	sd := dataMap(t, state)
	players := sd["players"].(map[string]interface{})
	if _, ok := players[d["id"].(string)]; !ok {
		t.Error("joined player missing from state")
	}
	if sd["wave"].(float64) != 1 {
		t.Errorf("expected wave 1, got %v", sd["wave"])
	}

	readUntil(t, c, MsgHighScores)
}

func TestJoinWithBareName(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	defer c.Close()

	sendMsg(t, c, MsgJoinGame, "Bob")
	welcome := readUntil(t, c, MsgWelcome)
	if dataMap(t, welcome)["room"] != defaultRoom {
		t.Errorf("expected default room, got %v", dataMap(t, welcome)["room"])
	}
	state := readUntil(t, c, MsgState)
	for _, p := range dataMap(t, state)["players"].(map[string]interface{}) {
		if p.(map[string]interface{})["name"] != "Bob" {
			t.Errorf("unexpected player %v", p)
		}
	}
}

func TestJoinErrorOnBadPayload(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	defer c.Close()

	sendMsg(t, c, MsgJoinGame, 42)
	env := readUntil(t, c, MsgJoinError)
	if dataMap(t, env)["message"] == "" {
		t.Error("expected an error message")
	}
	if ts.rooms.Count() != 0 {
		t.Error("no room should be created")
	}
}

func TestJoinErrorHidesCause(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	for i := 0; i < maxRooms; i++ {
		req := joinReq("P", fmt.Sprintf("r%d", i), ModePVP, false)
		if _, _, err := ts.rooms.Join(req, fmt.Sprintf("p%d", i), &mockBroadcaster{}); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	c := dialWS(t, ts.wsURL)
	defer c.Close()

	sendMsg(t, c, MsgJoinGame, map[string]interface{}{"name": "Late", "room": "one-more"})
	env := readUntil(t, c, MsgJoinError)
	if msg := dataMap(t, env)["message"]; msg != joinErrorText {
		t.Errorf("expected %q, got %v", joinErrorText, msg)
	}
}

func TestMsgpackStateFrames(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	defer c.Close()

	joinRoom(t, c, map[string]interface{}{"name": "Bin", "room": "packed", "enc": "msgpack"})
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		msgType, raw, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		gs, err := DecodeStateFrame(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(gs.Players) != 1 {
			t.Errorf("expected 1 player, got %d", len(gs.Players))
		}
		return
	}
}

func TestBinaryInput(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	defer c.Close()

	id := joinRoom(t, c, map[string]interface{}{"name": "Keys", "room": "input"})
	if err := c.WriteMessage(websocket.BinaryMessage, []byte{binaryInputTag, inputRight | inputUp}); err != nil {
		t.Fatal(err)
	}

	room := ts.rooms.Get("input")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		room.mu.Lock()
		in := room.players[id].Input
		room.mu.Unlock()
		if in.Right && in.Up && !in.Left && !in.Shoot {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("binary input never applied")
}

func TestRoomListHidesPrivate(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c1 := dialWS(t, ts.wsURL)
	defer c1.Close()
	joinRoom(t, c1, map[string]interface{}{"name": "A", "room": "open"})

	c2 := dialWS(t, ts.wsURL)
	defer c2.Close()
	joinRoom(t, c2, map[string]interface{}{"name": "B", "room": "hidden", "isPrivate": true, "mode": "PVP"})

	c3 := dialWS(t, ts.wsURL)
	defer c3.Close()
	sendMsg(t, c3, MsgRequestRooms, nil)
	env := readUntil(t, c3, MsgRoomList)

	raw, _ := json.Marshal(env.Data)
	var list []RoomInfo
	json.Unmarshal(raw, &list)
	if len(list) != 1 || list[0].Name != "open" || list[0].Players != 1 {
		t.Errorf("unexpected room list %+v", list)
	}
}

func TestTogglePause(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	defer c.Close()
	joinRoom(t, c, map[string]interface{}{"name": "P", "room": "pausable"})

	sendMsg(t, c, MsgTogglePause, nil)
	for i := 0; i < 500; i++ {
		env := readUntil(t, c, MsgState)
		if dataMap(t, env)["gamePaused"] == true {
			return
		}
	}
	t.Error("never saw a paused state")
}

func TestQuitSendsGameOver(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	defer c.Close()
	joinRoom(t, c, map[string]interface{}{"name": "Quitter", "room": "short"})

	sendMsg(t, c, MsgQuitGame, nil)
	env := readUntil(t, c, MsgGameOver)
	d := dataMap(t, env)
	if d["score"].(float64) != 0 {
		t.Errorf("expected score 0, got %v", d["score"])
	}
	if id, ok := d["id"].(string); !ok || !uuidRegex.MatchString(id) {
		t.Errorf("expected a recorded entry id, got %v", d["id"])
	}

	deadline := time.Now().Add(2 * time.Second)
	for ts.rooms.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ts.rooms.Count() != 0 {
		t.Error("empty room should be destroyed")
	}
	if len(ts.board.Load()) != 1 {
		t.Error("expected the score on the leaderboard")
	}
}

func TestDisconnectCleansUpRoom(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, ts.wsURL)
	joinRoom(t, c, map[string]interface{}{"name": "Gone", "room": "temp"})
	c.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ts.rooms.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ts.rooms.Count() != 0 {
		t.Error("room should be destroyed after disconnect")
	}
}

func TestRequestHighScores(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()
	ts.board.Record("Champ", 4200)

	c := dialWS(t, ts.wsURL)
	defer c.Close()
	sendMsg(t, c, MsgRequestHighScores, nil)
	env := readUntil(t, c, MsgHighScores)

	raw, _ := json.Marshal(env.Data)
	var list []HighScoreEntry
	json.Unmarshal(raw, &list)
	if len(list) != 1 || list[0].Name != "Champ" || list[0].Score != 4200 {
		t.Errorf("unexpected highscores %+v", list)
	}
}

// ---------- HTTP endpoints ----------

func TestHealthz(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(ts.srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "ok" {
		t.Errorf("GET /healthz = %d %q", resp.StatusCode, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(ts.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var m map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := m["server"]; !ok {
		t.Errorf("missing server counters in %v", m)
	}
}

func TestQRCode(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(ts.srv.URL + "/qr?room=nowhere")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown room status = %d, want 404", resp.StatusCode)
	}

	c := dialWS(t, ts.wsURL)
	defer c.Close()
	joinRoom(t, c, map[string]interface{}{"name": "Host", "room": "party"})

	resp, err = http.Get(ts.srv.URL + "/qr?room=party")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.Header.Get("Content-Type") != "image/png" || !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Errorf("expected a PNG, got %q", resp.Header.Get("Content-Type"))
	}
}

func TestAdminRoomsRequiresToken(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(ts.srv.URL + "/admin/rooms")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	c := dialWS(t, ts.wsURL)
	defer c.Close()
	joinRoom(t, c, map[string]interface{}{"name": "A", "room": "secret", "isPrivate": true})

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/admin/rooms", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, ts.srv.URL))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var rooms []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&rooms)
	if len(rooms) != 1 || rooms[0]["name"] != "secret" || rooms[0]["metrics"] == nil {
		t.Errorf("unexpected admin rooms %v", rooms)
	}
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	ts, cleanup := startTestServer(t)
	defer cleanup()

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "nope"})
	resp, err := http.Post(ts.srv.URL+"/admin/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
