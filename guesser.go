/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Guesser web game
//
// The player thinks of a positive number and answers yes/no questions until
// the server names it. Each session owns its own game and statistics.
//
// Features:
// - WebSockets per session ID: /guess/:gameid and /guess/:gameid/ws
// - All tabs connected to a session see the same question
// - First cookie to connect owns the session and is the only one allowed to reset statistics
// - Statistics kept in memory, or in --stats-dir/<gameid>.json
// - Sessions auto-reaped after configurable idle timeout
// - Random 8-char session IDs via crypto/rand, with server-side collision check
// - QR code of the session URL, to continue on another device

package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/afero"

	"github.com/Seednode/guesser/games/guess"
)

const (
	gamePath         = "/guess"
	gameIDLetters    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	gameIDLength     = 8
	maxGameIDLength  = 32
	playerCookieName = "guesser_id"
)

// Messages coming from clients
type ClientMessage struct {
	Type string `json:"type"`          // "start", "answer", "stats", "reset", "confirm_reset", "contact"
	Yes  *bool  `json:"yes,omitempty"` // answer / confirm_reset
}

// QuestionMessage asks every client in the session about a range.
type QuestionMessage struct {
	Type     string `json:"type"` // "question"
	Number   int    `json:"number"`
	Text     string `json:"text"`
	Lo       uint64 `json:"lo"`
	Hi       uint64 `json:"hi"`
	Phase    string `json:"phase"`
	Progress int    `json:"progress"`
}

// ResultMessage announces the deduced number.
type ResultMessage struct {
	Type        string  `json:"type"` // "result"
	Guess       uint64  `json:"guess"`
	Guesses     int     `json:"guesses"`
	Theoretical int     `json:"theoretical"`
	Efficiency  float64 `json:"efficiency"`
	Progress    int     `json:"progress"`
}

type StatsMessage struct {
	Type         string  `json:"type"` // "stats"
	Games        int     `json:"games"`
	TotalGuesses int     `json:"total_guesses"`
	Average      float64 `json:"average"`
	Best         string  `json:"best"`
	LastGame     string  `json:"last_game"`
}

// SessionInfoMessage is sent immediately on connect so the client knows
// what this cookie may do and whether a game is under way.
type SessionInfoMessage struct {
	Type    string `json:"type"` // "session_info"
	IsOwner bool   `json:"is_owner"`
	Playing bool   `json:"playing"`
}

// SimpleMessage is for generic notifications ("error", "warning", "contact", "confirm_reset", "reset_done")
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type clientRequest struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	contact string
	logf    func(format string, args ...any)

	// host is only touched by the run goroutine.
	host *guess.Host

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	requests chan clientRequest
	quit     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	createdAt     time.Time
	lastActive    time.Time
	ownerPlayerID string
}

func newHub(gameID, contact string, host *guess.Host, logf func(string, ...any)) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		contact:    contact,
		logf:       logf,
		host:       host,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		requests:   make(chan clientRequest),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			if h.stopped() {
				close(c.send)
				_ = c.conn.Close()

				return
			}

			h.mu.Lock()
			h.lastActive = time.Now()

			// First connection owns the session
			if h.ownerPlayerID == "" {
				h.ownerPlayerID = c.playerID
			}

			h.clients[c] = true

			h.sendLocked(c, SessionInfoMessage{
				Type:    "session_info",
				IsOwner: c.playerID == h.ownerPlayerID,
				Playing: h.host.Playing(),
			})
			h.sendLocked(c, h.statsMessage())

			// Rejoining mid-game shows the open question or the last result.
			if step, ok := h.host.Current(); ok {
				h.sendLocked(c, h.stepMessage(step))
			}

			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case req := <-h.requests:
			h.handleRequest(req)

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) handleRequest(req clientRequest) {
	c := req.client
	msg := req.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	switch msg.Type {
	case "start":
		step := h.host.StartGame()
		h.logf("GAMES: Started game in %s", h.id)
		h.broadcastLocked(h.stepMessage(step))

	case "answer":
		if msg.Yes == nil {
			h.sendLocked(c, SimpleMessage{Type: "error", Message: "An answer must be yes or no."})

			return
		}

		step, err := h.host.SubmitAnswer(*msg.Yes)
		if err != nil {
			h.sendLocked(c, SimpleMessage{Type: "error", Message: "There is no question to answer. Start a new game first."})

			return
		}

		h.broadcastLocked(h.stepMessage(step))

		if step.Result == nil {
			return
		}

		h.logf("GAMES: Found %d in %d questions in %s", step.Result.Guess, step.Result.Guesses, h.id)

		if step.Result.SaveErr != nil {
			h.broadcastLocked(SimpleMessage{Type: "warning", Message: "Your statistics could not be saved."})
		}

		h.broadcastLocked(h.statsMessage())

	case "stats":
		h.sendLocked(c, h.statsMessage())

	case "reset":
		if c.playerID != h.ownerPlayerID {
			h.sendLocked(c, SimpleMessage{Type: "error", Message: "Only the device that created this session can reset its statistics."})

			return
		}

		h.host.RequestReset()
		h.sendLocked(c, SimpleMessage{Type: "confirm_reset", Message: "Do you really want to reset all statistics?"})

	case "confirm_reset":
		if c.playerID != h.ownerPlayerID {
			return
		}

		reset, err := h.host.ConfirmReset(msg.Yes != nil && *msg.Yes)

		var writeErr *guess.StorageWriteError

		switch {
		case errors.Is(err, guess.ErrNoResetPending):
			h.sendLocked(c, SimpleMessage{Type: "error", Message: "No reset is awaiting confirmation."})

			return
		case errors.As(err, &writeErr):
			h.sendLocked(c, SimpleMessage{Type: "warning", Message: "Statistics were reset, but could not be saved."})
		}

		if reset {
			h.logf("GAMES: Statistics reset in %s", h.id)
			h.broadcastLocked(SimpleMessage{Type: "reset_done", Message: "Statistics have been reset!"})
			h.broadcastLocked(h.statsMessage())
		}

	case "contact":
		h.sendLocked(c, SimpleMessage{Type: "contact", Message: contactText(h.contact)})
	}
}

func contactText(contact string) string {
	if contact == "" {
		return "No contact details have been configured."
	}

	return contact
}

func (h *Hub) stepMessage(step guess.Step) any {
	if step.Result != nil {
		return ResultMessage{
			Type:        "result",
			Guess:       step.Result.Guess,
			Guesses:     step.Result.Guesses,
			Theoretical: step.Result.Theoretical,
			Efficiency:  step.Result.Efficiency,
			Progress:    h.host.Progress(),
		}
	}

	q := step.Question

	return QuestionMessage{
		Type:     "question",
		Number:   q.Number,
		Text:     q.Text,
		Lo:       q.Range.Lo,
		Hi:       q.Range.Hi,
		Phase:    q.Phase.String(),
		Progress: h.host.Progress(),
	}
}

func (h *Hub) statsMessage() StatsMessage {
	s := h.host.Stats()

	return StatsMessage{
		Type:         "stats",
		Games:        s.Games,
		TotalGuesses: s.TotalGuesses,
		Average:      s.Average(),
		Best:         s.BestString(),
		LastGame:     s.LastGameString(),
	}
}

// sendLocked assumes h.mu is already held. Clients that cannot keep up are dropped.
func (h *Hub) sendLocked(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcastLocked(msg any) {
	for client := range h.clients {
		h.sendLocked(client, msg)
	}
}

func (h *Hub) stopped() bool {
	select {
	case <-h.quit:
		return true
	default:
		return false
	}
}

// closeAll disconnects all clients of this hub and stops it (used by reaper).
func (h *Hub) closeAll() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

func validGameID(id string) bool {
	if id == "" || len(id) > maxGameIDLength {
		return false
	}

	for _, r := range id {
		if !strings.ContainsRune(gameIDLetters, r) {
			return false
		}
	}

	return true
}

// GameManager holds a set of hubs keyed by session ID, so each $path/$gameid
// is its own isolated game.
type GameManager struct {
	cfg *Config
	fs  afero.Fs

	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

func newGameManager(cfg *Config, fs afero.Fs) *GameManager {
	gm := &GameManager{
		cfg:         cfg,
		fs:          fs,
		hubs:        make(map[string]*Hub),
		idleTimeout: cfg.sessionTimeout,
		done:        make(chan struct{}),
	}

	if gm.idleTimeout > 0 {
		go gm.reaperLoop()
	}

	return gm
}

func (gm *GameManager) getHub(gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	host := guess.NewHost(sessionStore(gm.cfg, gm.fs, gameID), guess.WithLogf(logger(gm.cfg)))

	hub := newHub(gameID, gm.cfg.contact, host, logger(gm.cfg))
	gm.hubs[gameID] = hub
	go hub.run()

	return hub
}

// newGameID generates a crypto-random session ID and ensures it doesn't
// collide with existing sessions.
func (gm *GameManager) newGameID() string {
	for {
		buf := make([]byte, gameIDLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		out := make([]byte, gameIDLength)
		for i := range out {
			out[i] = gameIDLetters[int(buf[i])%len(gameIDLetters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			gm.reap(time.Now().Add(-gm.idleTimeout))
		case <-gm.done:
			return
		}
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			logf(gm.cfg, "GAMES: Reaped idle session %s", id)
			go hub.closeAll()
		}
	}
}

// close stops the reaper and ends every session.
func (gm *GameManager) close() {
	gm.closeOnce.Do(func() {
		close(gm.done)
	})

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		delete(gm.hubs, id)
		hub.closeAll()
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !validGameID(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)

		hub := gm.getHub(gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start", "answer", "stats", "reset", "confirm_reset", "contact":
			select {
			case h.requests <- clientRequest{client: c, msg: msg}:
			case <-h.quit:
				return
			}
		default:
			// ignore unknown types
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current session URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the session URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")
		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func getIndexHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !validGameID(ps.ByName("gameid")) {
			http.NotFound(w, r)
			return
		}

		data, err := assets.ReadFile("assets/guesser/index.html")
		if err != nil {
			http.Error(w, "missing page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)
		_ = getOrSetPlayerID(w, r)
		_, _ = w.Write(data)
	}
}

// redirectNewGame handles GET /path by generating a new random session ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created session %s/%s", path, gameID)
		http.Redirect(w, r, fmt.Sprintf("%s%s/%s", cfg.prefix, path, gameID), http.StatusTemporaryRedirect)
	}
}

// registerGuessGame sets up routes so that:
//   - $path                  → redirects to new random session (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that session
//   - $path/:gameid/qr       → PNG QR code for that session URL
func registerGuessGame(cfg *Config, fs afero.Fs, path string, mux *httprouter.Router) *GameManager {
	gm := newGameManager(cfg, fs)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	return gm
}
