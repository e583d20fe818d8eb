// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_ahrs/internal/config"
	"github.com/relabs-tech/inertial_ahrs/internal/diag"
	"github.com/relabs-tech/inertial_ahrs/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// webState caches the latest producer messages and relays commands.
type webState struct {
	mu        sync.RWMutex
	pose      orientation.Pose
	havePose  bool
	state     orientation.State
	haveState bool
	report    diag.Report
	haveDiag  bool
	export    []byte

	send func(orientation.Command) error
	log  *zap.SugaredLogger

	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	return c.conn.WriteJSON(v)
}

// WSMessage is pushed to websocket clients.
type WSMessage struct {
	Type    string             `json:"type"` // state, diag, ack, error
	State   *orientation.State `json:"state,omitempty"`
	Diag    *diag.Report       `json:"diag,omitempty"`
	Message string             `json:"message,omitempty"`
}

func newWebState(send func(orientation.Command) error, log *zap.SugaredLogger) *webState {
	return &webState{
		send:    send,
		log:     log,
		clients: make(map[*wsClient]struct{}),
	}
}

func (ws *webState) setPose(p orientation.Pose) {
	ws.mu.Lock()
	ws.pose = p
	ws.havePose = true
	ws.mu.Unlock()
}

func (ws *webState) setState(s orientation.State) {
	ws.mu.Lock()
	ws.state = s
	ws.haveState = true
	ws.mu.Unlock()
	ws.broadcast(WSMessage{Type: "state", State: &s})
}

func (ws *webState) setDiag(r diag.Report) {
	ws.mu.Lock()
	ws.report = r
	ws.haveDiag = true
	ws.mu.Unlock()
	ws.broadcast(WSMessage{Type: "diag", Diag: &r})
}

func (ws *webState) setExport(b []byte) {
	ws.mu.Lock()
	ws.export = append([]byte(nil), b...)
	ws.mu.Unlock()
}

func (ws *webState) broadcast(m WSMessage) {
	ws.clientsMu.Lock()
	clients := make([]*wsClient, 0, len(ws.clients))
	for c := range ws.clients {
		clients = append(clients, c)
	}
	ws.clientsMu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(m); err != nil {
			ws.log.Debugf("web: websocket write error: %v", err)
		}
	}
}

func (ws *webState) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orientation", ws.handleOrientation)
	mux.HandleFunc("GET /api/state", ws.handleState)
	mux.HandleFunc("GET /api/diag", ws.handleDiag)
	mux.HandleFunc("GET /api/history", ws.handleHistory)
	mux.HandleFunc("POST /api/reposition", ws.handleCommand(orientation.ActionReposition))
	mux.HandleFunc("POST /api/bias", ws.handleBias)
	mux.HandleFunc("POST /api/export", ws.handleCommand(orientation.ActionExport))
	mux.HandleFunc("GET /ws", ws.handleWS)
	static := http.FileServer(http.Dir("web"))
	mux.Handle("GET /{$}", static)
	mux.Handle("GET /static/", http.StripPrefix("/static/", static))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (ws *webState) handleOrientation(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if !ws.havePose {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, ws.pose)
}

func (ws *webState) handleState(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if !ws.haveState {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, ws.state)
}

func (ws *webState) handleDiag(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if !ws.haveDiag {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, ws.report)
}

func (ws *webState) handleHistory(w http.ResponseWriter, r *http.Request) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.export == nil {
		http.Error(w, "no export yet, POST /api/export first", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ahrs_history.csv"`)
	w.Write(ws.export)
}

func (ws *webState) relay(cmd orientation.Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := ws.send(cmd); err != nil {
		return fmt.Errorf("relay %s: %w", cmd.Action, err)
	}
	ws.log.Infof("web: relayed command %q", cmd.Action)
	return nil
}

func (ws *webState) handleCommand(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ws.relay(orientation.Command{Action: action}); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent", "action": action})
	}
}

// handleBias accepts an optional {"x":..,"y":..,"z":..} body in rad/s. An
// empty body zeroes the gyro at its current reading.
func (ws *webState) handleBias(w http.ResponseWriter, r *http.Request) {
	cmd := orientation.Command{Action: orientation.ActionSetBias}

	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(body) > 0 {
		var v orientation.Vec
		if err := json.Unmarshal(body, &v); err != nil {
			http.Error(w, fmt.Sprintf("invalid bias: %v", err), http.StatusBadRequest)
			return
		}
		cmd.Bias = &v
	}

	if err := ws.relay(cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent", "action": cmd.Action})
}

// handleWS streams state and diag messages and accepts commands.
func (ws *webState) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Warnf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn}
	ws.clientsMu.Lock()
	ws.clients[c] = struct{}{}
	ws.clientsMu.Unlock()
	defer func() {
		ws.clientsMu.Lock()
		delete(ws.clients, c)
		ws.clientsMu.Unlock()
	}()

	ws.mu.RLock()
	if ws.haveState {
		s := ws.state
		c.writeJSON(WSMessage{Type: "state", State: &s})
	}
	ws.mu.RUnlock()

	for {
		var cmd orientation.Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Warnf("web: websocket read error: %v", err)
			}
			return
		}
		if err := ws.relay(cmd); err != nil {
			c.writeJSON(WSMessage{Type: "error", Message: err.Error()})
			continue
		}
		c.writeJSON(WSMessage{Type: "ack", Message: cmd.Action})
	}
}

// RunWeb serves the HTTP API and websocket stream backed by MQTT until ctx
// is done.
func RunWeb(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	client, err := connectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Infof("web: connected to MQTT broker at %s", cfg.MQTT.Broker)

	ws := newWebState(func(cmd orientation.Command) error {
		return publishJSON(client, cfg.Topics.Command, false, cmd)
	}, log)

	onErr := func(err error) { log.Warnf("web: %v", err) }
	if err := subscribeJSON(client, cfg.Topics.Pose, ws.setPose, onErr); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.Topics.State, ws.setState, onErr); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.Topics.Diag, ws.setDiag, onErr); err != nil {
		return err
	}
	token := client.Subscribe(cfg.Topics.Export, 1, func(_ mqtt.Client, msg mqtt.Message) {
		ws.setExport(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Infof("web: subscribed to %s, %s, %s, %s",
		cfg.Topics.Pose, cfg.Topics.State, cfg.Topics.Diag, cfg.Topics.Export)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
		Handler: ws.handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("web: server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
