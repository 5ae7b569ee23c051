//go:build integration

package integration

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStream_SnapshotFrames(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.BaseURL+"/healthz", 90*time.Second)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	name := fmt.Sprintf("it-sse-%d", RandID())
	id := SeedServer(t, db, name, "http", cfg.ProbeHost, cfg.ProbePort, "/healthz", 3)
	TriggerCycle(t, cfg, id)

	target := fmt.Sprintf("%s/api/v1/stream/status?server_id=%d", cfg.BaseURL, id)
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+BearerToken(t, cfg.AuthSecret))
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("[sse] get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("[sse] status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("[sse] content type %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	var sawRetry, sawStatus, sawPing bool
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "retry:"):
			sawRetry = true
		case line == "event: status":
			sawStatus = true
		case line == "event: ping":
			sawPing = true
		}
		if strings.HasPrefix(line, ": heartbeat") {
			break
		}
	}
	if !sawRetry || !sawStatus || !sawPing {
		t.Fatalf("[sse] framing: retry=%v status=%v ping=%v", sawRetry, sawStatus, sawPing)
	}
}

func TestStream_RejectsAnonymous(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.BaseURL+"/healthz", 90*time.Second)
	HTTPDo(t, http.MethodGet, cfg.BaseURL+"/api/v1/stream/status", nil, nil, http.StatusUnauthorized)
}

func TestWS_SubscribeReceivesCycleUpdates(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.BaseURL+"/healthz", 90*time.Second)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	name := fmt.Sprintf("it-ws-%d", RandID())
	id := SeedServer(t, db, name, "http", cfg.ProbeHost, cfg.ProbePort, "/healthz", 3)

	wsURL := strings.Replace(cfg.BaseURL, "http://", "ws://", 1) +
		"/ws/status?token=" + url.QueryEscape(BearerToken(t, cfg.AuthSecret))
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("[ws] dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(15 * time.Second))

	if err := conn.WriteJSON(map[string]any{"action": "latest"}); err != nil {
		t.Fatalf("[ws] send latest: %v", err)
	}
	var snap struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&snap); err != nil || snap.Type != "latest" {
		t.Fatalf("[ws] latest: err=%v type=%q", err, snap.Type)
	}

	if err := conn.WriteJSON(map[string]any{"action": "subscribe", "server_ids": []int64{id}}); err != nil {
		t.Fatalf("[ws] send subscribe: %v", err)
	}
	var ack struct {
		Type    string  `json:"type"`
		Servers []int64 `json:"servers"`
	}
	if err := conn.ReadJSON(&ack); err != nil || ack.Type != "subscribed" {
		t.Fatalf("[ws] subscribe ack: err=%v type=%q", err, ack.Type)
	}
	if len(ack.Servers) != 1 || ack.Servers[0] != id {
		t.Fatalf("[ws] subscribed to %v, want [%d]", ack.Servers, id)
	}

	TriggerCycle(t, cfg, id)

	var upd struct {
		Type   string `json:"type"`
		Status struct {
			ServerID int64  `json:"server"`
			Status   string `json:"status"`
		} `json:"status"`
	}
	if err := conn.ReadJSON(&upd); err != nil {
		t.Fatalf("[ws] update: %v", err)
	}
	if upd.Type != "update" || upd.Status.ServerID != id {
		t.Fatalf("[ws] unexpected update: %+v", upd)
	}
}
