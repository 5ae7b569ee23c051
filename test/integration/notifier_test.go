//go:build integration

package integration

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestEmailAlert_DownThenRecovery(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.BaseURL+"/healthz", 90*time.Second)
	MailhogPurge(t, cfg.MailhogAPI)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	suffix := RandID()
	name := fmt.Sprintf("it-mail-%d", suffix)
	id := SeedServer(t, db, name, "tcp", cfg.ProbeHost, cfg.DeadPort, "/", 1)
	SeedEmailConfig(t, db, id, fmt.Sprintf("ops-%d@example.com", suffix), 0)

	TriggerCycle(t, cfg, id)

	rep := WaitMailhogCount(t, cfg.MailhogAPI, 1, 25*time.Second)
	subjects := MailhogSubjects(rep)
	if len(subjects) == 0 {
		t.Fatalf("[mailhog] no alert mail")
	}
	if !strings.Contains(subjects[0], "ALERT") || !strings.Contains(subjects[0], name) {
		t.Fatalf("[mailhog] bad alert subject: %q", subjects[0])
	}
	WaitServerStatus(t, db, id, "down", 10*time.Second)

	SetServerEndpoint(t, db, id, cfg.ProbeHost, cfg.ProbePort)
	TriggerCycle(t, cfg, id)

	rep = WaitMailhogCount(t, cfg.MailhogAPI, 2, 25*time.Second)
	subjects = MailhogSubjects(rep)
	if len(subjects) < 2 {
		t.Fatalf("[mailhog] want 2 mails, got %d: %v", len(subjects), subjects)
	}
	recovered := false
	for _, s := range subjects {
		if strings.Contains(s, "RECOVERED") && strings.Contains(s, name) {
			recovered = true
		}
	}
	if !recovered {
		t.Fatalf("[mailhog] no recovery mail among %v", subjects)
	}
	WaitServerStatus(t, db, id, "up", 10*time.Second)
}

func TestEmailAlert_CooldownSwallowsQuickRecovery(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.BaseURL+"/healthz", 90*time.Second)
	MailhogPurge(t, cfg.MailhogAPI)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	suffix := RandID()
	name := fmt.Sprintf("it-cooldown-%d", suffix)
	id := SeedServer(t, db, name, "tcp", cfg.ProbeHost, cfg.DeadPort, "/", 1)
	SeedEmailConfig(t, db, id, fmt.Sprintf("ops-cd-%d@example.com", suffix), 3600)

	TriggerCycle(t, cfg, id)
	WaitMailhogCount(t, cfg.MailhogAPI, 1, 25*time.Second)

	// The recovery lands seconds after the alert, well inside the
	// one-hour per-recipient window.
	SetServerEndpoint(t, db, id, cfg.ProbeHost, cfg.ProbePort)
	TriggerCycle(t, cfg, id)
	WaitServerStatus(t, db, id, "up", 10*time.Second)

	ExpectMailhogSteady(t, cfg.MailhogAPI, 1, 5*time.Second)
}

func TestEmailAlert_SteadyFailureStaysSilent(t *testing.T) {
	cfg := LoadCfg()
	WaitHealthz(t, cfg.BaseURL+"/healthz", 90*time.Second)
	MailhogPurge(t, cfg.MailhogAPI)

	db := DBOpen(t, cfg.DBDSN)
	defer db.Close()

	suffix := RandID()
	name := fmt.Sprintf("it-steady-%d", suffix)
	id := SeedServer(t, db, name, "tcp", cfg.ProbeHost, cfg.DeadPort, "/", 1)
	SeedEmailConfig(t, db, id, fmt.Sprintf("ops-st-%d@example.com", suffix), 0)

	TriggerCycle(t, cfg, id)
	WaitMailhogCount(t, cfg.MailhogAPI, 1, 25*time.Second)

	// Still down on the next cycles; the state does not change, so no
	// further mail goes out even with a zero cooldown.
	TriggerCycle(t, cfg, id)
	TriggerCycle(t, cfg, id)

	ExpectMailhogSteady(t, cfg.MailhogAPI, 1, 5*time.Second)
}
