package client

import (
	"testing"
	"time"

	"gridfall-be/internal/service/game"
	"gridfall-be/internal/transport"
)

func startMachine(t *testing.T, lobbyCode string) *transport.Registry {
	t.Helper()

	registry := transport.NewRegistry()

	doneCh := make(chan struct{})
	machine := game.NewSessionMachine(lobbyCode, doneCh)

	if err := registry.Bind(lobbyCode, machine.GetReqCh()); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	go machine.Start()

	t.Cleanup(func() {
		select {
		case <-doneCh:
		default:
			close(doneCh)
		}
	})

	return registry
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal(msg)
}

func TestConnect_JoinsRosterAndBecomesAuthority(t *testing.T) {
	registry := startMachine(t, "lobby001")

	c := NewClient(registry, "Host")
	defer c.Disconnect()

	if err := c.Connect("lobby001"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	status, _ := c.Status()
	if status != STATUS_CONNECTED {
		t.Fatalf("status want Connected got %s", status)
	}

	waitFor(t, 2*time.Second, func() bool {
		return c.AuthorityID() == c.PlayerID
	}, "first joiner should be reported as the authority")

	players := c.Players()
	if len(players) != 1 || players[0].ID != c.PlayerID {
		t.Fatalf("replica roster want self only, got %+v", players)
	}
}

func TestConnect_UnknownCodeFails(t *testing.T) {
	registry := transport.NewRegistry()

	c := NewClient(registry, "Lost")

	if err := c.Connect("no-such-lobby"); err == nil {
		t.Fatal("dialing an unknown code should fail")
	}

	status, errText := c.Status()
	if status != STATUS_ERROR {
		t.Fatalf("status want Error got %s", status)
	}

	if errText == "" {
		t.Fatal("error status should carry a readable message")
	}
}

func TestRegistry_CodeCollisionRejected(t *testing.T) {
	registry := startMachine(t, "lobby002")

	err := registry.Bind("lobby002", make(chan game.RequestWrapper))
	if err != transport.ErrCodeTaken {
		t.Fatalf("want ErrCodeTaken got %v", err)
	}
}

func TestFullFlow_BotsAndStart(t *testing.T) {
	registry := startMachine(t, "lobby003")

	c := NewClient(registry, "Host")
	defer c.Disconnect()

	if err := c.Connect("lobby003"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := c.AddBot(); err != nil {
			t.Fatalf("add bot failed: %v", err)
		}
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(c.Players()) == 4
	}, "replica roster should converge to 4 members")

	if err := c.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return c.Session().Phase == game.PHASE_PLAYING
	}, "replica should observe the Playing phase")

	session := c.Session()

	if session.TimeRemaining <= 0 || session.TimeRemaining > game.GAME_DURATION_SECONDS {
		t.Fatalf("time remaining out of range: %d", session.TimeRemaining)
	}

	if len(session.System.Sectors) == 0 {
		t.Fatal("replica snapshot should carry the sector grid")
	}

	for _, p := range c.Players() {
		if p.Role == game.ROLE_UNSET {
			t.Fatalf("player %s unassigned after start", p.ID)
		}
	}
}

func TestSubmitAction_LocalCooldownGate(t *testing.T) {
	registry := startMachine(t, "lobby004")

	c := NewClient(registry, "Host")
	defer c.Disconnect()

	if err := c.Connect("lobby004"); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if err := c.SubmitAction("cmd_lockdown", ""); err != nil {
		t.Fatalf("first submission should pass the local gate: %v", err)
	}

	if err := c.SubmitAction("cmd_lockdown", ""); err == nil {
		t.Fatal("second submission should be blocked by the local cooldown")
	}

	if c.Cooldown("cmd_lockdown") <= 0 {
		t.Fatal("cooldown should be ticking after submission")
	}
}

func TestHandleResp_StaleBroadcastDropped(t *testing.T) {
	c := NewClient(transport.NewRegistry(), "Replica")

	fresh := game.NewGameSession("lobby005")
	fresh.Round = 10

	c.handleResp(game.ResponseWrapper{
		RespType: game.RESP_GAME_TICK,
		Seq:      7,
		Data:     game.GameTickResponse{Session: fresh.Clone()},
	})

	if c.Session().Round != 10 {
		t.Fatalf("fresh broadcast should replace the replica, round got %d", c.Session().Round)
	}

	stale := game.NewGameSession("lobby005")
	stale.Round = 3

	c.handleResp(game.ResponseWrapper{
		RespType: game.RESP_GAME_TICK,
		Seq:      5,
		Data:     game.GameTickResponse{Session: stale.Clone()},
	})

	if c.Session().Round != 10 {
		t.Fatalf("stale broadcast must be dropped, round got %d", c.Session().Round)
	}

	newer := game.NewGameSession("lobby005")
	newer.Round = 11

	c.handleResp(game.ResponseWrapper{
		RespType: game.RESP_GAME_TICK,
		Seq:      8,
		Data:     game.GameTickResponse{Session: newer.Clone()},
	})

	if c.Session().Round != 11 {
		t.Fatalf("newer broadcast should replace the replica, round got %d", c.Session().Round)
	}
}

func TestHandleResp_ErrorIsControlMessage(t *testing.T) {
	c := NewClient(transport.NewRegistry(), "Replica")

	fresh := game.NewGameSession("lobby006")
	fresh.Round = 4

	c.handleResp(game.ResponseWrapper{
		RespType: game.RESP_GAME_TICK,
		Seq:      2,
		Data:     game.GameTickResponse{Session: fresh.Clone()},
	})

	c.handleResp(game.ResponseWrapper{
		RespType: game.RESP_ERROR,
		ErrMsg:   "行动冷却中",
	})

	if c.Session().Round != 4 {
		t.Fatalf("error envelope must not touch the replica, round got %d", c.Session().Round)
	}

	_, errText := c.Status()
	if errText != "行动冷却中" {
		t.Fatalf("error text want recorded, got %q", errText)
	}
}
