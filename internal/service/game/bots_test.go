package game

import "testing"

func TestDefaultBotPolicy_NoFire(t *testing.T) {
	bot := &Player{ID: "bot1", Role: ROLE_SECURITY, IsAutomated: true}
	session := NewGameSession("test0001")

	rng := &scriptedRand{floats: []float64{0.5}}

	if intent := DefaultBotPolicy(bot, session, rng); intent != nil {
		t.Fatalf("roll above threshold should yield no intent, got %+v", intent)
	}
}

func TestDefaultBotPolicy_PicksRoleAction(t *testing.T) {
	bot := &Player{ID: "bot1", Role: ROLE_SECURITY, IsAutomated: true}
	session := NewGameSession("test0001")

	// 命中行动掷骰，取角色行动表第 1 项（sec_sweep），目标扇区取第 2 个
	rng := &scriptedRand{floats: []float64{0.05}, ints: []int{1, 2}}

	intent := DefaultBotPolicy(bot, session, rng)
	if intent == nil {
		t.Fatal("roll below threshold should yield an intent")
	}

	if intent.ActionID != "sec_sweep" {
		t.Fatalf("action want sec_sweep got %s", intent.ActionID)
	}

	if intent.TargetSectorID != session.System.Sectors[2].ID {
		t.Fatalf("target want %s got %s", session.System.Sectors[2].ID, intent.TargetSectorID)
	}
}

func TestDefaultBotPolicy_GlobalActionNeedsNoTarget(t *testing.T) {
	bot := &Player{ID: "bot1", Role: ROLE_COMMANDER, IsAutomated: true}
	session := NewGameSession("test0001")

	// cmd_lockdown 是全局行动，不应附带目标扇区
	rng := &scriptedRand{floats: []float64{0.05}, ints: []int{0}}

	intent := DefaultBotPolicy(bot, session, rng)
	if intent == nil {
		t.Fatal("roll below threshold should yield an intent")
	}

	if intent.ActionID != "cmd_lockdown" {
		t.Fatalf("action want cmd_lockdown got %s", intent.ActionID)
	}

	if intent.TargetSectorID != "" {
		t.Fatalf("global action must not carry a target, got %s", intent.TargetSectorID)
	}
}

func TestResolveTargetSector_EngineerPicksLowestIntegrity(t *testing.T) {
	system := NewSystemState()
	system.Sectors[3].StructuralIntegrity = 20
	system.Sectors[7].StructuralIntegrity = 60

	if got := ResolveTargetSector(ROLE_ENGINEER, system); got != system.Sectors[3].ID {
		t.Fatalf("engineer target want %s got %s", system.Sectors[3].ID, got)
	}
}

func TestResolveTargetSector_BioSecPicksHighestHazard(t *testing.T) {
	system := NewSystemState()
	system.Sectors[1].HazardLevel = 40
	system.Sectors[5].HazardLevel = 80

	if got := ResolveTargetSector(ROLE_BIOSEC, system); got != system.Sectors[5].ID {
		t.Fatalf("biosec target want %s got %s", system.Sectors[5].ID, got)
	}
}

func TestResolveTargetSector_TieKeepsListOrder(t *testing.T) {
	system := NewSystemState()

	// 全部同值，应稳定选第一个
	if got := ResolveTargetSector(ROLE_ENGINEER, system); got != system.Sectors[0].ID {
		t.Fatalf("tie should resolve to the first sector, got %s", got)
	}

	if got := ResolveTargetSector(ROLE_BIOSEC, system); got != system.Sectors[0].ID {
		t.Fatalf("tie should resolve to the first sector, got %s", got)
	}

	if got := ResolveTargetSector(ROLE_COMMS, system); got != system.Sectors[0].ID {
		t.Fatalf("default heuristic should take the first sector, got %s", got)
	}
}
