package game

import (
	"fmt"
	"testing"
)

func makeRoster(n int) []*Player {
	players := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, &Player{
			ID:   fmt.Sprintf("p%d", i+1),
			Name: fmt.Sprintf("Player %d", i+1),
			Role: ROLE_UNSET,
		})
	}

	return players
}

func TestAssignRoles_FillOrder(t *testing.T) {
	players := makeRoster(5)

	AssignRoles(players)

	want := []string{ROLE_COMMANDER, ROLE_ENGINEER, ROLE_BIOSEC, ROLE_COMMS, ROLE_SECURITY}

	for i, p := range players {
		if p.Role != want[i] {
			t.Fatalf("player %d role want %s got %s", i+1, want[i], p.Role)
		}
	}
}

func TestAssignRoles_SecurityFallbackDuplicates(t *testing.T) {
	// 6 人占满全部角色后，第 7、8 人兜底为 Security
	players := makeRoster(8)

	AssignRoles(players)

	if players[5].Role != ROLE_LOGISTICS {
		t.Fatalf("player 6 role want Logistics got %s", players[5].Role)
	}

	if players[6].Role != ROLE_SECURITY || players[7].Role != ROLE_SECURITY {
		t.Fatalf("overflow players should fall back to Security, got %s / %s",
			players[6].Role, players[7].Role)
	}
}

func TestAssignRoles_Idempotent(t *testing.T) {
	players := makeRoster(6)

	AssignRoles(players)

	before := make([]string, len(players))
	for i, p := range players {
		before[i] = p.Role
	}

	AssignRoles(players)

	for i, p := range players {
		if p.Role != before[i] {
			t.Fatalf("second run changed player %d role: %s -> %s", i+1, before[i], p.Role)
		}
	}
}

func TestAssignRoles_OnlyFillsGaps(t *testing.T) {
	players := makeRoster(3)

	// 玩家 2 已经持有 Commander，不应被改动；
	// 其余按顺序补空缺的核心角色
	players[1].Role = ROLE_COMMANDER

	AssignRoles(players)

	if players[1].Role != ROLE_COMMANDER {
		t.Fatalf("held role was reassigned: %s", players[1].Role)
	}

	if players[0].Role != ROLE_ENGINEER {
		t.Fatalf("player 1 role want Engineer got %s", players[0].Role)
	}

	if players[2].Role != ROLE_BIOSEC {
		t.Fatalf("player 3 role want BioSec got %s", players[2].Role)
	}
}
