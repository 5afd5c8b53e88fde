package game

import (
	"testing"
)

// scriptedRand 按预设序列返回随机值，耗尽后回落到默认值，
// 用于让掷骰结果可预测
type scriptedRand struct {
	floats []float64
	ints   []int
	fi     int
	ii     int
}

func (s *scriptedRand) Float64() float64 {
	if s.fi < len(s.floats) {
		v := s.floats[s.fi]
		s.fi++
		return v
	}

	return 0.999
}

func (s *scriptedRand) IntN(n int) int {
	if s.ii < len(s.ints) {
		v := s.ints[s.ii] % n
		s.ii++
		return v
	}

	return 0
}

func TestApplyDecay_BaselineDrift(t *testing.T) {
	state := NewSystemState()

	next := ApplyDecay(state)

	if next.GlobalPower != 99.95 {
		t.Fatalf("global power want 99.95 got %v", next.GlobalPower)
	}

	if next.GlobalPanic != 0.1 {
		t.Fatalf("global panic want 0.1 got %v", next.GlobalPanic)
	}

	// 健康扇区（完整度 100、无危害）不应被衰减触碰
	for _, s := range next.Sectors {
		if s.StructuralIntegrity != 100 || s.HazardLevel != 0 {
			t.Fatalf("healthy sector mutated: %+v", s)
		}
	}

	// 输入快照必须保持原样
	if state.GlobalPower != 100 || state.GlobalPanic != 0 {
		t.Fatalf("input snapshot mutated: power=%v panic=%v", state.GlobalPower, state.GlobalPanic)
	}
}

func TestApplyDecay_HazardousSector(t *testing.T) {
	state := NewSystemState()
	state.Sectors[0].HazardLevel = 40
	state.Sectors[0].StructuralIntegrity = 30

	next := ApplyDecay(state)

	if next.Sectors[0].StructuralIntegrity != 29.9 {
		t.Fatalf("sector integrity want 29.9 got %v", next.Sectors[0].StructuralIntegrity)
	}

	// 0.1 基础 + 0.05 危害扇区
	if next.GlobalPanic != 0.15 {
		t.Fatalf("global panic want 0.15 got %v", next.GlobalPanic)
	}

	// 0.05 基础 + 0.02 低完整度扇区
	wantPower := 100 - 0.05 - 0.02
	if next.GlobalPower != wantPower {
		t.Fatalf("global power want %v got %v", wantPower, next.GlobalPower)
	}
}

func TestApplyDecay_ClampsAtBounds(t *testing.T) {
	state := NewSystemState()
	state.GlobalPower = 0.01
	state.GlobalPanic = 99.99
	for i := range state.Sectors {
		state.Sectors[i].HazardLevel = 100
		state.Sectors[i].StructuralIntegrity = 0.05
	}

	next := ApplyDecay(state)

	if next.GlobalPower != 0 {
		t.Fatalf("global power should clamp to 0, got %v", next.GlobalPower)
	}

	if next.GlobalPanic != 100 {
		t.Fatalf("global panic should clamp to 100, got %v", next.GlobalPanic)
	}

	for _, s := range next.Sectors {
		if s.StructuralIntegrity < 0 {
			t.Fatalf("sector integrity below 0: %v", s.StructuralIntegrity)
		}
	}
}

func TestRollEvent_NoFire(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.99}}

	// round=1 时概率是 0.07，0.99 不命中
	if event := RollEvent(1, NewSectors(), rng); event != nil {
		t.Fatalf("event should not fire, got %+v", event)
	}
}

func TestRollEvent_MatchesTemplateCategory(t *testing.T) {
	// 命中掷骰，模板取索引 3（网络入侵），目标在匹配类别中取索引 0
	rng := &scriptedRand{floats: []float64{0.01}, ints: []int{3, 0}}

	sectors := NewSectors()

	event := RollEvent(1, sectors, rng)
	if event == nil {
		t.Fatal("event should fire")
	}

	if event.Severity != SEVERITY_MEDIUM {
		t.Fatalf("severity want Medium got %s", event.Severity)
	}

	var target *SectorState
	for i := range sectors {
		if sectors[i].ID == event.TargetSectorID {
			target = &sectors[i]
		}
	}

	if target == nil {
		t.Fatalf("target sector %s not found", event.TargetSectorID)
	}

	if target.Category != CATEGORY_NETWORK {
		t.Fatalf("target category want network got %s", target.Category)
	}
}

func TestRollEvent_ProbabilityRampsWithRound(t *testing.T) {
	// round=48 时 0.05+0.02*48 > 1，任何掷骰都命中
	rng := &scriptedRand{floats: []float64{0.9999}}

	if event := RollEvent(48, NewSectors(), rng); event == nil {
		t.Fatal("event should always fire at high rounds")
	}
}

func TestApplyEventImpact_Critical(t *testing.T) {
	state := NewSystemState()
	target := state.Sectors[0]

	event := GameEvent{
		ID:             "ev_test",
		Severity:       SEVERITY_CRITICAL,
		TargetSectorID: target.ID,
	}

	next := ApplyEventImpact(state, event)

	if next.Sectors[0].StructuralIntegrity != 80 {
		t.Fatalf("integrity want 80 got %v", next.Sectors[0].StructuralIntegrity)
	}

	if next.Sectors[0].HazardLevel != 30 {
		t.Fatalf("hazard want 30 got %v", next.Sectors[0].HazardLevel)
	}

	if next.Sectors[0].ActiveEventID != "ev_test" {
		t.Fatalf("active event id not set: %q", next.Sectors[0].ActiveEventID)
	}

	if next.GlobalPanic != 5 {
		t.Fatalf("global panic want 5 got %v", next.GlobalPanic)
	}

	// 其余扇区不受影响
	if next.Sectors[1].StructuralIntegrity != 100 {
		t.Fatalf("unrelated sector mutated: %+v", next.Sectors[1])
	}
}

func TestApplyEventImpact_NonCritical(t *testing.T) {
	state := NewSystemState()

	event := GameEvent{
		ID:             "ev_test",
		Severity:       SEVERITY_LOW,
		TargetSectorID: state.Sectors[2].ID,
	}

	next := ApplyEventImpact(state, event)

	if next.Sectors[2].StructuralIntegrity != 90 {
		t.Fatalf("integrity want 90 got %v", next.Sectors[2].StructuralIntegrity)
	}

	if next.Sectors[2].HazardLevel != 15 {
		t.Fatalf("hazard want 15 got %v", next.Sectors[2].HazardLevel)
	}
}

func TestApplyAction_Lockdown(t *testing.T) {
	state := NewSystemState()
	state.GlobalPanic = 50
	state.GlobalPower = 100

	action := ActionByID("cmd_lockdown")
	if action == nil {
		t.Fatal("cmd_lockdown missing from catalog")
	}

	next := ApplyAction(state, *action, "")

	if next.GlobalPanic != 25 {
		t.Fatalf("global panic want 25 got %v", next.GlobalPanic)
	}

	if next.GlobalPower != 80 {
		t.Fatalf("global power want 80 got %v", next.GlobalPower)
	}
}

func TestApplyAction_SectorEffects(t *testing.T) {
	state := NewSystemState()
	state.Sectors[0].StructuralIntegrity = 60
	state.Sectors[0].HazardLevel = 50
	targetID := state.Sectors[0].ID

	reinforce := ActionByID("eng_reinforce")
	next := ApplyAction(state, *reinforce, targetID)

	if next.Sectors[0].StructuralIntegrity != 85 {
		t.Fatalf("reinforce integrity want 85 got %v", next.Sectors[0].StructuralIntegrity)
	}

	cleanse := ActionByID("bio_cleanse")
	next = ApplyAction(next, *cleanse, targetID)

	if next.Sectors[0].HazardLevel != 10 {
		t.Fatalf("cleanse hazard want 10 got %v", next.Sectors[0].HazardLevel)
	}

	quarantine := ActionByID("bio_quarantine")
	panicBefore := next.GlobalPanic
	next = ApplyAction(next, *quarantine, targetID)

	if next.Sectors[0].HazardLevel != 0 {
		t.Fatalf("quarantine hazard want 0 got %v", next.Sectors[0].HazardLevel)
	}

	if next.GlobalPanic != clampPct(panicBefore+5) {
		t.Fatalf("quarantine should raise panic by 5, got %v", next.GlobalPanic)
	}
}

func TestApplyAction_RallyCapsAtHundred(t *testing.T) {
	state := NewSystemState()
	state.Sectors[0].StructuralIntegrity = 98

	rally := ActionByID("cmd_rally")
	next := ApplyAction(state, *rally, "")

	for _, s := range next.Sectors {
		if s.StructuralIntegrity > 100 {
			t.Fatalf("integrity exceeded 100: %v", s.StructuralIntegrity)
		}
	}

	if next.Sectors[0].StructuralIntegrity != 100 {
		t.Fatalf("integrity want 100 got %v", next.Sectors[0].StructuralIntegrity)
	}
}

func TestApplyAction_NetworkReboot(t *testing.T) {
	state := NewSystemState()
	state.GlobalNetwork = 12

	reboot := ActionByID("com_reboot")
	next := ApplyAction(state, *reboot, "")

	if next.GlobalNetwork != 100 {
		t.Fatalf("network want 100 got %v", next.GlobalNetwork)
	}

	// 重启消耗 15 点供电
	if next.GlobalPower != 85 {
		t.Fatalf("power want 85 got %v", next.GlobalPower)
	}
}

func TestApplyAction_UnknownIDIsNoop(t *testing.T) {
	state := NewSystemState()
	state.GlobalPanic = 40

	// 未知 ID：效果为空，但消耗照常扣除
	unknown := Action{
		ID:         "does_not_exist",
		TargetKind: TARGET_GLOBAL,
		Cost:       &ActionCost{Resource: RESOURCE_POWER, Amount: 10},
	}

	next := ApplyAction(state, unknown, "")

	if next.GlobalPanic != 40 {
		t.Fatalf("unknown action should not change panic, got %v", next.GlobalPanic)
	}

	if next.GlobalPower != 90 {
		t.Fatalf("cost should still apply, power got %v", next.GlobalPower)
	}
}

func TestCheckGameOver_NotOver(t *testing.T) {
	result := CheckGameOver(NewSystemState())

	if result.IsOver {
		t.Fatalf("fresh state should not be over: %+v", result)
	}
}

func TestCheckGameOver_Precedence(t *testing.T) {
	// 3 个扇区坍塌且供电归零时，必须报告坍塌（首个命中优先）
	state := NewSystemState()
	state.GlobalPower = 0
	state.Sectors[0].StructuralIntegrity = 0
	state.Sectors[1].StructuralIntegrity = 0
	state.Sectors[2].StructuralIntegrity = 0

	result := CheckGameOver(state)

	if !result.IsOver {
		t.Fatal("state should be over")
	}

	if result.Reason != REASON_SECTOR_COLLAPSE {
		t.Fatalf("reason want %q got %q", REASON_SECTOR_COLLAPSE, result.Reason)
	}
}

func TestCheckGameOver_BlackoutAndRiots(t *testing.T) {
	state := NewSystemState()
	state.GlobalPower = 0

	if result := CheckGameOver(state); result.Reason != REASON_BLACKOUT {
		t.Fatalf("reason want %q got %q", REASON_BLACKOUT, result.Reason)
	}

	state = NewSystemState()
	state.GlobalPanic = 100

	if result := CheckGameOver(state); result.Reason != REASON_RIOTS {
		t.Fatalf("reason want %q got %q", REASON_RIOTS, result.Reason)
	}
}

func TestCheckGameOver_IsPure(t *testing.T) {
	state := NewSystemState()
	state.GlobalPower = 0

	first := CheckGameOver(state)
	second := CheckGameOver(state)

	if first != second {
		t.Fatalf("same state yielded different results: %+v vs %+v", first, second)
	}
}

func TestPercentagesStayInRange(t *testing.T) {
	// 任意顺序的衰减/事件/行动操作后，所有百分比字段都应在 [0,100] 内
	state := NewSystemState()
	rng := &scriptedRand{floats: []float64{0}, ints: []int{0, 0}}

	for i := 0; i < 200; i++ {
		state = ApplyDecay(state)

		if event := RollEvent(i, state.Sectors, rng); event != nil {
			state = ApplyEventImpact(state, *event)
		}

		for _, action := range ActionCatalog {
			target := ""
			if action.TargetKind == TARGET_SECTOR {
				target = state.Sectors[i%len(state.Sectors)].ID
			}
			state = ApplyAction(state, action, target)
		}

		assertInRange(t, "panic", state.GlobalPanic)
		assertInRange(t, "power", state.GlobalPower)
		assertInRange(t, "network", state.GlobalNetwork)

		for _, s := range state.Sectors {
			assertInRange(t, "integrity", s.StructuralIntegrity)
			assertInRange(t, "hazard", s.HazardLevel)
		}
	}
}

func assertInRange(t *testing.T, field string, v float64) {
	t.Helper()

	if v < 0 || v > 100 {
		t.Fatalf("%s out of range: %v", field, v)
	}
}
