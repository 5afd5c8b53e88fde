package game

import (
	"time"
)

// RandSource 抽象随机源，*rand.Rand（math/rand/v2）天然满足，
// 测试中用固定序列替换以获得确定性
type RandSource interface {
	Float64() float64
	IntN(n int) int
}

// 模拟引擎：全部为纯函数，输入快照不被修改，
// 返回新的 SystemState 快照

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}

	return v
}

// ApplyDecay 执行一个模拟秒的衰减
func ApplyDecay(state SystemState) SystemState {
	next := state.Clone()

	next.GlobalPower -= 0.05
	next.GlobalPanic += 0.1

	for i := range next.Sectors {
		sector := &next.Sectors[i]

		// 低完整度扇区额外消耗供电
		if sector.StructuralIntegrity < 50 {
			next.GlobalPower -= 0.02
		}

		// 有危害的扇区持续受损并推高恐慌
		if sector.HazardLevel > 0 {
			sector.StructuralIntegrity = clampPct(sector.StructuralIntegrity - 0.1)
			next.GlobalPanic += 0.05
		}
	}

	next.GlobalPower = clampPct(next.GlobalPower)
	next.GlobalPanic = clampPct(next.GlobalPanic)

	return next
}

// RollEvent 以 min(1, 0.05+0.02*round) 的概率生成一次灾害，
// 未命中时返回 nil
func RollEvent(round int, sectors []SectorState, rng RandSource) *GameEvent {
	probability := 0.05 + 0.02*float64(round)
	if probability > 1 {
		probability = 1
	}

	if rng.Float64() >= probability {
		return nil
	}

	template := DisasterTemplates[rng.IntN(len(DisasterTemplates))]

	// 优先在匹配类别的扇区中均匀抽取，没有匹配时回退到全部扇区
	candidates := make([]SectorState, 0, len(sectors))
	if template.Category != "" {
		for _, s := range sectors {
			if s.Category == template.Category {
				candidates = append(candidates, s)
			}
		}
	}

	if len(candidates) == 0 {
		candidates = sectors
	}

	if len(candidates) == 0 {
		return nil
	}

	target := candidates[rng.IntN(len(candidates))]

	return &GameEvent{
		ID:             GenID(),
		Title:          template.Title,
		Description:    template.Description,
		Severity:       template.Severity,
		TargetSectorID: target.ID,
		Timestamp:      time.Now().UnixMilli(),
	}
}

// ApplyEventImpact 将灾害作用到目标扇区
func ApplyEventImpact(state SystemState, event GameEvent) SystemState {
	next := state.Clone()

	for i := range next.Sectors {
		sector := &next.Sectors[i]
		if sector.ID != event.TargetSectorID {
			continue
		}

		sector.ActiveEventID = event.ID

		if event.Severity == SEVERITY_CRITICAL {
			sector.StructuralIntegrity = clampPct(sector.StructuralIntegrity - 20)
			sector.HazardLevel = clampPct(sector.HazardLevel + 30)
		} else {
			sector.StructuralIntegrity = clampPct(sector.StructuralIntegrity - 10)
			sector.HazardLevel = clampPct(sector.HazardLevel + 15)
		}

		break
	}

	next.GlobalPanic = clampPct(next.GlobalPanic + 5)

	return next
}

// ApplyAction 结算一次行动；未知的行动 ID 按无效果处理（消耗照常扣除），
// 这是刻意的兜底，避免过期提交打断 tick 循环
func ApplyAction(state SystemState, action Action, targetSectorID string) SystemState {
	next := state.Clone()

	if action.Cost != nil {
		switch action.Cost.Resource {
		case RESOURCE_POWER:
			next.GlobalPower -= action.Cost.Amount
		case RESOURCE_NETWORK:
			next.GlobalNetwork -= action.Cost.Amount
		}
	}

	switch action.TargetKind {
	case TARGET_GLOBAL:
		applyGlobalEffect(&next, action.ID)
	case TARGET_SECTOR:
		applySectorEffect(&next, action.ID, targetSectorID)
	}

	next.GlobalPanic = clampPct(next.GlobalPanic)
	next.GlobalPower = clampPct(next.GlobalPower)
	next.GlobalNetwork = clampPct(next.GlobalNetwork)

	return next
}

func applyGlobalEffect(state *SystemState, actionID string) {
	switch actionID {
	case "cmd_lockdown":
		state.GlobalPanic -= 25
	case "cmd_rally":
		for i := range state.Sectors {
			state.Sectors[i].StructuralIntegrity = clampPct(state.Sectors[i].StructuralIntegrity + 5)
		}
	case "eng_overcharge":
		state.GlobalPower += 25
	case "com_broadcast":
		state.GlobalPanic -= 10
	case "com_reboot":
		state.GlobalNetwork = 100
	case "log_supply":
		state.GlobalPower += 5
	}
}

func applySectorEffect(state *SystemState, actionID string, targetSectorID string) {
	var sector *SectorState
	for i := range state.Sectors {
		if state.Sectors[i].ID == targetSectorID {
			sector = &state.Sectors[i]
			break
		}
	}

	if sector == nil {
		return
	}

	switch actionID {
	case "eng_reinforce":
		sector.StructuralIntegrity = clampPct(sector.StructuralIntegrity + 25)
	case "bio_cleanse":
		sector.HazardLevel = clampPct(sector.HazardLevel - 40)
	case "bio_quarantine":
		sector.HazardLevel = clampPct(sector.HazardLevel - 10)
		state.GlobalPanic += 5
	case "sec_suppress":
		state.GlobalPanic -= 5
	case "sec_sweep":
		sector.HazardLevel = clampPct(sector.HazardLevel - 15)
	case "log_reroute":
		sector.StructuralIntegrity = clampPct(sector.StructuralIntegrity + 5)
		sector.HazardLevel = clampPct(sector.HazardLevel - 5)
	}
}

// 终局原因，按判定优先级排列
const (
	REASON_SECTOR_COLLAPSE = "MULTIPLE SECTOR COLLAPSE"
	REASON_BLACKOUT        = "TOTAL BLACKOUT"
	REASON_RIOTS           = "COLONY RIOTS — COMMAND LOST"
)

type GameOverResult struct {
	IsOver bool   `json:"is_over"`
	Reason string `json:"reason,omitempty"`
}

// CheckGameOver 按固定顺序判定终局条件，首个命中的作为原因。
// 倒计时归零时同样用它来区分胜利和失败：未命中即胜利
func CheckGameOver(state SystemState) GameOverResult {
	collapsed := 0
	for _, sector := range state.Sectors {
		if sector.StructuralIntegrity <= 0 {
			collapsed++
		}
	}

	if collapsed >= 3 {
		return GameOverResult{IsOver: true, Reason: REASON_SECTOR_COLLAPSE}
	}

	if state.GlobalPower <= 0 {
		return GameOverResult{IsOver: true, Reason: REASON_BLACKOUT}
	}

	if state.GlobalPanic >= 100 {
		return GameOverResult{IsOver: true, Reason: REASON_RIOTS}
	}

	return GameOverResult{}
}
