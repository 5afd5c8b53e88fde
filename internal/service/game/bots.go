package game

// BotIntent 是自动玩家在一个 tick 内产生的行动意图
type BotIntent struct {
	ActionID       string
	TargetSectorID string
}

// BotPolicy 是可插拔的自动玩家策略，每个自动玩家每 tick 调用一次，
// 返回 nil 表示本 tick 不行动
type BotPolicy func(player *Player, session GameSession, rng RandSource) *BotIntent

// DefaultBotPolicy 以 0.1 的概率从自身角色的行动中均匀抽取一个，
// 扇区行动再均匀抽取一个目标扇区
func DefaultBotPolicy(player *Player, session GameSession, rng RandSource) *BotIntent {
	if rng.Float64() >= 0.1 {
		return nil
	}

	actions := ActionsForRole(player.Role)
	if len(actions) == 0 {
		return nil
	}

	action := actions[rng.IntN(len(actions))]

	intent := &BotIntent{ActionID: action.ID}

	if action.TargetKind == TARGET_SECTOR {
		if len(session.System.Sectors) == 0 {
			return nil
		}

		target := session.System.Sectors[rng.IntN(len(session.System.Sectors))]
		intent.TargetSectorID = target.ID
	}

	return intent
}

// ResolveTargetSector 在提交方没有指定目标时按角色启发式选定扇区：
// 工程师选完整度最低的，生防选危害最高的，其余取第一个；
// 同值时按扇区列表顺序裁决，保证结果确定
func ResolveTargetSector(role string, system SystemState) string {
	if len(system.Sectors) == 0 {
		return ""
	}

	switch role {
	case ROLE_ENGINEER:
		best := system.Sectors[0]
		for _, s := range system.Sectors[1:] {
			if s.StructuralIntegrity < best.StructuralIntegrity {
				best = s
			}
		}
		return best.ID

	case ROLE_BIOSEC:
		best := system.Sectors[0]
		for _, s := range system.Sectors[1:] {
			if s.HazardLevel > best.HazardLevel {
				best = s
			}
		}
		return best.ID

	default:
		return system.Sectors[0].ID
	}
}
