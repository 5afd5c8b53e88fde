package game

// AssignRoles 为名单中还没有角色的玩家补位分配角色，
// 按名单顺序处理：先补未被占用的核心角色，再补未被占用的支援角色，
// 全部占满后统一兜底为 Security（只有 Security 允许重复）。
// 已分配的角色不会被回收或重排，因此对同一名单重复执行是幂等的
func AssignRoles(players []*Player) {
	for _, p := range players {
		if p.Role != ROLE_UNSET && p.Role != "" {
			continue
		}

		p.Role = nextFreeRole(players)
	}
}

func nextFreeRole(players []*Player) string {
	held := make(map[string]bool, len(players))
	for _, p := range players {
		if p.Role != ROLE_UNSET && p.Role != "" {
			held[p.Role] = true
		}
	}

	for _, role := range EssentialRoles {
		if !held[role] {
			return role
		}
	}

	for _, role := range SupportRoles {
		if !held[role] {
			return role
		}
	}

	return ROLE_SECURITY
}
