package game

// 9 个固定扇区，会话生命周期内身份集合不变
func NewSectors() []SectorState {
	layout := []struct {
		id       string
		name     string
		category string
	}{
		{"sec_habitat_a", "居住区 A", CATEGORY_RESIDENTIAL},
		{"sec_habitat_b", "居住区 B", CATEGORY_RESIDENTIAL},
		{"sec_habitat_c", "居住区 C", CATEGORY_RESIDENTIAL},
		{"sec_foundry", "重工铸造区", CATEGORY_INDUSTRIAL},
		{"sec_refinery", "精炼厂区", CATEGORY_INDUSTRIAL},
		{"sec_medbay", "医疗中心", CATEGORY_MEDICAL},
		{"sec_command", "指挥塔", CATEGORY_COMMAND},
		{"sec_uplink", "通讯枢纽", CATEGORY_NETWORK},
		{"sec_reactor", "反应堆", CATEGORY_POWER},
	}

	sectors := make([]SectorState, 0, len(layout))
	for _, l := range layout {
		sectors = append(sectors, SectorState{
			ID:                  l.id,
			Name:                l.name,
			Category:            l.category,
			StructuralIntegrity: 100,
			HazardLevel:         0,
		})
	}

	return sectors
}

func NewSystemState() SystemState {
	return SystemState{
		GlobalPanic:   0,
		GlobalPower:   100,
		GlobalNetwork: 100,
		Sectors:       NewSectors(),
	}
}

func NewGameSession(lobbyCode string) GameSession {
	return GameSession{
		Phase:     PHASE_LOBBY,
		System:    NewSystemState(),
		Events:    make([]GameEvent, 0),
		LobbyCode: lobbyCode,
	}
}

// 灾害模板，Category 为空表示任意扇区
type DisasterTemplate struct {
	Title       string
	Description string
	Severity    string
	Category    string
}

// 固定 6 种灾害模板
var DisasterTemplates = []DisasterTemplate{
	{
		Title:       "结构坍塌",
		Description: "承重结构发生连锁坍塌，居民被困",
		Severity:    SEVERITY_CRITICAL,
		Category:    CATEGORY_RESIDENTIAL,
	},
	{
		Title:       "化学泄漏",
		Description: "工业管线破裂，毒性物质正在扩散",
		Severity:    SEVERITY_MEDIUM,
		Category:    CATEGORY_INDUSTRIAL,
	},
	{
		Title:       "疫情爆发",
		Description: "隔离失效，感染在人群中蔓延",
		Severity:    SEVERITY_CRITICAL,
		Category:    CATEGORY_MEDICAL,
	},
	{
		Title:       "网络入侵",
		Description: "未知来源的入侵正在瘫痪通讯节点",
		Severity:    SEVERITY_MEDIUM,
		Category:    CATEGORY_NETWORK,
	},
	{
		Title:       "电涌过载",
		Description: "供电网络出现剧烈波动，设备接连跳闸",
		Severity:    SEVERITY_MEDIUM,
		Category:    CATEGORY_POWER,
	},
	{
		Title:       "群体骚乱",
		Description: "恐慌人群开始冲击封锁线",
		Severity:    SEVERITY_LOW,
		Category:    "",
	},
}

// 行动目录，每个角色 2 个行动，共 12 个
var ActionCatalog = []Action{
	{
		ID:              "cmd_lockdown",
		Label:           "全城封锁",
		Description:     "强制封锁全城，迅速压制恐慌",
		CooldownSeconds: 20,
		Role:            ROLE_COMMANDER,
		TargetKind:      TARGET_GLOBAL,
		Cost:            &ActionCost{Resource: RESOURCE_POWER, Amount: 20},
	},
	{
		ID:              "cmd_rally",
		Label:           "动员集结",
		Description:     "动员全体居民参与抢修",
		CooldownSeconds: 25,
		Role:            ROLE_COMMANDER,
		TargetKind:      TARGET_GLOBAL,
	},
	{
		ID:              "eng_reinforce",
		Label:           "结构加固",
		Description:     "对目标扇区进行紧急结构加固",
		CooldownSeconds: 15,
		Role:            ROLE_ENGINEER,
		TargetKind:      TARGET_SECTOR,
		Cost:            &ActionCost{Resource: RESOURCE_POWER, Amount: 10},
	},
	{
		ID:              "eng_overcharge",
		Label:           "反应堆超频",
		Description:     "短时超频反应堆，补充全城供电",
		CooldownSeconds: 30,
		Role:            ROLE_ENGINEER,
		TargetKind:      TARGET_GLOBAL,
	},
	{
		ID:              "bio_cleanse",
		Label:           "危害清洗",
		Description:     "对目标扇区执行彻底的危害清洗",
		CooldownSeconds: 15,
		Role:            ROLE_BIOSEC,
		TargetKind:      TARGET_SECTOR,
		Cost:            &ActionCost{Resource: RESOURCE_POWER, Amount: 10},
	},
	{
		ID:              "bio_quarantine",
		Label:           "强制隔离",
		Description:     "隔离目标扇区，危害降低但恐慌上升",
		CooldownSeconds: 10,
		Role:            ROLE_BIOSEC,
		TargetKind:      TARGET_SECTOR,
	},
	{
		ID:              "com_broadcast",
		Label:           "安抚广播",
		Description:     "向全城播送安抚通告",
		CooldownSeconds: 10,
		Role:            ROLE_COMMS,
		TargetKind:      TARGET_GLOBAL,
	},
	{
		ID:              "com_reboot",
		Label:           "网络重启",
		Description:     "重启通讯骨干网，恢复全部带宽",
		CooldownSeconds: 30,
		Role:            ROLE_COMMS,
		TargetKind:      TARGET_GLOBAL,
		Cost:            &ActionCost{Resource: RESOURCE_POWER, Amount: 15},
	},
	{
		ID:              "sec_suppress",
		Label:           "维稳镇压",
		Description:     "在目标扇区部署安保力量压制骚乱",
		CooldownSeconds: 10,
		Role:            ROLE_SECURITY,
		TargetKind:      TARGET_SECTOR,
	},
	{
		ID:              "sec_sweep",
		Label:           "治安清查",
		Description:     "对目标扇区进行拉网式清查",
		CooldownSeconds: 15,
		Role:            ROLE_SECURITY,
		TargetKind:      TARGET_SECTOR,
	},
	{
		ID:              "log_supply",
		Label:           "空投补给",
		Description:     "调度补给线，为电网输送应急燃料",
		CooldownSeconds: 10,
		Role:            ROLE_LOGISTICS,
		TargetKind:      TARGET_GLOBAL,
	},
	{
		ID:              "log_reroute",
		Label:           "线路改道",
		Description:     "为目标扇区改道输送资源",
		CooldownSeconds: 15,
		Role:            ROLE_LOGISTICS,
		TargetKind:      TARGET_SECTOR,
	},
}

func ActionByID(actionID string) *Action {
	for i := range ActionCatalog {
		if ActionCatalog[i].ID == actionID {
			return &ActionCatalog[i]
		}
	}

	return nil
}

func ActionsForRole(role string) []Action {
	actions := make([]Action, 0, 2)
	for _, a := range ActionCatalog {
		if a.Role == role {
			actions = append(actions, a)
		}
	}

	return actions
}
