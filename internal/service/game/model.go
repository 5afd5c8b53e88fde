package game

// 会话阶段，只允许单向推进：
// Lobby -> Playing -> GameOver / Victory，最终进入 Closed 被回收
const (
	PHASE_LOBBY     = "Lobby"
	PHASE_PLAYING   = "Playing"
	PHASE_GAME_OVER = "GameOver"
	PHASE_VICTORY   = "Victory"
	PHASE_CLOSED    = "Closed"
)

// 玩家角色，4 个核心角色 + 2 个支援角色
const (
	ROLE_UNSET     = "Unset"
	ROLE_COMMANDER = "Commander"
	ROLE_ENGINEER  = "Engineer"
	ROLE_BIOSEC    = "BioSec"
	ROLE_COMMS     = "Comms"
	ROLE_SECURITY  = "Security"
	ROLE_LOGISTICS = "Logistics"
)

// 核心角色优先分配，支援角色兜底；
// 只有 Security 允许重复（见 roles.go）
var (
	EssentialRoles = []string{ROLE_COMMANDER, ROLE_ENGINEER, ROLE_BIOSEC, ROLE_COMMS}
	SupportRoles   = []string{ROLE_SECURITY, ROLE_LOGISTICS}
)

type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsAuthority bool   `json:"is_authority"`
	IsAutomated bool   `json:"is_automated"`

	RespCh chan ResponseWrapper `json:"-"`
}

// 扇区类别
const (
	CATEGORY_RESIDENTIAL = "residential"
	CATEGORY_INDUSTRIAL  = "industrial"
	CATEGORY_MEDICAL     = "medical"
	CATEGORY_COMMAND     = "command"
	CATEGORY_NETWORK     = "network"
	CATEGORY_POWER       = "power"
)

type SectorState struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Category            string  `json:"category"`
	StructuralIntegrity float64 `json:"structural_integrity"`
	HazardLevel         float64 `json:"hazard_level"`
	ActiveEventID       string  `json:"active_event_id,omitempty"`
}

// SystemState 是模拟的全部可变负载，
// 所有模拟函数都返回新的快照，不允许原地修改
type SystemState struct {
	GlobalPanic   float64       `json:"global_panic"`
	GlobalPower   float64       `json:"global_power"`
	GlobalNetwork float64       `json:"global_network"`
	Sectors       []SectorState `json:"sectors"`
}

// Clone 返回带独立扇区切片的值拷贝
func (ss SystemState) Clone() SystemState {
	cloned := ss
	cloned.Sectors = make([]SectorState, len(ss.Sectors))
	copy(cloned.Sectors, ss.Sectors)

	return cloned
}

// 事件严重度
const (
	SEVERITY_LOW      = "Low"
	SEVERITY_MEDIUM   = "Medium"
	SEVERITY_CRITICAL = "Critical"
)

// GameEvent 是一次随机生成的灾害，创建后不再修改
type GameEvent struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Severity       string `json:"severity"`
	TargetSectorID string `json:"target_sector_id"`
	Timestamp      int64  `json:"timestamp"`
}

// 行动目标类型
const (
	TARGET_GLOBAL = "Global"
	TARGET_SECTOR = "Sector"
)

// 行动消耗的资源
const (
	RESOURCE_POWER   = "power"
	RESOURCE_NETWORK = "network"
)

type ActionCost struct {
	Resource string  `json:"resource"`
	Amount   float64 `json:"amount"`
}

// Action 是静态配置，目录加载一次后只读
type Action struct {
	ID              string      `json:"id"`
	Label           string      `json:"label"`
	Description     string      `json:"description"`
	CooldownSeconds int         `json:"cooldown_seconds"`
	Role            string      `json:"role"`
	TargetKind      string      `json:"target_kind"`
	Cost            *ActionCost `json:"cost,omitempty"`
}

// GameSession 是权威聚合，每个会话代号只存在一个权威实例，
// 其他参与者整体替换本地副本
type GameSession struct {
	Phase         string      `json:"phase"`
	Round         int         `json:"round"`
	TimeRemaining int         `json:"time_remaining_seconds"`
	System        SystemState `json:"system"`
	Events        []GameEvent `json:"events"`
	LobbyCode     string      `json:"lobby_code"`
	LastTick      int64       `json:"last_tick"`
	// 进入 GameOver 阶段时记录触发的终局原因
	EndReason string `json:"end_reason,omitempty"`
}

// Clone 返回带独立事件切片的值拷贝
func (gs GameSession) Clone() GameSession {
	cloned := gs
	cloned.System = gs.System.Clone()
	cloned.Events = make([]GameEvent, len(gs.Events))
	copy(cloned.Events, gs.Events)

	return cloned
}
