package game

// JoinGameRequest 是参与者发起的加入握手；
// 进程内传递时直接携带响应通道
type JoinGameRequest struct {
	LobbyCode  string               `json:"lobby_code"`
	PlayerID   string               `json:"player_id"`
	JoinerName string               `json:"joiner_name"`
	RespCh     chan ResponseWrapper `json:"-"`
}

type JoinGameResponse struct {
	LobbyCode   string      `json:"lobby_code"`
	Joiner      Player      `json:"joiner"`
	AuthorityID string      `json:"authority_id"`
	Players     []Player    `json:"players"`
	Session     GameSession `json:"session"`
}

type StartGameRequest struct {
	StartPlayerID string `json:"start_player_id"`
}

type SubmitActionRequest struct {
	PlayerID       string `json:"player_id"`
	ActionID       string `json:"action_id"`
	TargetSectorID string `json:"target_sector_id,omitempty"`
}

type AddBotRequest struct {
	ReqPlayerID string `json:"req_player_id"`
}

type ExitGameRequest struct {
	PlayerID string               `json:"player_id"`
	RespCh   chan ResponseWrapper `json:"-"`
}

type ExitGameResponse struct {
	LeftPlayerID   string `json:"left_player_id"`
	LeftPlayerName string `json:"left_player_name"`
}

// TickRequest 由定时器注入事件循环，Phase 用于丢弃跨阶段的残留事件
type TickRequest struct {
	Phase string `json:"phase"`
}

// LobbyStateResponse 是完整的大厅快照，
// 每次名单变化后广播给所有参与者，大厅阶段还会定期重发
type LobbyStateResponse struct {
	AuthorityID string      `json:"authority_id"`
	Players     []Player    `json:"players"`
	Session     GameSession `json:"session"`
}

// StartGameResponse 同时承担阶段切换通知和开局完整快照
type StartGameResponse struct {
	Players []Player    `json:"players"`
	Session GameSession `json:"session"`
}

// GameTickResponse 是权威每个 tick 后推送的完整会话快照，
// 参与者整体替换本地副本，重复应用是幂等的
type GameTickResponse struct {
	Session GameSession `json:"session"`
}
