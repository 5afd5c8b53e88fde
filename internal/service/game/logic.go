package game

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// 会话从大厅开始，开局后单向推进：
// 1. 大厅阶段（Lobby）：玩家凭会话代号加入，权威玩家添加自动单位并开局
// 2. 对局阶段（Playing）：权威每秒推进一次模拟并广播完整快照
// 3. 终局阶段（GameOver / Victory）：倒计时归零或灾难条件触发
// 4. 关闭阶段（Closed）：名单清空后会话被回收

const (
	// 名单上限
	MAX_PLAYERS = 8
	// 开局所需的最少人数（含自动单位）
	MIN_PLAYERS_TO_START = 4
	// 一局的倒计时秒数
	GAME_DURATION_SECONDS = 90
	// 大厅阶段全量状态重发的节奏
	LOBBY_SYNC_INTERVAL = 500 * time.Millisecond
	// 对局阶段的模拟 tick 节奏
	TICK_INTERVAL = time.Second
	// 事件日志只保留最近这么多条
	EVENT_LOG_LIMIT = 25
)

type PhaseHandler interface {
	Phase() string

	OnEnter(ctx *SessionContext)
	OnHandle(ctx *SessionContext, req RequestWrapper) error
	OnExit(ctx *SessionContext)

	SetOnSwitch(func(nextPhase string))
}

// 大厅阶段处理器
type lobbyPhaseHandler struct {
	onSwitch func(string)
}

func NewLobbyPhaseHandler() *lobbyPhaseHandler {
	return &lobbyPhaseHandler{}
}

func (lph *lobbyPhaseHandler) Phase() string {
	return PHASE_LOBBY
}

func (lph *lobbyPhaseHandler) OnEnter(ctx *SessionContext) {
	ctx.Phase = PHASE_LOBBY
	ctx.Session.Phase = PHASE_LOBBY

	// 大厅心跳：即使没有任何变化也定期重发全量大厅状态，
	// 晚到的参与者靠它收敛（没有送达确认机制）
	ctx.StartPulse(LOBBY_SYNC_INTERVAL, PHASE_LOBBY)
}

func (lph *lobbyPhaseHandler) OnHandle(ctx *SessionContext, req RequestWrapper) error {
	if req := TryUnwrapJoinGameRequest(req); req != nil {
		return onPlayerJoin(ctx, req)
	}

	if req := TryUnwrapAddBotRequest(req); req != nil {
		authority := ctx.GetAuthority()
		if authority == nil || authority.ID != req.ReqPlayerID {
			ctx.UnicastResp(req.ReqPlayerID, WrapErrResponse("只有主持人可以添加自动单位"))
			return errors.New("无法添加自动单位：请求者不是主持人")
		}

		if len(ctx.Players) >= MAX_PLAYERS {
			ctx.UnicastResp(req.ReqPlayerID, WrapErrResponse("会话已满员"))
			return errors.New("无法添加自动单位：会话已满员")
		}

		bot := &Player{
			ID:          ShortID(),
			Name:        fmt.Sprintf("UNIT-%02d", len(ctx.Players)+1),
			Role:        ROLE_UNSET,
			IsAutomated: true,
		}

		ctx.Players[bot.ID] = bot
		ctx.Order = append(ctx.Order, bot.ID)

		AssignRoles(ctx.RosterPlayers())

		zap.L().Info(
			"添加自动单位",
			zap.String("lobby_code", ctx.LobbyCode),
			zap.String("bot_id", bot.ID),
			zap.String("role", bot.Role),
		)

		broadcastLobbyState(ctx)

		return nil
	}

	if req := TryUnwrapStartGameRequest(req); req != nil {
		authority := ctx.GetAuthority()
		if authority == nil || authority.ID != req.StartPlayerID {
			ctx.UnicastResp(req.StartPlayerID, WrapErrResponse("只有主持人可以开始对局"))
			return errors.New("无法开始对局：请求者不是主持人")
		}

		if len(ctx.Players) < MIN_PLAYERS_TO_START {
			ctx.UnicastResp(req.StartPlayerID, WrapErrResponse("人数不足，至少需要 4 名成员"))
			return errors.New("无法开始对局：人数不足")
		}

		// 切换到对局阶段
		lph.onSwitch(PHASE_PLAYING)

		return nil
	}

	if req := TryUnwrapExitGameRequest(req); req != nil {
		// 大厅阶段的离开策略：从名单中彻底移除，角色回到待分配池
		onPlayerExit(ctx, req.PlayerID, req.RespCh, true)
		return nil
	}

	if req := TryUnwrapTickRequest(req); req != nil {
		if req.Phase == PHASE_LOBBY {
			broadcastLobbyState(ctx)
			return nil
		}

		return nil
	}

	return errors.New("大厅阶段不支持该请求类型")
}

func (lph *lobbyPhaseHandler) OnExit(ctx *SessionContext) {
	ctx.StopPulse()
}

func (lph *lobbyPhaseHandler) SetOnSwitch(onSwitch func(string)) {
	lph.onSwitch = onSwitch
}

// onPlayerJoin 执行大厅加入策略：
// 重复 ID 视为幂等重入（只更新显示名），满员拒绝，
// 首位加入者成为主持人（权威玩家）
func onPlayerJoin(ctx *SessionContext, req *JoinGameRequest) error {
	if existing, ok := ctx.Players[req.PlayerID]; ok {
		zap.L().Info(
			"检测到相同 player ID，按幂等重入处理",
			zap.String("player_id", req.PlayerID),
			zap.String("player_name", req.JoinerName),
		)

		if req.JoinerName != "" {
			existing.Name = req.JoinerName
		}

		// 携带新响应通道时顶替旧连接
		if req.RespCh != nil && existing.RespCh != req.RespCh {
			if existing.RespCh != nil {
				close(existing.RespCh)
			}
			existing.RespCh = req.RespCh
		}

		ctx.UnicastResp(existing.ID, buildJoinAck(ctx, existing))
		broadcastLobbyState(ctx)

		return nil
	}

	if len(ctx.Players) >= MAX_PLAYERS {
		ctx.ReplyTo(req.RespCh, WrapErrResponse("会话已满员"))
		return errors.New("无法加入会话：已达到人数上限")
	}

	playerID := req.PlayerID
	if playerID == "" {
		playerID = ShortID()
	}

	player := &Player{
		ID:     playerID,
		Name:   req.JoinerName,
		Role:   ROLE_UNSET,
		RespCh: req.RespCh,
	}

	// 首位加入者成为主持人，也就是唯一的权威玩家
	if len(ctx.Players) == 0 {
		player.IsAuthority = true
	}

	ctx.Players[player.ID] = player
	ctx.Order = append(ctx.Order, player.ID)

	AssignRoles(ctx.RosterPlayers())

	zap.L().Info(
		"玩家加入会话",
		zap.String("lobby_code", ctx.LobbyCode),
		zap.String("player_id", player.ID),
		zap.String("player_name", player.Name),
		zap.String("role", player.Role),
	)

	// 先给加入者单播确认，再向所有人广播全量大厅状态，
	// 保证已有成员和新成员收敛到同一份名单
	ctx.UnicastResp(player.ID, buildJoinAck(ctx, player))
	broadcastLobbyState(ctx)

	return nil
}

func buildJoinAck(ctx *SessionContext, joiner *Player) ResponseWrapper {
	authorityID := ""
	if authority := ctx.GetAuthority(); authority != nil {
		authorityID = authority.ID
	}

	return WrapResponse(
		RESP_JOIN_GAME,
		JoinGameResponse{
			LobbyCode:   ctx.LobbyCode,
			Joiner:      *joiner,
			AuthorityID: authorityID,
			Players:     ctx.PublicPlayers(),
			Session:     ctx.Session.Clone(),
		},
	)
}

func broadcastLobbyState(ctx *SessionContext) {
	authorityID := ""
	if authority := ctx.GetAuthority(); authority != nil {
		authorityID = authority.ID
	}

	resp := WrapResponse(
		RESP_LOBBY_STATE,
		LobbyStateResponse{
			AuthorityID: authorityID,
			Players:     ctx.PublicPlayers(),
			Session:     ctx.Session.Clone(),
		},
	)

	ctx.BroadcastResp(resp)
}

// onPlayerExit 处理参与者离开。
// removeFromRoster 为真（大厅阶段）时彻底移除并释放角色；
// 为假（对局及之后）时保留名单项，只断开响应通道，
// 角色映射对剩余成员保持稳定
func onPlayerExit(ctx *SessionContext, playerID string, reqRespCh chan ResponseWrapper, removeFromRoster bool) {
	player, exists := ctx.Players[playerID]
	if !exists {
		zap.L().Warn(
			"玩家不存在，无法退出",
			zap.String("player_id", playerID),
		)
		return
	}

	// 通道不匹配说明该连接已被重入顶替，只回确认，不动名单
	if reqRespCh != nil && player.RespCh != reqRespCh {
		zap.L().Info(
			"检测到旧连接退出（已被顶替），不修改名单",
			zap.String("player_id", playerID),
		)

		ctx.ReplyTo(reqRespCh, WrapResponse(
			RESP_EXIT_GAME,
			ExitGameResponse{
				LeftPlayerID:   playerID,
				LeftPlayerName: player.Name,
			},
		))

		return
	}

	// 先发送退出确认，再关闭通道让写协程退出
	ctx.UnicastResp(playerID, WrapResponse(
		RESP_EXIT_GAME,
		ExitGameResponse{
			LeftPlayerID:   playerID,
			LeftPlayerName: player.Name,
		},
	))

	if player.RespCh != nil {
		close(player.RespCh)
		player.RespCh = nil
	}

	wasAuthority := player.IsAuthority

	if removeFromRoster {
		delete(ctx.Players, playerID)
		for i, id := range ctx.Order {
			if id == playerID {
				ctx.Order = append(ctx.Order[:i], ctx.Order[i+1:]...)
				break
			}
		}
	}

	zap.L().Info(
		"玩家离开会话",
		zap.String("lobby_code", ctx.LobbyCode),
		zap.String("player_id", playerID),
		zap.Bool("removed", removeFromRoster),
	)

	// 主持人离开时，由名单中最早加入的真人顶替
	if wasAuthority {
		player.IsAuthority = false

		promoted := false
		for _, p := range ctx.RosterPlayers() {
			if !p.IsAutomated && p.RespCh != nil {
				p.IsAuthority = true
				promoted = true

				zap.L().Info(
					"主持人已易主",
					zap.String("lobby_code", ctx.LobbyCode),
					zap.String("player_id", p.ID),
				)

				break
			}
		}

		if !promoted {
			// 没有真人可以接管，会话关闭
			ctx.Phase = PHASE_CLOSED
			return
		}
	}

	if !hasConnectedHuman(ctx) {
		ctx.Phase = PHASE_CLOSED
		return
	}

	broadcastLobbyState(ctx)
}

func hasConnectedHuman(ctx *SessionContext) bool {
	for _, p := range ctx.Players {
		if !p.IsAutomated && p.RespCh != nil {
			return true
		}
	}

	return false
}

// 对局阶段处理器
type playingPhaseHandler struct {
	onSwitch func(string)
	policy   BotPolicy
}

func NewPlayingPhaseHandler() *playingPhaseHandler {
	return &playingPhaseHandler{
		policy: DefaultBotPolicy,
	}
}

func (pph *playingPhaseHandler) Phase() string {
	return PHASE_PLAYING
}

func (pph *playingPhaseHandler) OnEnter(ctx *SessionContext) {
	// 补齐仍未分配角色的玩家
	AssignRoles(ctx.RosterPlayers())

	session := ctx.Session.Clone()
	session.Phase = PHASE_PLAYING
	session.Round = 1
	session.TimeRemaining = GAME_DURATION_SECONDS
	session.LastTick = time.Now().UnixMilli()

	ctx.Session = session

	zap.L().Info(
		"对局开始",
		zap.String("lobby_code", ctx.LobbyCode),
		zap.Int("players", len(ctx.Players)),
	)

	// 阶段切换通知与开局全量快照合并在一条消息里
	ctx.BroadcastResp(WrapResponse(
		RESP_START_GAME,
		StartGameResponse{
			Players: ctx.PublicPlayers(),
			Session: session.Clone(),
		},
	))

	ctx.StartPulse(TICK_INTERVAL, PHASE_PLAYING)
}

func (pph *playingPhaseHandler) OnHandle(ctx *SessionContext, req RequestWrapper) error {
	if req := TryUnwrapTickRequest(req); req != nil {
		if req.Phase == PHASE_PLAYING {
			pph.runTick(ctx)
		}

		return nil
	}

	if req := TryUnwrapSubmitActionRequest(req); req != nil {
		return pph.handleSubmitAction(ctx, req)
	}

	if req := TryUnwrapJoinGameRequest(req); req != nil {
		// 对局中不接受新成员
		ctx.ReplyTo(req.RespCh, WrapErrResponse("对局进行中，无法加入"))
		return errors.New("无法加入会话：对局已经开始")
	}

	if req := TryUnwrapExitGameRequest(req); req != nil {
		// 对局中离开只断开连接，名单与角色保持稳定
		onPlayerExit(ctx, req.PlayerID, req.RespCh, false)
		return nil
	}

	return errors.New("对局阶段不支持该请求类型")
}

// runTick 推进自上次 tick 以来经过的每一个整秒：
// 衰减、灾害掷骰与结算、自动单位行动，最后统一判定终局并广播。
// 支持追帧：如果间隔了 3 秒，就连续跑 3 个模拟步
func (pph *playingPhaseHandler) runTick(ctx *SessionContext) {
	now := time.Now().UnixMilli()

	elapsed := int((now - ctx.Session.LastTick) / 1000)
	if elapsed <= 0 {
		return
	}

	session := ctx.Session.Clone()

	for i := 0; i < elapsed && session.TimeRemaining > 0; i++ {
		session.System = ApplyDecay(session.System)

		if event := RollEvent(session.Round, session.System.Sectors, ctx.Rng); event != nil {
			// 事件日志最新在前
			session.Events = append([]GameEvent{*event}, session.Events...)
			if len(session.Events) > EVENT_LOG_LIMIT {
				session.Events = session.Events[:EVENT_LOG_LIMIT]
			}

			session.System = ApplyEventImpact(session.System, *event)

			zap.L().Debug(
				"灾害事件触发",
				zap.String("lobby_code", ctx.LobbyCode),
				zap.String("event_title", event.Title),
				zap.String("target_sector", event.TargetSectorID),
			)
		}

		// 自动单位按策略行动
		for _, p := range ctx.RosterPlayers() {
			if !p.IsAutomated {
				continue
			}

			intent := pph.policy(p, session, ctx.Rng)
			if intent == nil {
				continue
			}

			action := ActionByID(intent.ActionID)
			if action == nil {
				continue
			}

			session.System = ApplyAction(session.System, *action, intent.TargetSectorID)
		}

		session.TimeRemaining--
		session.Round++
	}

	session.LastTick = now

	// 倒计时归零与灾难条件用同一个判定函数在同一瞬间裁决，
	// 计时结束不会掩盖已经成立的失败条件
	result := CheckGameOver(session.System)

	if session.TimeRemaining <= 0 {
		if result.IsOver {
			session.Phase = PHASE_GAME_OVER
			session.EndReason = result.Reason
		} else {
			session.Phase = PHASE_VICTORY
		}
	} else if result.IsOver {
		session.Phase = PHASE_GAME_OVER
		session.EndReason = result.Reason
	}

	ctx.Session = session

	ctx.BroadcastResp(WrapResponse(
		RESP_GAME_TICK,
		GameTickResponse{Session: session.Clone()},
	))

	if session.Phase != PHASE_PLAYING {
		zap.L().Info(
			"对局结束",
			zap.String("lobby_code", ctx.LobbyCode),
			zap.String("phase", session.Phase),
			zap.String("reason", session.EndReason),
		)

		pph.onSwitch(session.Phase)
	}
}

// handleSubmitAction 校验并结算一次玩家行动。
// 校验全部通过后才会触碰权威状态，拒绝不会污染会话
func (pph *playingPhaseHandler) handleSubmitAction(ctx *SessionContext, req *SubmitActionRequest) error {
	player, ok := ctx.Players[req.PlayerID]
	if !ok {
		return errors.New("无法结算行动：玩家不在名单中")
	}

	action := ActionByID(req.ActionID)
	if action == nil {
		ctx.UnicastResp(player.ID, WrapErrResponse("未知的行动"))
		return errors.New("无法结算行动：未知的行动 ID")
	}

	if action.Role != player.Role {
		ctx.UnicastResp(player.ID, WrapErrResponse("该行动不属于你的角色"))
		return errors.New("无法结算行动：角色不匹配")
	}

	targetSectorID := req.TargetSectorID

	if action.TargetKind == TARGET_SECTOR {
		if targetSectorID == "" {
			// 提交方没有指定目标时按角色启发式确定性解析
			targetSectorID = ResolveTargetSector(player.Role, ctx.Session.System)
		} else if !sectorExists(ctx.Session.System, targetSectorID) {
			ctx.UnicastResp(player.ID, WrapErrResponse("目标扇区不存在"))
			return errors.New("无法结算行动：目标扇区不存在")
		}
	}

	session := ctx.Session.Clone()
	session.System = ApplyAction(session.System, *action, targetSectorID)

	ctx.Session = session

	zap.L().Info(
		"行动结算",
		zap.String("lobby_code", ctx.LobbyCode),
		zap.String("player_id", player.ID),
		zap.String("action_id", action.ID),
		zap.String("target_sector", targetSectorID),
	)

	ctx.BroadcastResp(WrapResponse(
		RESP_GAME_TICK,
		GameTickResponse{Session: session.Clone()},
	))

	return nil
}

func sectorExists(system SystemState, sectorID string) bool {
	for _, s := range system.Sectors {
		if s.ID == sectorID {
			return true
		}
	}

	return false
}

func (pph *playingPhaseHandler) OnExit(ctx *SessionContext) {
	ctx.StopPulse()
}

func (pph *playingPhaseHandler) SetOnSwitch(onSwitch func(string)) {
	pph.onSwitch = onSwitch
}

// 终局阶段处理器，GameOver 和 Victory 共用
type debriefPhaseHandler struct {
	phase    string
	onSwitch func(string)
}

func NewDebriefPhaseHandler(phase string) *debriefPhaseHandler {
	return &debriefPhaseHandler{phase: phase}
}

func (dph *debriefPhaseHandler) Phase() string {
	return dph.phase
}

func (dph *debriefPhaseHandler) OnEnter(ctx *SessionContext) {
	// 终局快照再广播一次；整体替换语义下重复广播是无害的
	ctx.BroadcastResp(WrapResponse(
		RESP_GAME_TICK,
		GameTickResponse{Session: ctx.Session.Clone()},
	))
}

func (dph *debriefPhaseHandler) OnHandle(ctx *SessionContext, req RequestWrapper) error {
	if req := TryUnwrapExitGameRequest(req); req != nil {
		onPlayerExit(ctx, req.PlayerID, req.RespCh, false)
		return nil
	}

	if req := TryUnwrapJoinGameRequest(req); req != nil {
		ctx.ReplyTo(req.RespCh, WrapErrResponse("对局已结束"))
		return errors.New("无法加入会话：对局已结束")
	}

	return errors.New("对局已结束，不再接受该请求")
}

func (dph *debriefPhaseHandler) OnExit(ctx *SessionContext) {
}

func (dph *debriefPhaseHandler) SetOnSwitch(onSwitch func(string)) {
	dph.onSwitch = onSwitch
}

// 关闭阶段处理器：状态机在 OnEnter 后退出事件循环
type closedPhaseHandler struct {
	onSwitch func(string)
}

func NewClosedPhaseHandler() *closedPhaseHandler {
	return &closedPhaseHandler{}
}

func (cph *closedPhaseHandler) Phase() string {
	return PHASE_CLOSED
}

func (cph *closedPhaseHandler) OnEnter(ctx *SessionContext) {
	ctx.Session.Phase = PHASE_CLOSED

	zap.L().Info(
		"会话关闭",
		zap.String("lobby_code", ctx.LobbyCode),
	)
}

func (cph *closedPhaseHandler) OnHandle(ctx *SessionContext, req RequestWrapper) error {
	return errors.New("会话已关闭")
}

func (cph *closedPhaseHandler) OnExit(ctx *SessionContext) {
}

func (cph *closedPhaseHandler) SetOnSwitch(onSwitch func(string)) {
	cph.onSwitch = onSwitch
}
