package game

import (
	"math/rand/v2"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SessionMachine 是一个会话的权威状态机。
// 每个会话对应一个独立协程跑 Start 的事件循环，
// 所有权威状态的读写都发生在这个循环里，tick 计算和
// 消息处理互不重入
type SessionMachine struct {
	ctx     *SessionContext
	handler PhaseHandler
	// 所有参与者请求汇总的通道
	reqCh chan RequestWrapper
	// 结束通道，用于通知状态机退出事件循环
	doneCh chan struct{}

	finished  atomic.Bool
	createdAt time.Time
}

func NewSessionMachine(lobbyCode string, doneCh chan struct{}) *SessionMachine {
	ctx := &SessionContext{
		LobbyCode: lobbyCode,
		Players:   make(map[string]*Player),
		Order:     make([]string, 0),
		Session:   NewGameSession(lobbyCode),
		Rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		TmoCh:     make(chan RequestWrapper, 64),
	}

	reqCh := make(chan RequestWrapper, 64)

	sm := &SessionMachine{
		ctx:       ctx,
		handler:   NewLobbyPhaseHandler(),
		reqCh:     reqCh,
		doneCh:    doneCh,
		createdAt: time.Now(),
	}

	// 设置 onSwitch 回调
	onSwitch := func(nextPhase string) {
		sm.ctx.Phase = nextPhase
	}

	sm.handler.SetOnSwitch(onSwitch)

	return sm
}

func (sm *SessionMachine) GetReqCh() chan RequestWrapper {
	return sm.reqCh
}

func (sm *SessionMachine) Start() {
	defer sm.finished.Store(true)
	defer sm.ctx.StopPulse()

	// 执行初始 handler 的 OnEnter
	sm.handler.OnEnter(sm.ctx)

	// 进入事件循环
	for {
		// 从请求通道或定时器通道接收事件
		var req RequestWrapper

		select {
		case req = <-sm.reqCh:
			zap.L().Debug(
				"接收到参与者请求",
				zap.String("lobby_code", sm.ctx.LobbyCode),
				zap.String("request_type", req.ReqType),
			)
		case req = <-sm.ctx.TmoCh:
			zap.L().Debug(
				"接收到定时器事件",
				zap.String("lobby_code", sm.ctx.LobbyCode),
			)
		case <-sm.doneCh:
			zap.L().Info(
				"收到退出信号，结束会话状态机",
				zap.String("lobby_code", sm.ctx.LobbyCode),
			)
			return
		}

		// 处理请求
		err := sm.handler.OnHandle(sm.ctx, req)
		if err != nil {
			zap.L().Debug(
				"处理请求失败",
				zap.Error(err),
				zap.String("phase", sm.handler.Phase()),
				zap.String("request_type", req.ReqType),
			)
		}

		// 检查阶段是否发生变化
		if sm.ctx.Phase != sm.handler.Phase() {
			// 阶段发生变化，执行切换
			sm.switchPhase()

			// 如果切换到了关闭阶段，退出循环
			if sm.ctx.Phase == PHASE_CLOSED {
				// 执行关闭阶段的 OnEnter
				sm.handler.OnEnter(sm.ctx)
				break
			}

			// 执行新阶段的 OnEnter
			sm.handler.OnEnter(sm.ctx)
		}
	}

	// 会话关闭后协程自动退出，释放资源
	zap.L().Info(
		"会话状态机已结束",
		zap.String("lobby_code", sm.ctx.LobbyCode),
	)
}

func (sm *SessionMachine) switchPhase() {
	// 执行当前 handler 的 OnExit
	sm.handler.OnExit(sm.ctx)

	// 根据新阶段创建对应的 handler
	var newHandler PhaseHandler

	switch sm.ctx.Phase {
	case PHASE_LOBBY:
		newHandler = NewLobbyPhaseHandler()
	case PHASE_PLAYING:
		newHandler = NewPlayingPhaseHandler()
	case PHASE_GAME_OVER:
		newHandler = NewDebriefPhaseHandler(PHASE_GAME_OVER)
	case PHASE_VICTORY:
		newHandler = NewDebriefPhaseHandler(PHASE_VICTORY)
	case PHASE_CLOSED:
		newHandler = NewClosedPhaseHandler()
	default:
		zap.L().Error(
			"未知的会话阶段",
			zap.String("phase", sm.ctx.Phase),
		)
		return
	}

	// 设置 onSwitch 回调
	onSwitch := func(nextPhase string) {
		sm.ctx.Phase = nextPhase
	}

	newHandler.SetOnSwitch(onSwitch)

	// 更新当前 handler
	sm.handler = newHandler
}

func (sm *SessionMachine) IsFinished() bool {
	return sm.finished.Load()
}

func (sm *SessionMachine) CreatedAt() time.Time {
	return sm.createdAt
}
