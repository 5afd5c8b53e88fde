package service

import (
	"errors"
	"sync"
	"time"

	"gridfall-be/internal/service/dto"
	"gridfall-be/internal/service/game"
	"gridfall-be/internal/transport"

	"go.uber.org/zap"
)

type SessionService struct {
	state *sessionServiceState
}

type sessionServiceState struct {
	mu sync.RWMutex

	// 从会话代号到状态机的映射
	machines map[string]*game.SessionMachine
	doneChs  map[string]chan struct{}

	registry *transport.Registry

	cleanUpDone chan struct{}
}

func NewSessionService() *SessionService {
	cleanUpDone := make(chan struct{})

	state := &sessionServiceState{
		machines:    make(map[string]*game.SessionMachine),
		doneChs:     make(map[string]chan struct{}),
		registry:    transport.NewRegistry(),
		cleanUpDone: cleanUpDone,
	}

	// 启动一个 goroutine 定期清理已结束的会话
	go startCleanupLoop(state)

	return &SessionService{
		state: state,
	}
}

func startCleanupLoop(state *sessionServiceState) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-state.cleanUpDone:
			return

		case <-ticker.C:
			state.mu.Lock()

			for lobbyCode, machine := range state.machines {
				if !machine.IsFinished() {
					continue
				}

				zap.S().Infof("会话 %s 已结束，开始清理", lobbyCode)

				state.registry.Unbind(lobbyCode)

				close(state.doneChs[lobbyCode])
				delete(state.doneChs, lobbyCode)

				delete(state.machines, lobbyCode)
			}

			state.mu.Unlock()
		}
	}
}

func (ss *SessionService) Close() {
	close(ss.state.cleanUpDone)
}

// Registry 暴露会合注册表，供进程内参与者拨号
func (ss *SessionService) Registry() *transport.Registry {
	return ss.state.registry
}

// CreateSession 创建一个新会话：启动独立的权威状态机协程，
// 把主持人预置进名单（名单首位即权威玩家），
// 主持人随后凭返回的 ID 连接即可幂等重入
func (ss *SessionService) CreateSession(req dto.CreateSessionRequest) (dto.CreateSessionResponse, error) {
	if req.HostName == "" {
		return dto.CreateSessionResponse{}, errors.New("主持人名称不能为空")
	}

	lobbyCode := game.ShortID()
	hostID := game.ShortID()

	doneCh := make(chan struct{})
	machine := game.NewSessionMachine(lobbyCode, doneCh)

	ss.state.mu.Lock()

	if err := ss.state.registry.Bind(lobbyCode, machine.GetReqCh()); err != nil {
		ss.state.mu.Unlock()
		return dto.CreateSessionResponse{}, err
	}

	ss.state.machines[lobbyCode] = machine
	ss.state.doneChs[lobbyCode] = doneCh

	ss.state.mu.Unlock()

	go machine.Start()

	// 预置主持人，保证其占据名单首位
	machine.GetReqCh() <- game.RequestWrapper{
		ReqType: game.REQ_JOIN_GAME,
		NativeData: &game.JoinGameRequest{
			LobbyCode:  lobbyCode,
			PlayerID:   hostID,
			JoinerName: req.HostName,
		},
	}

	zap.S().Infof("会话 %s 由 %s 创建", lobbyCode, req.HostName)

	return dto.CreateSessionResponse{
		LobbyCode: lobbyCode,
		HostID:    hostID,
		HostName:  req.HostName,
	}, nil
}

// AttachSession 返回指定会话的请求通道，供传输层注入参与者请求
func (ss *SessionService) AttachSession(lobbyCode string) (chan game.RequestWrapper, error) {
	if lobbyCode == "" {
		return nil, errors.New("会话代号不能为空")
	}

	ss.state.mu.RLock()
	defer ss.state.mu.RUnlock()

	machine, exists := ss.state.machines[lobbyCode]
	if !exists || machine.IsFinished() {
		return nil, errors.New("会话不存在")
	}

	return machine.GetReqCh(), nil
}
