package client

import (
	"errors"
	"sync"
	"time"

	"gridfall-be/internal/service/game"
	"gridfall-be/internal/transport"

	"go.uber.org/zap"
)

// 参与者端连接状态
const (
	STATUS_IDLE       = "Idle"
	STATUS_CONNECTING = "Connecting"
	STATUS_CONNECTED  = "Connected"
	STATUS_ERROR      = "Error"
)

const (
	// 未进入名单期间重发加入请求的节奏（没有送达确认，只能敲门）
	KNOCK_INTERVAL = 500 * time.Millisecond
	// 加入握手的总超时
	CONNECT_TIMEOUT = 5 * time.Second
)

// Client 是参与者端的复制协议实现：
// 维护一份会话副本，收到全量广播后整体替换，
// 用广播序号丢弃乱序到达的过期快照
type Client struct {
	registry *transport.Registry

	PlayerID string
	Name     string

	mu          sync.RWMutex
	conn        *transport.Conn
	status      string
	errText     string
	lastSeq     uint64
	players     []game.Player
	session     game.GameSession
	authorityID string
	cooldowns   map[string]int

	joinedOnce sync.Once
	joinedCh   chan struct{}
	doneCh     chan struct{}
}

func NewClient(registry *transport.Registry, name string) *Client {
	return &Client{
		registry:  registry,
		PlayerID:  game.ShortID(),
		Name:      name,
		status:    STATUS_IDLE,
		cooldowns: make(map[string]int),
		joinedCh:  make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Connect 执行加入握手：拨号会合点后每 500ms 重发加入请求，
// 直到在广播的名单里看到自己，超时则进入 Error 状态
func (c *Client) Connect(lobbyCode string) error {
	c.setStatus(STATUS_CONNECTING, "")

	conn, err := c.registry.Dial(lobbyCode)
	if err != nil {
		c.setStatus(STATUS_ERROR, err.Error())
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.recvLoop(conn)
	go c.cooldownLoop()

	joinReq := game.RequestWrapper{
		ReqType: game.REQ_JOIN_GAME,
		NativeData: &game.JoinGameRequest{
			LobbyCode:  lobbyCode,
			PlayerID:   c.PlayerID,
			JoinerName: c.Name,
			RespCh:     conn.RespCh(),
		},
	}

	if err := conn.Send(joinReq); err != nil {
		c.setStatus(STATUS_ERROR, err.Error())
		return err
	}

	knock := time.NewTicker(KNOCK_INTERVAL)
	defer knock.Stop()

	deadline := time.NewTimer(CONNECT_TIMEOUT)
	defer deadline.Stop()

	for {
		select {
		case <-c.joinedCh:
			c.setStatus(STATUS_CONNECTED, "")

			zap.L().Info(
				"加入会话成功",
				zap.String("lobby_code", lobbyCode),
				zap.String("player_id", c.PlayerID),
			)

			return nil

		case <-knock.C:
			// 加入是幂等的，重发不会产生重复名单项
			_ = conn.Send(joinReq)

		case <-deadline.C:
			conn.Close()
			c.setStatus(STATUS_ERROR, "加入会话超时")
			return errors.New("加入会话超时")
		}
	}
}

func (c *Client) recvLoop(conn *transport.Conn) {
	for {
		select {
		case <-c.doneCh:
			return

		case resp, ok := <-conn.Receive():
			if !ok {
				// 权威关闭了我们的通道，连接结束
				c.setStatus(STATUS_IDLE, "")
				return
			}

			c.handleResp(resp)
		}
	}
}

func (c *Client) handleResp(resp game.ResponseWrapper) {
	// 错误与退出确认是控制消息，不参与副本替换
	switch resp.RespType {
	case game.RESP_ERROR:
		c.mu.Lock()
		c.errText = resp.ErrMsg
		c.mu.Unlock()

		zap.L().Warn(
			"收到错误响应",
			zap.String("player_id", c.PlayerID),
			zap.String("error", resp.ErrMsg),
		)
		return

	case game.RESP_EXIT_GAME:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// 过期广播直接丢弃：晚到的旧快照不能覆盖新状态
	if resp.Seq != 0 && resp.Seq <= c.lastSeq {
		zap.L().Debug(
			"丢弃过期广播",
			zap.String("player_id", c.PlayerID),
			zap.Uint64("seq", resp.Seq),
			zap.Uint64("last_seq", c.lastSeq),
		)
		return
	}

	if resp.Seq != 0 {
		c.lastSeq = resp.Seq
	}

	// 全量快照整体替换本地副本
	switch data := resp.Data.(type) {
	case game.JoinGameResponse:
		c.players = data.Players
		c.session = data.Session
		c.authorityID = data.AuthorityID

	case game.LobbyStateResponse:
		c.players = data.Players
		c.session = data.Session
		c.authorityID = data.AuthorityID

	case game.StartGameResponse:
		c.players = data.Players
		c.session = data.Session

	case game.GameTickResponse:
		c.session = data.Session

	default:
		return
	}

	if c.rosterContainsLocked(c.PlayerID) {
		c.joinedOnce.Do(func() {
			close(c.joinedCh)
		})
	}
}

func (c *Client) rosterContainsLocked(playerID string) bool {
	for _, p := range c.players {
		if p.ID == playerID {
			return true
		}
	}

	return false
}

// cooldownLoop 每秒衰减本地冷却计时，纯界面用途，不具有权威性
func (c *Client) cooldownLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.doneCh:
			return

		case <-ticker.C:
			c.mu.Lock()
			for id, remaining := range c.cooldowns {
				if remaining <= 1 {
					delete(c.cooldowns, id)
				} else {
					c.cooldowns[id] = remaining - 1
				}
			}
			c.mu.Unlock()
		}
	}
}

// Start 请求开局，只有主持人的请求会被权威接受
func (c *Client) Start() error {
	return c.send(game.RequestWrapper{
		ReqType:    game.REQ_START_GAME,
		NativeData: &game.StartGameRequest{StartPlayerID: c.PlayerID},
	})
}

// AddBot 请求向大厅添加一个自动单位
func (c *Client) AddBot() error {
	return c.send(game.RequestWrapper{
		ReqType:    game.REQ_ADD_BOT,
		NativeData: &game.AddBotRequest{ReqPlayerID: c.PlayerID},
	})
}

// SubmitAction 提交一次行动；目标扇区可以留空，由权威确定性解析
func (c *Client) SubmitAction(actionID string, targetSectorID string) error {
	c.mu.Lock()
	if remaining, cooling := c.cooldowns[actionID]; cooling && remaining > 0 {
		c.mu.Unlock()
		return errors.New("行动冷却中")
	}

	if action := game.ActionByID(actionID); action != nil {
		c.cooldowns[actionID] = action.CooldownSeconds
	}
	c.mu.Unlock()

	return c.send(game.RequestWrapper{
		ReqType: game.REQ_SUBMIT_ACTION,
		NativeData: &game.SubmitActionRequest{
			PlayerID:       c.PlayerID,
			ActionID:       actionID,
			TargetSectorID: targetSectorID,
		},
	})
}

// Disconnect 通知权威退出并释放本地定时器
func (c *Client) Disconnect() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn != nil {
		_ = conn.Send(game.RequestWrapper{
			ReqType: game.REQ_EXIT_GAME,
			NativeData: &game.ExitGameRequest{
				PlayerID: c.PlayerID,
				RespCh:   conn.RespCh(),
			},
		})

		conn.Close()
	}

	select {
	case <-c.doneCh:
	default:
		close(c.doneCh)
	}

	c.setStatus(STATUS_IDLE, "")
}

func (c *Client) send(req game.RequestWrapper) error {
	c.mu.RLock()
	conn := c.conn
	status := c.status
	c.mu.RUnlock()

	if conn == nil || status != STATUS_CONNECTED {
		return errors.New("尚未连接到会话")
	}

	return conn.Send(req)
}

func (c *Client) setStatus(status string, errText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = status
	c.errText = errText
}

// Status 返回连接状态和可读的错误描述
func (c *Client) Status() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.status, c.errText
}

// Session 返回本地副本的当前会话快照
func (c *Client) Session() game.GameSession {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session.Clone()
}

// Players 返回本地副本的名单快照
func (c *Client) Players() []game.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()

	players := make([]game.Player, len(c.players))
	copy(players, c.players)

	return players
}

// AuthorityID 返回当前权威玩家的 ID
func (c *Client) AuthorityID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.authorityID
}

// Cooldown 返回某个行动的本地剩余冷却秒数
func (c *Client) Cooldown(actionID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cooldowns[actionID]
}
