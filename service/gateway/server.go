package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"QGuard/global"
	"QGuard/service/natsx"
	ids "QGuard/tools/ids"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const actionTimeout = 5 * time.Second

// Server OneBot 反向 WS 网关：
// 事件帧 -> 总线；总线动作 -> 动作帧，按 echo 关联应答。
// 同一时刻只保留一条活跃连接（后连的顶掉先连的）。
type Server struct {
	cfg global.GatewayConfig
	bus *natsx.NatsManager

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	pendMu  sync.Mutex
	pending map[string]chan *ActionResponse
}

func NewServer(cfg global.GatewayConfig, bus *natsx.NatsManager) *Server {
	return &Server{
		cfg:     cfg,
		bus:     bus,
		pending: make(map[string]chan *ActionResponse),
	}
}

// Start 订阅动作主题并注册 WS 路由。
func (s *Server) Start(r *gin.Engine) error {
	if err := s.bus.SubscribeReply(global.BizActionSend, s.onActionSend); err != nil {
		return err
	}
	if err := s.bus.Subscribe(global.BizActionDelete, s.onActionDelete); err != nil {
		return err
	}
	if err := s.bus.Subscribe(global.BizActionReview, s.onActionReview); err != nil {
		return err
	}
	r.GET(s.cfg.Path, s.HandleWS)
	return nil
}

// HandleWS ===== WebSocket 处理 =====
func (s *Server) HandleWS(c *gin.Context) {
	if !s.checkAccessToken(c) {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		glog.Infof("[gateway] upgrade websocket error: %v", err)
		return
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			glog.Infof("[gateway] close websocket error: %v", cerr)
		}
	}()

	s.connMu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn = ws
	s.connMu.Unlock()
	glog.Infof("[gateway] onebot connected from %s", c.Request.RemoteAddr)

	// ---- 读循环：只读；写全部走 writeFrame ----
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				glog.Infof("[gateway] peer closed: %v", rerr)
			} else {
				glog.Infof("[gateway] read err: %v", rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		s.handleFrame(data)
	}

	s.connMu.Lock()
	if s.conn == ws {
		s.conn = nil
	}
	s.connMu.Unlock()
}

// OneBot 支持 query access_token 或 Authorization: Bearer 两种携带方式
func (s *Server) checkAccessToken(c *gin.Context) bool {
	if s.cfg.AccessToken == "" {
		return true
	}
	token := c.Query("access_token")
	if token == "" {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[len("bearer "):])
		}
	}
	return token == s.cfg.AccessToken
}

func (s *Server) handleFrame(data []byte) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		sample := data
		if len(sample) > 256 {
			sample = sample[:256]
		}
		glog.Infof("[gateway] drop non-json frame: %s", sample)
		return
	}

	// 动作应答：带 echo、不带 post_type
	if _, hasEcho := m["echo"]; hasEcho {
		if _, isEvent := m["post_type"]; !isEvent {
			s.dispatchResponse(data)
			return
		}
	}

	ev, ok := ParseEvent(m)
	if !ok {
		glog.Infof("[gateway] drop malformed event")
		return
	}

	switch ev.Kind {
	case EventGroupMessage:
		s.publishEvent(global.BizEventMessage, ev.Message)
	case EventJoinRequest:
		s.publishEvent(global.BizEventRequest, ev.Request)
	case EventIgnored:
	}
}

func (s *Server) publishEvent(biz string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		glog.Errorf("[gateway] marshal event: %v", err)
		return
	}
	if err := s.bus.Publish(context.Background(), biz, data, nil); err != nil {
		glog.Errorf("[gateway] publish %s: %v", biz, err)
	}
}

func (s *Server) dispatchResponse(data []byte) {
	var resp ActionResponse
	if err := json.Unmarshal(data, &resp); err != nil || resp.Echo == "" {
		return
	}
	s.pendMu.Lock()
	ch, ok := s.pending[resp.Echo]
	if ok {
		delete(s.pending, resp.Echo)
	}
	s.pendMu.Unlock()
	if ok {
		ch <- &resp
	}
}

// writeFrame 串行化所有 WS 写（gorilla 不允许并发写）
func (s *Server) writeFrame(f ActionFrame) error {
	s.connMu.Lock()
	ws := s.conn
	s.connMu.Unlock()
	if ws == nil {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return ws.WriteJSON(f)
}

// ---- 总线动作处理 ----

// onActionSend 发群消息：发出动作帧后等 echo 应答，把 message_id 回给请求方。
func (s *Server) onActionSend(_ context.Context, msg natsx.NatsxMessage) ([]byte, error) {
	var req struct {
		GroupID int64  `json:"group_id"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, err
	}

	echo := ids.GenerateString()
	ch := make(chan *ActionResponse, 1)
	s.pendMu.Lock()
	s.pending[echo] = ch
	s.pendMu.Unlock()

	cleanup := func() {
		s.pendMu.Lock()
		delete(s.pending, echo)
		s.pendMu.Unlock()
	}

	if err := s.writeFrame(BuildSendGroupMsg(req.GroupID, req.Text, echo)); err != nil {
		cleanup()
		return nil, err
	}

	select {
	case resp := <-ch:
		if !resp.IsOK() {
			glog.Infof("[gateway] send_group_msg retcode=%d group=%d", resp.RetCode, req.GroupID)
			return nil, ErrActionFailed
		}
		var data struct {
			MessageID int64 `json:"message_id"`
		}
		_ = json.Unmarshal(resp.Data, &data)
		return json.Marshal(map[string]int64{"message_id": data.MessageID})
	case <-time.After(actionTimeout):
		cleanup()
		return nil, ErrActionTimeout
	}
}

func (s *Server) onActionDelete(_ context.Context, msg natsx.NatsxMessage) error {
	var req struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return err
	}
	if err := s.writeFrame(BuildDeleteMsg(req.MessageID)); err != nil {
		glog.Infof("[gateway] delete_msg write failed: msg=%d err=%v", req.MessageID, err)
	}
	return nil
}

func (s *Server) onActionReview(_ context.Context, msg natsx.NatsxMessage) error {
	var req struct {
		Flag    string `json:"flag"`
		SubType string `json:"sub_type"`
		Approve bool   `json:"approve"`
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return err
	}
	if err := s.writeFrame(BuildGroupAddReview(req.Flag, req.SubType, req.Approve)); err != nil {
		glog.Infof("[gateway] set_group_add_request write failed: flag=%s err=%v", req.Flag, err)
	}
	return nil
}
