package api

import (
	"context"
	"strconv"

	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/logger"
	"github.com/ZKyNetOfficial/zkynet-client/service"
	"github.com/ZKyNetOfficial/zkynet-client/util/common"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type ApiService struct {
	service.UserService
	connection *service.ConnectionService
	tunnels    *service.TunnelService
	peers      *service.PeerStoreService
	breaker    *service.CircuitBreaker
	servers    []config.Server
}

func NewApiService(connection *service.ConnectionService, tunnels *service.TunnelService,
	peers *service.PeerStoreService, breaker *service.CircuitBreaker, servers []config.Server) *ApiService {
	return &ApiService{
		connection: connection,
		tunnels:    tunnels,
		peers:      peers,
		breaker:    breaker,
		servers:    servers,
	}
}

func (a *ApiService) findServer(id string) *config.Server {
	for i := range a.servers {
		if a.servers[i].Id == id {
			return &a.servers[i]
		}
	}
	return nil
}

func (a *ApiService) Login(c *gin.Context) {
	var form struct {
		User string `json:"user" form:"user"`
		Pass string `json:"pass" form:"pass"`
	}
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, "login failed", err)
		return
	}
	user, err := a.UserService.Login(form.User, form.Pass)
	if err != nil {
		logger.Warningf("wrong credentials for user %s", form.User)
		jsonMsg(c, "login failed", common.NewError("wrong username or password"))
		return
	}
	if err := SetLoginUser(c, user.Username); err != nil {
		jsonMsg(c, "login failed", err)
		return
	}
	jsonMsg(c, "login ok", nil)
}

func (a *ApiService) Logout(c *gin.Context) {
	if err := ClearSession(c); err != nil {
		jsonMsg(c, "logout failed", err)
		return
	}
	jsonMsg(c, "logout ok", nil)
}

func (a *ApiService) Connect(c *gin.Context) {
	var form struct {
		Id string `json:"id" form:"id"`
	}
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, "connect failed", err)
		return
	}
	server := a.findServer(form.Id)
	if server == nil {
		jsonMsg(c, "connect failed", common.NewError("unknown server: ", form.Id))
		return
	}

	outcome := a.connection.Connect(c.Request.Context(), server)
	switch o := outcome.(type) {
	case service.Connected:
		jsonObj(c, gin.H{"outcome": "connected", "record": o.RecordName, "peerId": o.PeerId}, nil)
	case service.PermissionRequired:
		jsonObj(c, gin.H{"outcome": "permission_required"}, nil)
	case service.Failed:
		jsonObj(c, gin.H{"outcome": "failed", "reason": string(o.Reason), "message": o.Message()}, nil)
	}
}

func (a *ApiService) Disconnect(c *gin.Context) {
	if err := a.connection.Disconnect(); err != nil {
		jsonMsg(c, "disconnect failed", err)
		return
	}
	jsonMsg(c, "disconnected", nil)
}

// Cleanup revokes and forgets the peer identity for a server.
func (a *ApiService) Cleanup(c *gin.Context) {
	var form struct {
		Id string `json:"id" form:"id"`
	}
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, "cleanup failed", err)
		return
	}
	server := a.findServer(form.Id)
	if server == nil {
		jsonMsg(c, "cleanup failed", common.NewError("unknown server: ", form.Id))
		return
	}
	if err := a.connection.CleanupPeer(server); err != nil {
		jsonMsg(c, "cleanup failed", err)
		return
	}
	jsonMsg(c, "cleanup done", nil)
}

func (a *ApiService) Status(c *gin.Context) {
	active, err := a.tunnels.FindActive()
	if err != nil {
		jsonObj(c, nil, err)
		return
	}
	status := gin.H{
		"connected":       active != nil,
		"breakerOpen":     a.breaker.IsOpen(),
		"breakerFailures": a.breaker.Failures(),
	}
	if active != nil {
		status["record"] = active.Name
		status["serverId"] = active.ServerId
	}
	if uptime, err := host.Uptime(); err == nil {
		status["uptime"] = uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status["memUsedPercent"] = vm.UsedPercent
	}
	jsonObj(c, status, nil)
}

func (a *ApiService) Servers(c *gin.Context) {
	type serverView struct {
		Id          string `json:"id"`
		Name        string `json:"name"`
		Country     string `json:"country"`
		Enabled     bool   `json:"enabled"`
		HasIdentity bool   `json:"hasIdentity"`
	}
	views := make([]serverView, 0, len(a.servers))
	for i := range a.servers {
		s := &a.servers[i]
		views = append(views, serverView{
			Id:          s.Id,
			Name:        s.Name,
			Country:     s.Country,
			Enabled:     s.Enabled,
			HasIdentity: a.peers.HasIdentity(s),
		})
	}
	jsonObj(c, views, nil)
}

func (a *ApiService) Logs(c *gin.Context) {
	countStr := c.DefaultQuery("count", "50")
	level := c.DefaultQuery("level", "info")
	count, err := strconv.Atoi(countStr)
	if err != nil {
		count = 50
	}
	jsonObj(c, logger.GetLogs(count, level), nil)
}

// ConnectBackground is used by callers that should not block on the retry
// loop (the health job uses the service directly; this covers fire-and-
// forget connects from the UI).
func (a *ApiService) ConnectBackground(server *config.Server) {
	go func() {
		outcome := a.connection.Connect(context.Background(), server)
		if failed, ok := outcome.(service.Failed); ok {
			logger.Warningf("background connect to %s failed: %s", server.Name, failed.Message())
		}
	}()
}
