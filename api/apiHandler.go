package api

import (
	"strings"

	"github.com/ZKyNetOfficial/zkynet-client/util/common"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	apiService *ApiService
}

func NewAPIHandler(g *gin.RouterGroup, apiService *ApiService) {
	a := &APIHandler{
		apiService: apiService,
	}
	a.initRouter(g)
}

func (a *APIHandler) initRouter(g *gin.RouterGroup) {
	g.Use(func(c *gin.Context) {
		path := c.Request.URL.Path
		if !strings.HasSuffix(path, "login") && !strings.HasSuffix(path, "logout") {
			checkLogin(c)
		}
	})
	g.POST("/:postAction", a.postHandler)
	g.GET("/:getAction", a.getHandler)
}

func (a *APIHandler) postHandler(c *gin.Context) {
	action := c.Param("postAction")

	switch action {
	case "login":
		a.apiService.Login(c)
	case "connect":
		a.apiService.Connect(c)
	case "connect_async":
		var form struct {
			Id string `json:"id" form:"id"`
		}
		if err := c.ShouldBind(&form); err != nil {
			jsonMsg(c, "connect failed", err)
			return
		}
		server := a.apiService.findServer(form.Id)
		if server == nil {
			jsonMsg(c, "connect failed", common.NewError("unknown server: ", form.Id))
			return
		}
		a.apiService.ConnectBackground(server)
		jsonMsg(c, "connect started", nil)
	case "disconnect":
		a.apiService.Disconnect(c)
	case "cleanup":
		a.apiService.Cleanup(c)
	default:
		jsonMsg(c, "failed", common.NewError("unknown action: ", action))
	}
}

func (a *APIHandler) getHandler(c *gin.Context) {
	action := c.Param("getAction")

	switch action {
	case "logout":
		a.apiService.Logout(c)
	case "status":
		a.apiService.Status(c)
	case "servers":
		a.apiService.Servers(c)
	case "logs":
		a.apiService.Logs(c)
	default:
		jsonMsg(c, "failed", common.NewError("unknown action: ", action))
	}
}
