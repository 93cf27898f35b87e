package api

import (
	"net/http"

	"github.com/ZKyNetOfficial/zkynet-client/logger"

	"github.com/gin-gonic/gin"
)

type msgResponse struct {
	Success bool        `json:"success"`
	Msg     string      `json:"msg"`
	Obj     interface{} `json:"obj,omitempty"`
}

func jsonMsg(c *gin.Context, msg string, err error) {
	if err == nil {
		c.JSON(http.StatusOK, msgResponse{Success: true, Msg: msg})
		return
	}
	logger.Warning(msg, err)
	c.JSON(http.StatusOK, msgResponse{Success: false, Msg: msg + ": " + err.Error()})
}

func jsonObj(c *gin.Context, obj interface{}, err error) {
	if err != nil {
		jsonMsg(c, "request failed", err)
		return
	}
	c.JSON(http.StatusOK, msgResponse{Success: true, Obj: obj})
}

func pureJsonMsg(c *gin.Context, statusCode int, success bool, msg string) {
	c.JSON(statusCode, msgResponse{Success: success, Msg: msg})
}
