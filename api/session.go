package api

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const loginUserKey = "LOGIN_USER"

func SetLoginUser(c *gin.Context, username string) error {
	s := sessions.Default(c)
	s.Set(loginUserKey, username)
	return s.Save()
}

func GetLoginUser(c *gin.Context) string {
	s := sessions.Default(c)
	user := s.Get(loginUserKey)
	if user == nil {
		return ""
	}
	username, _ := user.(string)
	return username
}

func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	return s.Save()
}

func checkLogin(c *gin.Context) {
	if GetLoginUser(c) == "" {
		pureJsonMsg(c, http.StatusUnauthorized, false, "login required")
		c.Abort()
		return
	}
	c.Next()
}
