package config

import (
	"fmt"
	"os"
)

var (
	name    = "ZKyNet-Client"
	version = "0.9.0"
)

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

func GetVersion() string {
	return version
}

func GetName() string {
	return name
}

func IsDebug() bool {
	return os.Getenv("ZKYNET_DEBUG") == "true"
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("ZKYNET_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("ZKYNET_DB_FOLDER")
	if dbFolderPath == "" {
		return "db"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), "zkynet")
}

// GetConfigFolderPath is where downloaded credential bundles are stored.
func GetConfigFolderPath() string {
	configFolderPath := os.Getenv("ZKYNET_CONFIG_FOLDER")
	if configFolderPath == "" {
		return "configs"
	}
	return configFolderPath
}

func GetServersPath() string {
	serversPath := os.Getenv("ZKYNET_SERVERS_FILE")
	if serversPath == "" {
		return "servers.yaml"
	}
	return serversPath
}

func GetListenAddr() string {
	listenAddr := os.Getenv("ZKYNET_LISTEN")
	if listenAddr == "" {
		return "127.0.0.1:2095"
	}
	return listenAddr
}
