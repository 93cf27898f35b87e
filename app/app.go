package app

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ZKyNetOfficial/zkynet-client/api"
	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/core"
	"github.com/ZKyNetOfficial/zkynet-client/cronjob"
	"github.com/ZKyNetOfficial/zkynet-client/database"
	"github.com/ZKyNetOfficial/zkynet-client/logger"
	"github.com/ZKyNetOfficial/zkynet-client/service"
	"github.com/ZKyNetOfficial/zkynet-client/telegram"
	"github.com/ZKyNetOfficial/zkynet-client/web"

	"github.com/op/go-logging"
	"github.com/robfig/cron/v3"
)

type APP struct {
	servers []config.Server

	probe      *service.ProbeService
	peers      *service.PeerStoreService
	peerApi    *service.PeerApiService
	validator  *service.ValidationService
	tunnels    *service.TunnelService
	breaker    *service.CircuitBreaker
	connection *service.ConnectionService

	webServer      *web.Server
	cronJob        *cronjob.CronJob
	telegramConfig *telegram.Config
	isBotStarted   bool
}

func NewApp() *APP {
	return &APP{}
}

func (a *APP) Init() error {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	a.initLog()

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		return err
	}

	a.initTelegramConfig()

	a.servers, err = config.LoadServers(config.GetServersPath())
	if err != nil {
		return err
	}

	a.probe = service.NewProbeService()
	a.peers = service.NewPeerStoreService()
	a.peerApi = service.NewPeerApiService(config.GetConfigFolderPath())
	a.validator = service.NewValidationService(a.peers, a.peerApi)
	a.tunnels = service.NewTunnelService()
	a.breaker = service.NewCircuitBreaker()
	a.connection = service.NewConnectionService(
		a.probe, a.validator, a.peers, a.peerApi, a.tunnels, core.NewWgManager(), a.breaker)
	a.connection.SetMessageHook(telegram.Notify)

	apiService := api.NewApiService(a.connection, a.tunnels, a.peers, a.breaker, a.servers)
	a.webServer = web.NewServer(apiService)
	a.cronJob = cronjob.NewCronJob()

	return nil
}

func (a *APP) Start() error {
	err := a.cronJob.Start(time.Local, map[string]cron.Job{
		"@every 30s": cronjob.NewHealthCheckJob(a.connection, a.tunnels, a.servers),
	})
	if err != nil {
		return err
	}

	err = a.webServer.Start()
	if err != nil {
		return err
	}

	if a.telegramConfig != nil && a.telegramConfig.Enabled && !a.isBotStarted {
		go telegram.Start(context.Background(), a.telegramConfig, a)
		a.isBotStarted = true
	}

	return nil
}

func (a *APP) Stop() {
	a.cronJob.Stop()
	if err := a.connection.Disconnect(); err != nil {
		logger.Warning("stop tunnel err:", err)
	}
	if err := a.webServer.Stop(); err != nil {
		logger.Warning("stop Web Server err:", err)
	}
	telegram.Stop()
}

func (a *APP) initLog() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

func (a *APP) initTelegramConfig() {
	file, err := os.ReadFile("telegram_config.json")
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("telegram_config.json not found, Telegram bot is disabled.")
			return
		}
		logger.Warning("Error reading telegram_config.json:", err)
		return
	}

	var cfg telegram.Config
	if err := json.Unmarshal(file, &cfg); err != nil {
		logger.Warning("Error unmarshalling telegram_config.json:", err)
		return
	}
	a.telegramConfig = &cfg
}

// ConnectedServer implements telegram.AppServices.
func (a *APP) ConnectedServer() string {
	active, err := a.tunnels.FindActive()
	if err != nil || active == nil {
		return ""
	}
	for i := range a.servers {
		if a.servers[i].Id == active.ServerId {
			return a.servers[i].Name
		}
	}
	return active.Name
}

// ServerNames implements telegram.AppServices.
func (a *APP) ServerNames() []string {
	names := make([]string, 0, len(a.servers))
	for i := range a.servers {
		names = append(names, a.servers[i].Name)
	}
	return names
}

// GetLogs implements telegram.AppServices.
func (a *APP) GetLogs(limit string, level string) []string {
	c := 20
	if n, err := strconv.Atoi(limit); err == nil {
		c = n
	}
	return logger.GetLogs(c, level)
}
