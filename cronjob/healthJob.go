package cronjob

import (
	"context"

	"github.com/ZKyNetOfficial/zkynet-client/config"
	"github.com/ZKyNetOfficial/zkynet-client/logger"
	"github.com/ZKyNetOfficial/zkynet-client/service"
)

// HealthCheckJob re-probes the currently connected server. On a failed
// probe it drives the disconnect-and-reconnect cycle the orchestrator
// itself never initiates.
type HealthCheckJob struct {
	connection *service.ConnectionService
	tunnels    *service.TunnelService
	servers    []config.Server
}

func NewHealthCheckJob(connection *service.ConnectionService, tunnels *service.TunnelService, servers []config.Server) *HealthCheckJob {
	return &HealthCheckJob{
		connection: connection,
		tunnels:    tunnels,
		servers:    servers,
	}
}

func (j *HealthCheckJob) Run() {
	active, err := j.tunnels.FindActive()
	if err != nil {
		logger.Warning("health check: reading active tunnel failed:", err)
		return
	}
	if active == nil {
		return
	}
	server := j.serverForRecord(active.Name)
	if server == nil {
		logger.Debugf("health check: no server matches record %s", active.Name)
		return
	}
	if j.connection.HealthCheck(server) {
		return
	}
	logger.Warningf("health check: %s unreachable, reconnecting", server.Name)
	if err := j.connection.Disconnect(); err != nil {
		logger.Warning("health check: disconnect failed:", err)
	}
	outcome := j.connection.Connect(context.Background(), server)
	if failed, ok := outcome.(service.Failed); ok {
		logger.Warningf("health check: reconnect to %s failed: %s", server.Name, failed.Message())
	}
}

func (j *HealthCheckJob) serverForRecord(recordName string) *config.Server {
	for i := range j.servers {
		if service.RecordNameFor(j.servers[i].Name) == recordName {
			return &j.servers[i]
		}
	}
	return nil
}
