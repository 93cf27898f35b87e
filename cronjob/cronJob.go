package cronjob

import (
	"time"

	"github.com/robfig/cron/v3"
)

type CronJob struct {
	cron *cron.Cron
}

func NewCronJob() *CronJob {
	return &CronJob{}
}

func (c *CronJob) Start(loc *time.Location, jobs map[string]cron.Job) error {
	c.cron = cron.New(cron.WithLocation(loc))
	for spec, job := range jobs {
		if _, err := c.cron.AddJob(spec, job); err != nil {
			return err
		}
	}
	c.cron.Start()
	return nil
}

func (c *CronJob) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}
