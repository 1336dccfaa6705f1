package scheduler

import (
	"context"
	"time"

	"github.com/blues/crowdfund/internal/campaign"
	"github.com/blues/crowdfund/internal/config"
	"github.com/blues/crowdfund/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

const defaultInterval = 30 * time.Second

// StatusResolver 由 host.Runtime 实现
type StatusResolver interface {
	ResolveStatus(ctx context.Context) (campaign.Status, bool, error)
}

// CampaignStatusJob 截止后记录一次最终阶段
type CampaignStatusJob struct {
	resolver StatusResolver
	config   *config.Config
}

// NewCampaignStatusJob 创建阶段观察任务
func NewCampaignStatusJob(resolver StatusResolver, cfg *config.Config) *CampaignStatusJob {
	return &CampaignStatusJob{
		resolver: resolver,
		config:   cfg,
	}
}

// GetName 获取任务名称
func (j *CampaignStatusJob) GetName() string {
	return "campaign_status_watcher"
}

// GetSchedule 获取调度配置
func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	interval := defaultInterval
	if j.config != nil && j.config.Task.Interval > 0 {
		interval = time.Duration(j.config.Task.Interval) * time.Second
	}
	return gocron.DurationJob(interval)
}

// Execute 执行任务
func (j *CampaignStatusJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status, recorded, err := j.resolver.ResolveStatus(ctx)
	if err != nil {
		logger.Error("Failed to resolve campaign status: %v", err)
		return
	}

	if recorded {
		logger.Info("Campaign resolved as %s", status)
		return
	}
	logger.Debug("Campaign status is %s", status)
}
