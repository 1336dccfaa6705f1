package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/crowdfund/internal/model"
	"gorm.io/gorm"
)

// EventStore 事件记录
type EventStore struct {
	db *gorm.DB
}

// NewEventStore 创建事件存储
func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

// Record 写入一条事件
func (s *EventStore) Record(ctx context.Context, event *model.EventModel) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record %s event: %w", event.EventType, err)
	}
	return nil
}

// List 分页查询事件，eventType 为空时返回全部类型
func (s *EventStore) List(ctx context.Context, eventType model.EventType, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	query := s.db.WithContext(ctx).Model(&model.EventModel{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, total, nil
}

// Exists 是否已有该类型的事件
func (s *EventStore) Exists(ctx context.Context, eventType model.EventType) (bool, error) {
	var event model.EventModel
	err := s.db.WithContext(ctx).Where("event_type = ?", eventType).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query %s events: %w", eventType, err)
	}
	return true, nil
}

// All 按类型读取全部事件，用于统计
func (s *EventStore) All(ctx context.Context, eventType model.EventType) ([]model.EventModel, error) {
	var events []model.EventModel
	if err := s.db.WithContext(ctx).Where("event_type = ?", eventType).Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s events: %w", eventType, err)
	}
	return events, nil
}
