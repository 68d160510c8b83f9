package mocks

import (
	"context"

	"clinic-manager/core/calendar"

	"github.com/stretchr/testify/mock"
)

// Gateway is a mock implementation of calendar.Gateway
type Gateway struct {
	mock.Mock
}

func (m *Gateway) InsertEvent(ctx context.Context, calendarID string, body calendar.EventBody) (string, error) {
	args := m.Called(ctx, calendarID, body)
	return args.String(0), args.Error(1)
}

func (m *Gateway) UpdateEvent(ctx context.Context, calendarID, eventID string, body calendar.EventBody) (string, error) {
	args := m.Called(ctx, calendarID, eventID, body)
	return args.String(0), args.Error(1)
}

func (m *Gateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	args := m.Called(ctx, calendarID, eventID)
	return args.Error(0)
}

func (m *Gateway) ListEvents(ctx context.Context, calendarID, pageToken string) ([]calendar.Event, string, error) {
	args := m.Called(ctx, calendarID, pageToken)
	if events, ok := args.Get(0).([]calendar.Event); ok {
		return events, args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *Gateway) ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]calendar.CalendarInfo); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
