package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"arkman.dev/cli/internal/application/ports"
)

func isBroadcast(cmd string) bool { return strings.HasPrefix(cmd, "broadcast ") }

func TestRestartService_Restart(t *testing.T) {
	console := new(MockConsole)
	console.On("Execute", mock.Anything, mock.MatchedBy(isBroadcast)).Return("Server received, But no response!!", nil)
	console.On("Execute", mock.Anything, "saveworld").Return("World Saved", nil)
	console.On("Execute", mock.Anything, "listplayers").Return("No Players Connected", nil)

	panel := new(MockPanel)
	panel.On("Login").Return(nil)
	panel.On("Restart", "101").Return(&ports.PanelResponse{ServerID: "101", StatusCode: 200, Message: "Server restarted"}, nil)
	panel.On("Restart", "102").Return(nil, errors.New("503"))

	sleeps := 0
	sleep := func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}

	var ticks []int
	svc := NewRestartService(NewConsoleService(console, &recordingLogger{}), panel, &recordingLogger{}, "", WithSleep(sleep))
	report, err := svc.Restart(context.Background(), testServers(), RestartOptions{
		Delay:  2 * time.Minute,
		OnTick: func(left int) { ticks = append(ticks, left) },
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.OperationID)
	assert.Equal(t, []int{120, 60, 40, 20}, report.Notifications)
	assert.Equal(t, 120, sleeps)
	assert.Len(t, ticks, 120)
	assert.Equal(t, 1, ticks[len(ticks)-1])

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "Server restarted", report.Outcomes[0].Response.Message)
	assert.Error(t, report.Outcomes[1].Err)

	console.AssertCalled(t, "Execute", "Island", "broadcast Server will be restarted in 2 min. 0 sec.")
	console.AssertCalled(t, "Execute", "Ragnarok", "broadcast Server will be restarted in 0 min. 20 sec.")
	console.AssertNumberOfCalls(t, "Execute", 4*2+2+2)
	panel.AssertExpectations(t)
}

func TestRestartService_CancelDuringCountdown(t *testing.T) {
	console := new(MockConsole)
	console.On("Execute", mock.Anything, mock.Anything).Return("", nil)
	panel := new(MockPanel)

	calls := 0
	sleep := func(ctx context.Context, d time.Duration) error {
		calls++
		if calls == 3 {
			return context.Canceled
		}
		return nil
	}

	svc := NewRestartService(NewConsoleService(console, &recordingLogger{}), panel, &recordingLogger{}, "", WithSleep(sleep))
	_, err := svc.Restart(context.Background(), testServers(), RestartOptions{Delay: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
	panel.AssertNotCalled(t, "Login")
}

func TestRestartService_Preconditions(t *testing.T) {
	panel := new(MockPanel)
	svc := NewRestartService(NewConsoleService(new(MockConsole), &recordingLogger{}), panel, &recordingLogger{}, "")

	_, err := svc.Restart(context.Background(), nil, RestartOptions{Delay: time.Minute})
	assert.ErrorContains(t, err, "no servers selected")

	servers := testServers()
	servers[1].PanelID = ""
	_, err = svc.Restart(context.Background(), servers, RestartOptions{Delay: time.Minute})
	assert.ErrorContains(t, err, "Ragnarok has no panel id")
}

func TestRestartService_LoginFailure(t *testing.T) {
	panel := new(MockPanel)
	panel.On("Login").Return(errors.New("Failed to retrieve a CSRF token"))

	svc := NewRestartService(NewConsoleService(new(MockConsole), &recordingLogger{}), panel, &recordingLogger{}, "")
	_, err := svc.Restart(context.Background(), testServers(), RestartOptions{})
	assert.ErrorContains(t, err, "panel login failed")
	panel.AssertNotCalled(t, "Restart", mock.Anything)
}
