package service

import (
	"context"
	"errors"
	"testing"

	"powersense/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleDevice_FlipsOnlyTarget(t *testing.T) {
	devices := models.DefaultDevices()
	orig := models.DefaultDevices()

	got, found := ToggleDevice(devices, "1")
	require.True(t, found)
	assert.True(t, got[0].IsOn)
	assert.Equal(t, orig[1:], got[1:])
	assert.Equal(t, orig, devices, "input must not be modified")

	back, found := ToggleDevice(got, "1")
	require.True(t, found)
	assert.Equal(t, orig, back, "toggling twice restores the collection")
}

func TestToggle_UnknownIDAndEmpty(t *testing.T) {
	devices := models.DefaultDevices()
	got, found := ToggleDevice(devices, "nope")
	assert.False(t, found)
	assert.Equal(t, devices, got)

	empty, found := ToggleDevice([]models.Device{}, "1")
	assert.False(t, found)
	assert.Empty(t, empty)

	rules, found := ToggleRule(models.DefaultRules(), "3")
	require.True(t, found)
	assert.True(t, rules[2].IsEnabled)
	assert.Equal(t, models.DefaultRules()[:2], rules[:2])
}

func TestTotalConsumption(t *testing.T) {
	devices := models.DefaultDevices()
	assert.Equal(t, 500, TotalConsumption(devices))

	devices, _ = ToggleDevice(devices, "1") // geyser on
	assert.Equal(t, 3500, TotalConsumption(devices))
	assert.True(t, summarizeDevices(devices).Overloaded)

	devices, _ = ToggleDevice(devices, "5") // battery discharging
	assert.Equal(t, 2000, TotalConsumption(devices))
	assert.False(t, summarizeDevices(devices).Overloaded)
}

func TestReduce_IsPure(t *testing.T) {
	st := NewDashboardState()
	before := cloneState(st)

	next := Reduce(st, ToggleDeviceAction("2"))
	next = Reduce(next, ToggleRuleAction("1"))
	next = Reduce(next, Navigate(models.PageUsage))

	assert.Equal(t, before, st)
	assert.Equal(t, models.PageUsage, next.Page)
	assert.False(t, next.Devices[1].IsOn)
	assert.False(t, next.Rules[0].IsEnabled)
}

func TestReduce_Transitions(t *testing.T) {
	st := NewDashboardState()

	assert.Equal(t, st, Reduce(st, Navigate("settings")), "unknown page is ignored")
	assert.Equal(t, st, Reduce(st, ToggleDeviceAction("99")))

	loading := Reduce(st, TipsRequested())
	assert.Equal(t, models.TipsLoading, loading.TipStatus)
	assert.Empty(t, loading.Tips)

	tips := []string{"a", "b"}
	done := Reduce(loading, TipsResolved(tips))
	assert.Equal(t, models.TipsIdle, done.TipStatus)
	assert.Equal(t, tips, done.Tips)
	tips[0] = "changed"
	assert.Equal(t, "a", done.Tips[0], "resolved tips are copied")
}

func TestDashboardService_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	events := &fakeEventRepo{}
	rec := &recorderStub{}
	svc := NewDashboardService(events, rec, nil)

	d, err := svc.ToggleDevice(ctx, 1, "1")
	require.NoError(t, err)
	assert.True(t, d.IsOn)

	assert.True(t, svc.Devices(ctx, 1).Devices[0].IsOn)
	assert.False(t, svc.Devices(ctx, 2).Devices[0].IsOn, "other user keeps the seeded state")

	r, err := svc.ToggleRule(ctx, 2, "3")
	require.NoError(t, err)
	assert.True(t, r.IsEnabled)
	assert.False(t, svc.Rules(ctx, 1)[2].IsEnabled)

	st, err := svc.Navigate(ctx, 1, models.PageAutomation)
	require.NoError(t, err)
	assert.Equal(t, models.PageAutomation, st.Page)
	assert.Equal(t, models.PageSchedule, svc.State(ctx, 2).Page)

	assert.Equal(t, []string{models.EventDeviceToggle, models.EventRuleToggle, models.EventPageChange}, events.types())
	assert.Equal(t, 2, rec.toggles[true])
}

func TestDashboardService_Errors(t *testing.T) {
	ctx := context.Background()
	events := &fakeEventRepo{}
	rec := &recorderStub{}
	svc := NewDashboardService(events, rec, nil)

	_, err := svc.ToggleDevice(ctx, 1, "missing")
	assert.True(t, errors.Is(err, ErrDeviceNotFound))
	_, err = svc.ToggleRule(ctx, 1, "missing")
	assert.True(t, errors.Is(err, ErrRuleNotFound))
	_, err = svc.Navigate(ctx, 1, "settings")
	assert.True(t, errors.Is(err, ErrInvalidPage))

	assert.Empty(t, events.types())
	assert.Equal(t, 2, rec.toggles[false])
	assert.Equal(t, NewDashboardState(), svc.State(ctx, 1))
}

func TestDashboardService_EventAppendFailureIsIgnored(t *testing.T) {
	svc := NewDashboardService(&fakeEventRepo{appendErr: errors.New("disk full")}, nil, nil)
	d, err := svc.ToggleDevice(context.Background(), 1, "4")
	require.NoError(t, err)
	assert.False(t, d.IsOn)
}

func TestDashboardService_StateIsACopy(t *testing.T) {
	ctx := context.Background()
	svc := NewDashboardService(nil, nil, nil)
	st := svc.State(ctx, 1)
	st.Devices[0].IsOn = true
	assert.False(t, svc.State(ctx, 1).Devices[0].IsOn)
}
