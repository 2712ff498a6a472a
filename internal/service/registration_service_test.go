package service

import (
	"context"
	"testing"
	"time"

	"eventhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_IsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "manager", models.RoleHost)
	u := f.user(t, "user", models.RoleUser)
	e := f.event(t, m, "Picnic", time.Now().Add(time.Hour))

	first, created, err := f.registrations.Register(ctx, u.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.Accepted)

	second, created, err := f.registrations.Register(ctx, u.ID, e.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, int64(1), f.count(t, &models.EventUser{}, "user_id = ? AND event_id = ?", u.ID, e.ID))
	sent := f.notifier.sentTo(m.ID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Content, "user")
	assert.Contains(t, sent[0].Content, "Picnic")
}

func TestRegister_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "manager", models.RoleHost)
	e := f.event(t, m, "Picnic", time.Now().Add(time.Hour))

	_, _, err := f.registrations.Register(ctx, 999, e.ID)
	assertCode(t, models.CodeNotFound, err)

	_, _, err = f.registrations.Register(ctx, m.ID, 999)
	assertCode(t, models.CodeNotFound, err)

	assert.Empty(t, f.notifier.sentTo(m.ID))
	assert.Zero(t, f.count(t, &models.Notification{}, ""))
}

func TestAcceptAndDeny_Authorization(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "manager", models.RoleHost)
	admin := f.user(t, "admin", models.RoleAdmin)
	u := f.user(t, "user", models.RoleUser)
	other := f.user(t, "other", models.RoleUser)
	e := f.event(t, m, "Hackathon", time.Now().Add(time.Hour))

	reg, _, err := f.registrations.Register(ctx, u.ID, e.ID)
	require.NoError(t, err)

	_, err = f.registrations.Accept(ctx, other, reg.ID)
	assertCode(t, models.CodeForbidden, err)
	assertCode(t, models.CodeForbidden, f.registrations.Deny(ctx, u, reg.ID))

	_, err = f.registrations.Accept(ctx, m, 999)
	assertCode(t, models.CodeNotFound, err)

	accepted, err := f.registrations.Accept(ctx, admin, reg.ID)
	require.NoError(t, err)
	assert.True(t, accepted.Accepted)
	require.Len(t, f.notifier.sentTo(u.ID), 1)

	_, err = f.registrations.Accept(ctx, m, reg.ID)
	require.NoError(t, err)
	assert.Len(t, f.notifier.sentTo(u.ID), 1)

	participants, err := f.registrations.ListByEvent(ctx, e.ID, boolPtr(true))
	require.NoError(t, err)
	require.Len(t, participants, 1)
	require.NotNil(t, participants[0].User)
	assert.Equal(t, "user", participants[0].User.Username)

	require.NoError(t, f.registrations.Deny(ctx, m, reg.ID))
	sent := f.notifier.sentTo(u.ID)
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Content, "Hackathon")
	assert.Contains(t, sent[1].Content, "declined")

	status, err := f.registrations.Status(ctx, u.ID, e.ID)
	require.NoError(t, err)
	assert.Nil(t, status)

	again, created, err := f.registrations.Register(ctx, u.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, again.Accepted)
}

func TestLeave(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "manager", models.RoleHost)
	u := f.user(t, "user", models.RoleUser)
	start := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	e := f.event(t, m, "Concert", start)

	_, _, err := f.registrations.Register(ctx, u.ID, e.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
	}{
		{"at start", start},
		{"after start", start.Add(time.Minute)},
	}
	for _, tt := range tests {
		err := f.registrations.leaveAt(ctx, u.ID, e.ID, tt.now)
		assertCode(t, models.CodeInvalidState, err)
		status, err := f.registrations.Status(ctx, u.ID, e.ID)
		require.NoError(t, err)
		assert.NotNil(t, status, tt.name)
	}

	require.NoError(t, f.registrations.leaveAt(ctx, u.ID, e.ID, start.Add(-time.Minute)))
	status, err := f.registrations.Status(ctx, u.ID, e.ID)
	require.NoError(t, err)
	assert.Nil(t, status)

	require.NoError(t, f.registrations.Leave(ctx, u.ID, e.ID), "leaving twice is a no-op")
	assertCode(t, models.CodeNotFound, f.registrations.Leave(ctx, u.ID, 999))
}

func TestMarkAttendanceAndReads(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	m := f.user(t, "manager", models.RoleHost)
	u := f.user(t, "user", models.RoleUser)
	e1 := f.event(t, m, "One", time.Now().Add(time.Hour))
	e2 := f.event(t, m, "Two", time.Now().Add(time.Hour))

	r1, _, err := f.registrations.Register(ctx, u.ID, e1.ID)
	require.NoError(t, err)
	_, _, err = f.registrations.Register(ctx, u.ID, e2.ID)
	require.NoError(t, err)
	_, err = f.registrations.Accept(ctx, m, r1.ID)
	require.NoError(t, err)

	_, err = f.registrations.MarkAttendance(ctx, u, r1.ID, true)
	assertCode(t, models.CodeForbidden, err)
	marked, err := f.registrations.MarkAttendance(ctx, m, r1.ID, true)
	require.NoError(t, err)
	assert.True(t, marked.Completed)
	_, err = f.registrations.MarkAttendance(ctx, m, 999, true)
	assertCode(t, models.CodeNotFound, err)

	joined, err := f.registrations.ListByUser(ctx, u.ID, boolPtr(true))
	require.NoError(t, err)
	require.Len(t, joined, 1)
	require.NotNil(t, joined[0].Event)
	assert.Equal(t, "One", joined[0].Event.Title)
	assert.True(t, joined[0].Completed)

	pending, err := f.registrations.ListByUser(ctx, u.ID, boolPtr(false))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, e2.ID, pending[0].EventID)

	all, err := f.registrations.ListByUser(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ids, err := f.registrations.AcceptedEventIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{e1.ID}, ids)

	_, err = f.registrations.ListByEvent(ctx, 999, nil)
	assertCode(t, models.CodeNotFound, err)
}
