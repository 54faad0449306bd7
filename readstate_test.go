package api_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/MrKevinOConnell/api"
)

func TestReadTimestamp_UnmarshalJSON(t *testing.T) {
	t.Run("integer literals are epoch milliseconds", func(t *testing.T) {
		var ts api.ReadTimestamp
		require.NoError(t, json.Unmarshal([]byte(`1700000000000`), &ts))
		assert.InDelta(t, 1_700_000_000.0, ts.Seconds(), 0.001)
	})

	t.Run("fractional literals are epoch seconds", func(t *testing.T) {
		var ts api.ReadTimestamp
		require.NoError(t, json.Unmarshal([]byte(`1700000000.25`), &ts))
		assert.InDelta(t, 1_700_000_000.25, ts.Seconds(), 0.001)
	})

	t.Run("exponent literals are epoch seconds", func(t *testing.T) {
		var ts api.ReadTimestamp
		require.NoError(t, json.Unmarshal([]byte(`1.7e9`), &ts))
		assert.InDelta(t, 1_700_000_000.0, ts.Seconds(), 0.001)
	})

	t.Run("rejects null and garbage", func(t *testing.T) {
		var ts api.ReadTimestamp
		assert.Error(t, json.Unmarshal([]byte(`null`), &ts))
		assert.Error(t, json.Unmarshal([]byte(`"noon"`), &ts))
	})
}

func TestReadStateService_UpdateChannelLastMessage(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	channels := api.NewChannelService(repos)
	service := api.NewReadStateService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)

	channel, err := channels.CreateDMChannel(ctx, alice, []string{bob.ID.String()})
	require.NoError(t, err)

	t.Run("sets the mark on first message", func(t *testing.T) {
		advanced, err := service.UpdateChannelLastMessage(ctx, alice, channel.ID, 100)
		require.NoError(t, err)
		assert.True(t, advanced)

		got, err := repos.Channels().GetByID(ctx, channel.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastMessageTS)
		assert.InDelta(t, 100.0, *got.LastMessageTS, 0.001)
	})

	t.Run("only ever moves forward", func(t *testing.T) {
		advanced, err := service.UpdateChannelLastMessage(ctx, alice, channel.ID, 200)
		require.NoError(t, err)
		assert.True(t, advanced)

		// An older message delivered late must not rewind the mark.
		advanced, err = service.UpdateChannelLastMessage(ctx, alice, channel.ID, 150)
		require.NoError(t, err)
		assert.False(t, advanced)

		got, err := repos.Channels().GetByID(ctx, channel.ID, alice.ID)
		require.NoError(t, err)
		assert.InDelta(t, 200.0, *got.LastMessageTS, 0.001)
	})

	t.Run("equal timestamp does not advance", func(t *testing.T) {
		advanced, err := service.UpdateChannelLastMessage(ctx, alice, channel.ID, 200)
		require.NoError(t, err)
		assert.False(t, advanced)
	})

	t.Run("invisible channel is not found", func(t *testing.T) {
		carol := seedUser(t, repos, addrCarol)
		_, err := service.UpdateChannelLastMessage(ctx, carol, channel.ID, 300)
		assert.Error(t, err)
	})
}

func TestReadStateService_UpdateChannelReadState(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	channels := api.NewChannelService(repos)
	service := api.NewReadStateService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)

	channel, err := channels.CreateDMChannel(ctx, alice, []string{bob.ID.String()})
	require.NoError(t, err)

	t.Run("creates the read state on first touch", func(t *testing.T) {
		state, err := service.UpdateChannelReadState(ctx, alice, channel.ID, api.ReadTimestamp(100))
		require.NoError(t, err)

		assert.Equal(t, alice.ID, state.UserID)
		assert.Equal(t, channel.ID, state.ChannelID)
		assert.InDelta(t, 100.0, state.LastReadTS, 0.001)
	})

	t.Run("updates in place, last writer wins", func(t *testing.T) {
		_, err := service.UpdateChannelReadState(ctx, alice, channel.ID, api.ReadTimestamp(200))
		require.NoError(t, err)

		state, err := service.UpdateChannelReadState(ctx, alice, channel.ID, api.ReadTimestamp(150))
		require.NoError(t, err)
		assert.InDelta(t, 150.0, state.LastReadTS, 0.001)

		states, err := repos.ReadStates().List(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, states, 1)
	})

	t.Run("first touch racing an existing row degrades to an update", func(t *testing.T) {
		carol := seedUser(t, repos, addrCarol)
		race, err := channels.CreateDMChannel(ctx, alice, []string{carol.ID.String()})
		require.NoError(t, err)

		// Another device already wrote the (user, channel) row.
		_, err = repos.ReadStates().Create(ctx, &api.ChannelReadState{
			ChannelID:    race.ID,
			LastReadTS:   50,
			MentionCount: 3,
		}, alice.ID)
		require.NoError(t, err)

		state, err := service.UpdateChannelReadState(ctx, alice, race.ID, api.ReadTimestamp(120))
		require.NoError(t, err)
		assert.InDelta(t, 120.0, state.LastReadTS, 0.001)
		assert.Equal(t, 0, state.MentionCount)

		states, err := repos.ReadStates().List(ctx, alice.ID)
		require.NoError(t, err)
		count := 0
		for _, s := range states {
			if s.ChannelID == race.ID {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("each member keeps an independent position", func(t *testing.T) {
		state, err := service.UpdateChannelReadState(ctx, bob, channel.ID, api.ReadTimestamp(75))
		require.NoError(t, err)
		assert.Equal(t, bob.ID, state.UserID)

		aliceStates, err := repos.ReadStates().List(ctx, alice.ID)
		require.NoError(t, err)
		for _, s := range aliceStates {
			assert.Equal(t, alice.ID, s.UserID)
		}
	})
}

func TestReadStateService_MarkChannelsRead(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	channels := api.NewChannelService(repos)
	service := api.NewReadStateService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)
	carol := seedUser(t, repos, addrCarol)

	first, err := channels.CreateDMChannel(ctx, alice, []string{bob.ID.String()})
	require.NoError(t, err)
	second, err := channels.CreateDMChannel(ctx, alice, []string{carol.ID.String()})
	require.NoError(t, err)
	hidden, err := channels.CreateDMChannel(ctx, bob, []string{carol.ID.String()})
	require.NoError(t, err)

	states, err := service.MarkChannelsRead(ctx, alice,
		[]uuid.UUID{first.ID, second.ID, hidden.ID, uuid.New()},
		api.ReadTimestamp(500),
	)
	require.NoError(t, err)

	// The invisible and unknown channels are skipped, not fatal.
	assert.Len(t, states, 2)
	for _, state := range states {
		assert.InDelta(t, 500.0, state.LastReadTS, 0.001)
	}
}
