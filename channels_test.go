package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/MrKevinOConnell/api"
	"github.com/MrKevinOConnell/api/repository"
)

const (
	addrAlice = "0x00000000000000000000000000000000000000a1"
	addrBob   = "0x00000000000000000000000000000000000000b2"
	addrCarol = "0x00000000000000000000000000000000000000c3"
)

func TestChannelService_CreateDMChannel(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	service := api.NewChannelService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)

	t.Run("creates a dm channel with the creator in the member list", func(t *testing.T) {
		channel, err := service.CreateDMChannel(ctx, alice, []string{bob.ID.String()})
		require.NoError(t, err)

		assert.Equal(t, api.ChannelKindDM, channel.Kind)
		assert.Equal(t, alice.ID, channel.OwnerID)
		require.Len(t, channel.Members, 2)
		assert.Equal(t, alice.ID.String(), channel.Members[0])
		assert.True(t, channel.HasMember(bob.ID))
	})

	t.Run("is idempotent by member set", func(t *testing.T) {
		carol := seedUser(t, repos, addrCarol)

		first, err := service.CreateDMChannel(ctx, alice, []string{bob.ID.String(), carol.ID.String()})
		require.NoError(t, err)

		// Same set, different order and explicit creator.
		second, err := service.CreateDMChannel(ctx, alice, []string{carol.ID.String(), alice.ID.String(), bob.ID.String()})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("different member sets create different channels", func(t *testing.T) {
		carol := seedUser(t, repos, addrCarol)

		pair, err := service.CreateDMChannel(ctx, alice, []string{bob.ID.String()})
		require.NoError(t, err)

		trio, err := service.CreateDMChannel(ctx, alice, []string{bob.ID.String(), carol.ID.String()})
		require.NoError(t, err)

		assert.NotEqual(t, pair.ID, trio.ID)
	})
}

func TestChannelService_CreateServerChannel(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	channels := api.NewChannelService(repos)
	servers := api.NewServerService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)

	server, err := servers.CreateServer(ctx, alice, api.CreateServerInput{Name: "clubhouse"})
	require.NoError(t, err)

	t.Run("members can create channels", func(t *testing.T) {
		channel, err := channels.CreateServerChannel(ctx, alice, server.ID, "general")
		require.NoError(t, err)

		assert.Equal(t, api.ChannelKindServer, channel.Kind)
		require.NotNil(t, channel.ServerID)
		assert.Equal(t, server.ID, *channel.ServerID)
		assert.Equal(t, "general", channel.Name)
	})

	t.Run("non-members cannot see the server", func(t *testing.T) {
		_, err := channels.CreateServerChannel(ctx, bob, server.ID, "sneaky")
		require.Error(t, err)
		assert.True(t, repository.IsForbidden(err))
	})
}

func TestChannelService_CreateChannel(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	service := api.NewChannelService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)

	t.Run("dispatches dm creation", func(t *testing.T) {
		channel, err := service.CreateChannel(ctx, alice, api.CreateChannelInput{
			Kind:    api.ChannelKindDM,
			Members: []string{bob.ID.String()},
		})
		require.NoError(t, err)
		assert.Equal(t, api.ChannelKindDM, channel.Kind)
	})

	t.Run("rejects a server channel without a server", func(t *testing.T) {
		_, err := service.CreateChannel(ctx, alice, api.CreateChannelInput{
			Kind: api.ChannelKindServer,
			Name: "general",
		})
		assert.Error(t, err)
	})

	t.Run("rejects an unknown kind", func(t *testing.T) {
		_, err := service.CreateChannel(ctx, alice, api.CreateChannelInput{Kind: "group"})
		assert.Error(t, err)
	})
}

func TestChannelService_GetChannels(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	channels := api.NewChannelService(repos)
	servers := api.NewServerService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)
	carol := seedUser(t, repos, addrCarol)

	server, err := servers.CreateServer(ctx, alice, api.CreateServerInput{Name: "clubhouse"})
	require.NoError(t, err)
	_, err = servers.JoinServer(ctx, bob, server.ID)
	require.NoError(t, err)

	_, err = channels.CreateServerChannel(ctx, alice, server.ID, "general")
	require.NoError(t, err)

	dm, err := channels.CreateDMChannel(ctx, alice, []string{bob.ID.String()})
	require.NoError(t, err)

	t.Run("server channels are visible to members", func(t *testing.T) {
		got, err := channels.GetServerChannels(ctx, bob, server.ID)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("server channels are hidden from outsiders", func(t *testing.T) {
		got, err := channels.GetServerChannels(ctx, carol, server.ID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("dm channels list only the actor's conversations", func(t *testing.T) {
		got, err := channels.GetDMChannels(ctx, bob)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, dm.ID, got[0].ID)

		none, err := channels.GetDMChannels(ctx, carol)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestChannelService_DeleteChannel(t *testing.T) {
	ctx := context.Background()
	repos := newTestManager(t)
	channels := api.NewChannelService(repos)
	servers := api.NewServerService(repos)

	alice := seedUser(t, repos, addrAlice)
	bob := seedUser(t, repos, addrBob)

	server, err := servers.CreateServer(ctx, alice, api.CreateServerInput{Name: "clubhouse"})
	require.NoError(t, err)
	_, err = servers.JoinServer(ctx, bob, server.ID)
	require.NoError(t, err)

	t.Run("dm channels can never be deleted", func(t *testing.T) {
		dm, err := channels.CreateDMChannel(ctx, alice, []string{bob.ID.String()})
		require.NoError(t, err)

		err = channels.DeleteChannel(ctx, alice, dm.ID)
		assert.ErrorIs(t, err, api.ErrForbidden)
	})

	t.Run("channel owner who is not server owner cannot delete", func(t *testing.T) {
		channel, err := channels.CreateServerChannel(ctx, bob, server.ID, "bobs-corner")
		require.NoError(t, err)

		err = channels.DeleteChannel(ctx, bob, channel.ID)
		assert.ErrorIs(t, err, api.ErrForbidden)
	})

	t.Run("owner of both channel and server deletes", func(t *testing.T) {
		channel, err := channels.CreateServerChannel(ctx, alice, server.ID, "doomed")
		require.NoError(t, err)

		require.NoError(t, channels.DeleteChannel(ctx, alice, channel.ID))

		_, err = repos.Channels().GetByID(ctx, channel.ID, alice.ID)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}
