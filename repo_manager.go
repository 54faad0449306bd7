package api

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/MrKevinOConnell/api/repository"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Users() *UsersRepository
	Sessions() *SessionsRepository
	Channels() *repository.Repository[*Channel]
	ReadStates() *repository.Repository[*ChannelReadState]
	Servers() *repository.Repository[*Server]
	ServerMembers() *repository.Repository[*ServerMember]
	Messages() *repository.Repository[*Message]

	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

type mngr struct {
	db            *bun.DB
	users         *UsersRepository
	sessions      *SessionsRepository
	channels      *repository.Repository[*Channel]
	readStates    *repository.Repository[*ChannelReadState]
	servers       *repository.Repository[*Server]
	serverMembers *repository.Repository[*ServerMember]
	messages      *repository.Repository[*Message]
}

func NewRepositoryManager(db *bun.DB, pageSize int) RepositoryManager {
	return &mngr{
		db:            db,
		users:         NewUsersRepository(db, repository.WithPageSize[*User](pageSize)),
		sessions:      NewSessionsRepository(db, repository.WithPageSize[*RefreshToken](pageSize)),
		channels:      NewChannelsRepository(db, repository.WithPageSize[*Channel](pageSize)),
		readStates:    NewReadStatesRepository(db, repository.WithPageSize[*ChannelReadState](pageSize)),
		servers:       NewServersRepository(db, repository.WithPageSize[*Server](pageSize)),
		serverMembers: NewServerMembersRepository(db, repository.WithPageSize[*ServerMember](pageSize)),
		messages:      NewMessagesRepository(db, repository.WithPageSize[*Message](pageSize)),
	}
}

// channelVisibleSQL is the row-visibility predicate for channels: the actor
// owns the channel, appears in its DM member list, or belongs to its server.
const channelVisibleSQL = `(?TableAlias.owner_id = ? OR ?TableAlias.members LIKE ? OR (?TableAlias.server_id IS NOT NULL AND EXISTS (
	SELECT 1 FROM server_members AS sm WHERE sm.server_id = ?TableAlias.server_id AND sm.user_id = ?
)))`

// messageVisibleSQL scopes messages through their channel's visibility.
const messageVisibleSQL = `EXISTS (
	SELECT 1 FROM channels AS c WHERE c.id = ?TableAlias.channel_id AND (c.owner_id = ? OR c.members LIKE ? OR (c.server_id IS NOT NULL AND EXISTS (
		SELECT 1 FROM server_members AS sm WHERE sm.server_id = c.server_id AND sm.user_id = ?
	)))
)`

// serverVisibleSQL scopes servers to owners and members.
const serverVisibleSQL = `(?TableAlias.owner_id = ? OR EXISTS (
	SELECT 1 FROM server_members AS sm WHERE sm.server_id = ?TableAlias.id AND sm.user_id = ?
))`

// serverMemberVisibleSQL makes member rows visible to anyone in the same server.
const serverMemberVisibleSQL = `EXISTS (
	SELECT 1 FROM server_members AS sm WHERE sm.server_id = ?TableAlias.server_id AND sm.user_id = ?
)`

func memberPattern(actor uuid.UUID) string {
	// DM member lists are stored as a JSON string array, so the quoted id is
	// a reliable containment probe.
	return `%"` + actor.String() + `"%`
}

func NewChannelsRepository(db *bun.DB, opts ...repository.Option[*Channel]) *repository.Repository[*Channel] {
	return repository.NewRepository(db, repository.ModelHandlers[*Channel]{
		NewRecord: func() *Channel { return &Channel{} },
		GetID: func(c *Channel) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Channel, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
		SetOwner: func(c *Channel, owner uuid.UUID) {
			if c != nil {
				c.OwnerID = owner
			}
		},
		AccessScope: func(actor uuid.UUID) repository.SelectCriteria {
			return func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where(channelVisibleSQL, actor, memberPattern(actor), actor)
			}
		},
	}, opts...)
}

func NewReadStatesRepository(db *bun.DB, opts ...repository.Option[*ChannelReadState]) *repository.Repository[*ChannelReadState] {
	return repository.NewRepository(db, repository.ModelHandlers[*ChannelReadState]{
		NewRecord: func() *ChannelReadState { return &ChannelReadState{} },
		GetID: func(s *ChannelReadState) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *ChannelReadState, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		SetOwner: func(s *ChannelReadState, owner uuid.UUID) {
			if s != nil {
				s.UserID = owner
			}
		},
		AccessScope: func(actor uuid.UUID) repository.SelectCriteria {
			return func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("?TableAlias.user_id = ?", actor)
			}
		},
	}, opts...)
}

func NewServersRepository(db *bun.DB, opts ...repository.Option[*Server]) *repository.Repository[*Server] {
	return repository.NewRepository(db, repository.ModelHandlers[*Server]{
		NewRecord: func() *Server { return &Server{} },
		GetID: func(s *Server) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Server, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		SetOwner: func(s *Server, owner uuid.UUID) {
			if s != nil {
				s.OwnerID = owner
			}
		},
		AccessScope: func(actor uuid.UUID) repository.SelectCriteria {
			return func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where(serverVisibleSQL, actor, actor)
			}
		},
	}, opts...)
}

func NewServerMembersRepository(db *bun.DB, opts ...repository.Option[*ServerMember]) *repository.Repository[*ServerMember] {
	return repository.NewRepository(db, repository.ModelHandlers[*ServerMember]{
		NewRecord: func() *ServerMember { return &ServerMember{} },
		GetID: func(m *ServerMember) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *ServerMember, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		AccessScope: func(actor uuid.UUID) repository.SelectCriteria {
			return func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where(serverMemberVisibleSQL, actor)
			}
		},
	}, opts...)
}

func NewMessagesRepository(db *bun.DB, opts ...repository.Option[*Message]) *repository.Repository[*Message] {
	return repository.NewRepository(db, repository.ModelHandlers[*Message]{
		NewRecord: func() *Message { return &Message{} },
		GetID: func(m *Message) uuid.UUID {
			if m == nil {
				return uuid.Nil
			}
			return m.ID
		},
		SetID: func(m *Message, id uuid.UUID) {
			if m != nil {
				m.ID = id
			}
		},
		SetOwner: func(m *Message, owner uuid.UUID) {
			if m != nil {
				m.AuthorID = owner
			}
		},
		AccessScope: func(actor uuid.UUID) repository.SelectCriteria {
			return func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where(messageVisibleSQL, actor, memberPattern(actor), actor)
			}
		},
	}, opts...)
}

func (m mngr) Validate() error {
	if m.users == nil || m.sessions == nil {
		return errors.New("identity repositories should be initialized")
	}
	if m.channels == nil || m.readStates == nil || m.messages == nil {
		return errors.New("channel repositories should be initialized")
	}
	if m.servers == nil || m.serverMembers == nil {
		return errors.New("server repositories should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() *UsersRepository                               { return m.users }
func (m mngr) Sessions() *SessionsRepository                         { return m.sessions }
func (m mngr) Channels() *repository.Repository[*Channel]            { return m.channels }
func (m mngr) ReadStates() *repository.Repository[*ChannelReadState] { return m.readStates }
func (m mngr) Servers() *repository.Repository[*Server]              { return m.servers }
func (m mngr) ServerMembers() *repository.Repository[*ServerMember]  { return m.serverMembers }
func (m mngr) Messages() *repository.Repository[*Message]            { return m.messages }
