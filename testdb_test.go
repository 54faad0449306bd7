package api_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	api "github.com/MrKevinOConnell/api"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	models := []any{
		(*api.User)(nil),
		(*api.RefreshToken)(nil),
		(*api.Server)(nil),
		(*api.ServerMember)(nil),
		(*api.Channel)(nil),
		(*api.ChannelReadState)(nil),
		(*api.Message)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(context.Background()); err != nil {
			t.Fatalf("create table for %T: %v", model, err)
		}
	}

	return db
}

func newTestManager(t *testing.T) api.RepositoryManager {
	t.Helper()
	repos := api.NewRepositoryManager(newTestDB(t), 10)
	repos.MustValidate()
	return repos
}

func seedUser(t *testing.T, repos api.RepositoryManager, address string) *api.User {
	t.Helper()

	user, err := repos.Users().GetOrCreateByAddress(context.Background(), address, api.ShortAddress(address))
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
