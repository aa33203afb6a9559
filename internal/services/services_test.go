package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emilythestrangee/blogposts/backend/internal/auth"
	"github.com/emilythestrangee/blogposts/backend/internal/config"
	"github.com/emilythestrangee/blogposts/backend/internal/database"
	"github.com/emilythestrangee/blogposts/backend/internal/models"
)

type fixture struct {
	db    *gorm.DB
	users *UserService
	posts *PostService
	votes *VoteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	svc, err := database.New(config.Database{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "services.db"),
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	db := svc.GetDB()
	return &fixture{
		db:    db,
		users: NewUserService(db, auth.NewPasswordHasher(bcrypt.MinCost)),
		posts: NewPostService(db),
		votes: NewVoteService(db),
	}
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author *models.User, title string) *models.Post {
	t.Helper()
	p, err := f.posts.Create(context.Background(), author.ID, models.PostRequest{Title: title, Content: "content of " + title})
	require.NoError(t, err)
	return p
}

func (f *fixture) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
