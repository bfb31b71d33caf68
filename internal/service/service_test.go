package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"Townhall/internal/model"
	"Townhall/internal/pkg/erp"
	"Townhall/internal/pkg/redis"
	"Townhall/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var repositoryAll = repository.PostQuery{Scope: repository.ScopeAll}

// setupRedis points the shared client at a throwaway miniredis
func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := redis.Rdb
	redis.Rdb = redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = redis.Rdb.Close()
		redis.Rdb = prev
	})
	return mr
}

type published struct {
	Channel string
	Payload []byte
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{Channel: channel, Payload: payload})
	return nil
}

func (p *recordingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Channel)
	}
	sort.Strings(out)
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = nil
}

// events decodes notification envelopes in publish order
func (p *recordingPublisher) events(t *testing.T) []notification {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]notification, 0, len(p.msgs))
	for _, m := range p.msgs {
		var n notification
		require.NoError(t, json.Unmarshal(m.Payload, &n))
		out = append(out, n)
	}
	return out
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetUserById(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetActiveUsersByIds(_ context.Context, ids []string) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0)
	for _, id := range ids {
		if u, ok := r.users[id]; ok && u.Active {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpsertUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpsertUsers(ctx context.Context, users []*model.User) error {
	for _, u := range users {
		_ = r.UpsertUser(ctx, u)
	}
	return nil
}

func (r *fakeUserRepo) DeactivateUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (r *fakeUserRepo) DeactivateMissing(_ context.Context, activeIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keep := make(map[string]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		keep[id] = struct{}{}
	}
	var n int64
	for id, u := range r.users {
		if _, ok := keep[id]; !ok && u.Active {
			u.Active = false
			n++
		}
	}
	return n, nil
}

type fakeFollowRepo struct {
	mu      sync.Mutex
	follows []*model.UserFollow
	calls   int
}

func (r *fakeFollowRepo) GetUserFollowingIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	ids := make([]string, 0)
	for _, f := range r.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

func (r *fakeFollowRepo) GetUserFollowing(_ context.Context, userID string, limit, offset int) ([]*model.UserFollow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserFollow
	for _, f := range r.follows {
		if f.FollowerID == userID {
			out = append(out, f)
		}
	}
	if offset >= len(out) {
		return []*model.UserFollow{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *fakeFollowRepo) GetUserFollowingCount(ctx context.Context, userID string) (int64, error) {
	ids, _ := r.GetUserFollowingIDs(ctx, userID)
	return int64(len(ids)), nil
}

func (r *fakeFollowRepo) GetUserFollow(_ context.Context, userID string, followingID string) (*model.UserFollow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.follows {
		if f.FollowerID == userID && f.FollowingID == followingID {
			return f, nil
		}
	}
	return nil, nil
}

func (r *fakeFollowRepo) CreateUserFollow(_ context.Context, userFollow *model.UserFollow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.follows {
		if f.FollowerID == userFollow.FollowerID && f.FollowingID == userFollow.FollowingID {
			return gorm.ErrDuplicatedKey
		}
	}
	userFollow.CreatedAt = time.Now()
	r.follows = append(r.follows, userFollow)
	return nil
}

func (r *fakeFollowRepo) DeleteUserFollow(_ context.Context, userFollow *model.UserFollow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.follows[:0]
	for _, f := range r.follows {
		if f.FollowerID == userFollow.FollowerID && f.FollowingID == userFollow.FollowingID {
			continue
		}
		kept = append(kept, f)
	}
	r.follows = kept
	return nil
}

type fakeDirectory struct {
	users map[string]erp.DirectoryUser
	err   error
	calls int
}

func (d *fakeDirectory) GetUser(_ context.Context, id string) (*erp.DirectoryUser, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	u, ok := d.users[id]
	if !ok {
		return nil, erp.ErrUserNotFound
	}
	return &u, nil
}

func (d *fakeDirectory) ListAllEnabledUsers(_ context.Context) ([]erp.DirectoryUser, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	out := make([]erp.DirectoryUser, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	return out, nil
}

type testEnv struct {
	postRepo  repository.PostRepo
	users     *fakeUserRepo
	follows   *fakeFollowRepo
	realtime  *recordingPublisher
	notifyPub *recordingPublisher
	fanout    FanoutService
	notify    NotifyService
	posts     PostService
	actions   PostActionService
	feed      *feedServiceImpl
	followSvc UserFollowService
}

func activeUser(id, department string) *model.User {
	return &model.User{ID: id, Email: id + "@corp.test", FullName: id, Department: department, Active: true}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	setupRedis(t)

	env := &testEnv{
		postRepo: repository.NewMemoryPostRepo(),
		users: newFakeUserRepo(
			activeUser("alice", "Eng"),
			activeUser("bob", "Sales"),
			activeUser("carol", "Eng"),
			activeUser("dave", "Eng"),
			&model.User{ID: "gone", Department: "Eng", Active: false},
		),
		follows:   &fakeFollowRepo{},
		realtime:  &recordingPublisher{},
		notifyPub: &recordingPublisher{},
	}
	env.fanout = NewFanoutService(env.realtime, time.Second)
	env.notify = NewNotifyService(env.notifyPub, "", "", time.Second)
	env.posts = NewPostService(env.postRepo, env.users, env.fanout, env.notify)
	env.actions = NewPostActionService(env.postRepo, env.users, env.notify)
	env.followSvc = NewUserFollowService(env.follows, env.users)
	env.feed = NewFeedService(env.postRepo, env.users, env.followSvc, FeedOptions{}).(*feedServiceImpl)
	return env
}

// flush waits for async fanout and notifications
func (e *testEnv) flush() {
	e.fanout.Close()
	e.notify.Close()
}

func viewerOf(id, department string) *model.Viewer {
	return &model.Viewer{ID: id, Department: department}
}

func moderator(id string) *model.Viewer {
	return &model.Viewer{ID: id, Department: "HR", IsModerator: true}
}

// seed stores a post directly, bypassing validation
func (e *testEnv) seed(t *testing.T, p *model.Post) *model.Post {
	t.Helper()
	if p.Type == "" {
		p.Type = model.PostTypeShare
	}
	if p.Visibility == "" {
		p.Visibility = model.VisibilityPublic
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	require.NoError(t, e.postRepo.Create(context.Background(), p))
	return p
}

func reactions(n int) []model.Reaction {
	out := make([]model.Reaction, n)
	for i := range out {
		out[i] = model.Reaction{UserID: "u" + string(rune('a'+i)), Type: "like"}
	}
	return out
}
