package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kot-Pawel/squashLeague/config"
	"github.com/Kot-Pawel/squashLeague/internal/model"
	"github.com/Kot-Pawel/squashLeague/internal/repository"
	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
	pkgerrors "github.com/Kot-Pawel/squashLeague/pkg/errors"
	"github.com/Kot-Pawel/squashLeague/pkg/jwt"
	"github.com/Kot-Pawel/squashLeague/pkg/redis"
)

var errStoreDown = errors.New("store unavailable")

// ── Mock UserRepository ──

type mockUserRepo struct {
	users     map[string]*model.User
	order     []string
	seq       int
	getErr    error
	listErr   error
	updateErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	m.users[user.UserID] = user
	m.order = append(m.order, user.UserID)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	result := []model.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.User, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.users[id])
	}
	return result, nil
}

func (m *mockUserRepo) UpdateScreenName(_ context.Context, id, screenName string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.ScreenName = screenName
	return nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct {
	records map[string]*model.AvailabilityRecord
	order   []string
	// conflicts 次 Update 返回乐观锁冲突，模拟并发写入
	conflicts  int
	updates    int
	listErr    error
	updateErr  error
	lockCalled bool
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{records: make(map[string]*model.AvailabilityRecord)}
}

// clone 深拷贝，避免服务层修改直接写进 mock 存储
func cloneRecord(rec *model.AvailabilityRecord) *model.AvailabilityRecord {
	cp := *rec
	cp.Entries = make(model.AvailabilityEntries, len(rec.Entries))
	for i, e := range rec.Entries {
		cp.Entries[i] = model.AvailabilityEntry{Date: e.Date, Times: e.Times.Clone()}
	}
	return &cp
}

func (m *mockAvailabilityRepo) put(rec *model.AvailabilityRecord) {
	if _, ok := m.records[rec.OwnerID]; !ok {
		m.order = append(m.order, rec.OwnerID)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	m.records[rec.OwnerID] = cloneRecord(rec)
}

func (m *mockAvailabilityRepo) GetByOwner(_ context.Context, ownerID string) (*model.AvailabilityRecord, error) {
	if rec, ok := m.records[ownerID]; ok {
		return cloneRecord(rec), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAvailabilityRepo) LockByOwner(ctx context.Context, ownerID string) (*model.AvailabilityRecord, error) {
	m.lockCalled = true
	return m.GetByOwner(ctx, ownerID)
}

func (m *mockAvailabilityRepo) ListAll(_ context.Context) ([]model.AvailabilityRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.AvailabilityRecord, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *cloneRecord(m.records[id]))
	}
	return result, nil
}

func (m *mockAvailabilityRepo) Create(_ context.Context, rec *model.AvailabilityRecord) error {
	if _, ok := m.records[rec.OwnerID]; ok {
		return gorm.ErrDuplicatedKey
	}
	rec.Version = 1
	m.put(rec)
	return nil
}

func (m *mockAvailabilityRepo) Update(_ context.Context, rec *model.AvailabilityRecord) error {
	m.updates++
	if m.updateErr != nil {
		return m.updateErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		return pkgerrors.ErrOptimisticLock
	}
	cur, ok := m.records[rec.OwnerID]
	if !ok || cur.Version != rec.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version++
	m.records[rec.OwnerID] = cloneRecord(rec)
	return nil
}

// ── Mock MatchRequestRepository ──

type mockMatchRequestRepo struct {
	requests  []*model.MatchRequest
	seq       int
	now       time.Time
	getErr    error
	deleteErr error
	// raceOnCreate 模拟并发：CreateIfAbsent 前另一请求已写入同一四元组
	raceOnCreate bool
	// lostRace 模拟条件更新时状态已被并发修改
	lostRace bool
}

func newMockMatchRequestRepo(now time.Time) *mockMatchRequestRepo {
	return &mockMatchRequestRepo{now: now}
}

func (m *mockMatchRequestRepo) add(req *model.MatchRequest) *model.MatchRequest {
	if req.MatchRequestID == "" {
		m.seq++
		req.MatchRequestID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = model.MatchStatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = m.now.Add(time.Duration(m.seq) * time.Second)
	}
	m.requests = append(m.requests, req)
	return req
}

func (m *mockMatchRequestRepo) GetByID(_ context.Context, id string) (*model.MatchRequest, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, r := range m.requests {
		if r.MatchRequestID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMatchRequestRepo) FindByTuple(_ context.Context, fromID, toID, date, slot string) (*model.MatchRequest, error) {
	for _, r := range m.requests {
		if r.FromUserID == fromID && r.ToUserID == toID && r.Date == date && r.TimeSlot == slot {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMatchRequestRepo) CreateIfAbsent(ctx context.Context, req *model.MatchRequest) (bool, error) {
	if m.raceOnCreate {
		m.raceOnCreate = false
		cp := *req
		m.add(&cp)
		return false, nil
	}
	if _, err := m.FindByTuple(ctx, req.FromUserID, req.ToUserID, req.Date, req.TimeSlot); err == nil {
		return false, nil
	}
	m.add(req)
	return true, nil
}

func (m *mockMatchRequestRepo) UpdateStatusIfPending(_ context.Context, id, status string, at time.Time) (bool, error) {
	if m.lostRace {
		return false, nil
	}
	for _, r := range m.requests {
		if r.MatchRequestID == id && r.Status == model.MatchStatusPending {
			r.Status = status
			r.RespondedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (m *mockMatchRequestRepo) ListForUserSince(_ context.Context, userID, since string) ([]model.MatchRequest, error) {
	var result []model.MatchRequest
	for _, r := range m.requests {
		if (r.FromUserID == userID || r.ToUserID == userID) && r.Date >= since {
			result = append(result, *r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (m *mockMatchRequestRepo) DeleteForUserDate(_ context.Context, userID, date string) ([]model.MatchRequest, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	var kept []*model.MatchRequest
	var deleted []model.MatchRequest
	for _, r := range m.requests {
		if (r.FromUserID == userID || r.ToUserID == userID) && r.Date == date {
			deleted = append(deleted, *r)
			continue
		}
		kept = append(kept, r)
	}
	m.requests = kept
	return deleted, nil
}

func (m *mockMatchRequestRepo) CountAcceptedByUser(_ context.Context) ([]repository.PlayerGames, error) {
	counts := map[string]int64{}
	for _, r := range m.requests {
		if r.Status == model.MatchStatusAccepted {
			counts[r.FromUserID]++
			counts[r.ToUserID]++
		}
	}
	var result []repository.PlayerGames
	for id, n := range counts {
		result = append(result, repository.PlayerGames{UserID: id, Games: n})
	}
	return result, nil
}

// ── Fake Redis / Kafka ──

type fakeRedis struct {
	blacklist map[string]time.Duration
	names     map[string]string
	getErr    error
	gets      int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{blacklist: map[string]time.Duration{}, names: map[string]string{}}
}

func (f *fakeRedis) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.blacklist[jti] = ttl
	return nil
}

func (f *fakeRedis) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := f.blacklist[jti]
	return ok, nil
}

func (f *fakeRedis) GetDisplayName(_ context.Context, userID string) (string, error) {
	f.gets++
	if f.getErr != nil {
		return "", f.getErr
	}
	name, ok := f.names[userID]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return name, nil
}

func (f *fakeRedis) SetDisplayName(_ context.Context, userID, name string, _ time.Duration) error {
	f.names[userID] = name
	return nil
}

func (f *fakeRedis) InvalidateDisplayName(_ context.Context, userID string) error {
	delete(f.names, userID)
	return nil
}

type publishedEvent struct {
	Type        string
	AggregateID string
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(_ context.Context, eventType, aggregateID string, _ interface{}) {
	f.events = append(f.events, publishedEvent{Type: eventType, AggregateID: aggregateID})
}

func (f *fakePublisher) types() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// ── 测试辅助 ──

// testNow 2026-03-10 10:00 UTC，"今天" 为 2026-03-10
var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	svc       *Service
	deps      Deps
	users     *mockUserRepo
	avail     *mockAvailabilityRepo
	matches   *mockMatchRequestRepo
	redis     *fakeRedis
	publisher *fakePublisher
}

func newTestEnv() *testEnv {
	cfg := &config.Config{
		Redis: config.RedisConfig{NameCacheTTL: 10 * time.Minute},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Match:        config.MatchConfig{WindowDays: 14, MaxWindowDays: 60, Timezone: "UTC"},
		Availability: config.AvailabilityConfig{MaxDaysAhead: 30, MergeRetries: 3},
	}

	env := &testEnv{
		users:     newMockUserRepo(),
		avail:     newMockAvailabilityRepo(),
		matches:   newMockMatchRequestRepo(testNow),
		redis:     newFakeRedis(),
		publisher: &fakePublisher{},
	}
	repo := &repository.Repository{
		User:         env.users,
		Availability: env.avail,
		MatchRequest: env.matches,
	}
	env.deps = Deps{
		Config:    cfg,
		Repo:      repo,
		JWT:       jwt.NewManager(&cfg.Auth),
		Blacklist: env.redis,
		Names:     env.redis,
		Events:    env.publisher,
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return testNow },
	}
	env.svc = NewService(env.deps)
	return env
}

func (e *testEnv) addUser(id, email, screenName string) *model.User {
	u := &model.User{UserID: id, Email: email, ScreenName: screenName}
	u.CreatedAt = testNow
	e.users.users[id] = u
	e.users.order = append(e.users.order, id)
	return u
}

// addAvailability date → 时间段列表
func (e *testEnv) addAvailability(ownerID, email string, days map[string][]string, dates ...string) {
	rec := &model.AvailabilityRecord{OwnerID: ownerID, OwnerEmail: email, LastModified: testNow}
	for _, d := range dates {
		set, err := timeslot.ParseSet(days[d])
		if err != nil {
			panic(err)
		}
		rec.Entries = append(rec.Entries, model.AvailabilityEntry{Date: d, Times: set})
	}
	e.avail.put(rec)
}
