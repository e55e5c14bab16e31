package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/lexhewitt/mcgann-boxing-sub000/internal/availability"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/model"
	"github.com/lexhewitt/mcgann-boxing-sub000/internal/repository"
	pkgerrors "github.com/lexhewitt/mcgann-boxing-sub000/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock CoachRepository ──

type mockCoachRepo struct {
	coaches map[string]*model.Coach
}

func newMockCoachRepo() *mockCoachRepo {
	return &mockCoachRepo{coaches: make(map[string]*model.Coach)}
}

func (m *mockCoachRepo) Create(_ context.Context, coach *model.Coach) error {
	if coach.CoachID == "" {
		coach.CoachID = fmt.Sprintf("coach-%d", len(m.coaches)+1)
	}
	if coach.Version == 0 {
		coach.Version = 1
	}
	m.coaches[coach.CoachID] = coach
	return nil
}

func (m *mockCoachRepo) GetByID(_ context.Context, id string) (*model.Coach, error) {
	if c, ok := m.coaches[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCoachRepo) GetByUserID(_ context.Context, userID string) (*model.Coach, error) {
	for _, c := range m.coaches {
		if c.UserID != nil && *c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCoachRepo) List(_ context.Context, activeOnly bool) ([]model.Coach, error) {
	var result []model.Coach
	for _, c := range m.coaches {
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockCoachRepo) Update(_ context.Context, coach *model.Coach) error {
	stored, ok := m.coaches[coach.CoachID]
	if !ok || stored.Version != coach.Version {
		return pkgerrors.ErrOptimisticLock
	}
	coach.Version++
	cp := *coach
	m.coaches[coach.CoachID] = &cp
	return nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct {
	windows map[string]*model.CoachAvailability
	seq     int
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{windows: make(map[string]*model.CoachAvailability)}
}

func (m *mockAvailabilityRepo) Create(_ context.Context, a *model.CoachAvailability) error {
	m.seq++
	if a.AvailabilityID == "" {
		a.AvailabilityID = fmt.Sprintf("avail-%d", m.seq)
	}
	a.Version = 1
	cp := *a
	m.windows[a.AvailabilityID] = &cp
	return nil
}

func (m *mockAvailabilityRepo) GetByID(_ context.Context, id string) (*model.CoachAvailability, error) {
	if a, ok := m.windows[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAvailabilityRepo) ListByCoach(_ context.Context, coachID string) ([]model.CoachAvailability, error) {
	var result []model.CoachAvailability
	for _, a := range m.windows {
		if a.CoachID == coachID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek.ISO() < result[j].DayOfWeek.ISO()
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (m *mockAvailabilityRepo) Update(_ context.Context, a *model.CoachAvailability) error {
	stored, ok := m.windows[a.AvailabilityID]
	if !ok || stored.Version != a.Version {
		return pkgerrors.ErrOptimisticLock
	}
	a.Version++
	cp := *a
	m.windows[a.AvailabilityID] = &cp
	return nil
}

func (m *mockAvailabilityRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.windows, id)
	return nil
}

// ── Mock UnavailabilityRepository ──

type mockUnavailabilityRepo struct {
	blocks map[string]*model.CoachUnavailability
	seq    int
}

func newMockUnavailabilityRepo() *mockUnavailabilityRepo {
	return &mockUnavailabilityRepo{blocks: make(map[string]*model.CoachUnavailability)}
}

func (m *mockUnavailabilityRepo) Create(_ context.Context, u *model.CoachUnavailability) error {
	m.seq++
	if u.UnavailabilityID == "" {
		u.UnavailabilityID = fmt.Sprintf("block-%d", m.seq)
	}
	cp := *u
	m.blocks[u.UnavailabilityID] = &cp
	return nil
}

func (m *mockUnavailabilityRepo) BatchCreate(ctx context.Context, list []model.CoachUnavailability) error {
	for i := range list {
		if err := m.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockUnavailabilityRepo) GetByID(_ context.Context, id string) (*model.CoachUnavailability, error) {
	if u, ok := m.blocks[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnavailabilityRepo) ListByCoach(_ context.Context, coachID string, from, to time.Time) ([]model.CoachUnavailability, error) {
	var result []model.CoachUnavailability
	for _, u := range m.blocks {
		if u.CoachID != coachID {
			continue
		}
		date := u.Date.Format(availability.DateLayout)
		if !from.IsZero() && date < from.Format(availability.DateLayout) {
			continue
		}
		if !to.IsZero() && date > to.Format(availability.DateLayout) {
			continue
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockUnavailabilityRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.blocks, id)
	return nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes map[string]*model.GymClass
	coaches *mockCoachRepo // resolves the Coach association
	seq     int
}

func newMockClassRepo(coaches *mockCoachRepo) *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.GymClass), coaches: coaches}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.GymClass) error {
	m.seq++
	if class.ClassID == "" {
		class.ClassID = fmt.Sprintf("class-%d", m.seq)
	}
	class.Version = 1
	cp := *class
	m.classes[class.ClassID] = &cp
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.GymClass, error) {
	c, ok := m.classes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	if m.coaches != nil {
		cp.Coach = m.coaches.coaches[cp.CoachID]
	}
	return &cp, nil
}

func (m *mockClassRepo) List(_ context.Context, filter repository.ClassFilter) ([]model.GymClass, error) {
	var result []model.GymClass
	for _, c := range m.classes {
		if filter.Day != "" && c.DayOfWeek != filter.Day {
			continue
		}
		if filter.CoachID != "" && !c.AssignedTo(filter.CoachID) {
			continue
		}
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek.ISO() < result[j].DayOfWeek.ISO()
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, class *model.GymClass) error {
	stored, ok := m.classes[class.ClassID]
	if !ok || stored.Version != class.Version {
		return pkgerrors.ErrOptimisticLock
	}
	class.Version++
	cp := *class
	cp.Coach = nil
	m.classes[class.ClassID] = &cp
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.classes, id)
	return nil
}

// ── Mock ClassCoverLogRepository ──

type mockCoverLogRepo struct {
	logs []model.ClassCoverLog
}

func newMockCoverLogRepo() *mockCoverLogRepo {
	return &mockCoverLogRepo{}
}

func (m *mockCoverLogRepo) Create(_ context.Context, log *model.ClassCoverLog) error {
	log.CoverLogID = fmt.Sprintf("cover-%d", len(m.logs)+1)
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockCoverLogRepo) ListByClass(_ context.Context, classID string) ([]model.ClassCoverLog, error) {
	var result []model.ClassCoverLog
	for _, l := range m.logs {
		if l.ClassID == classID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── Mock SlotRepository ──

// mockSlotRepo rejects overlapping slots of a coach like the exclusion
// constraint does.
type mockSlotRepo struct {
	mu    sync.Mutex
	slots map[string]*model.BookableSlot
	seq   int
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{slots: make(map[string]*model.BookableSlot)}
}

func (m *mockSlotRepo) Create(_ context.Context, slot *model.BookableSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.CoachID == slot.CoachID && s.StartsAt.Before(slot.EndsAt) && s.EndsAt.After(slot.StartsAt) {
			return repository.ErrSlotOverlap
		}
	}
	m.seq++
	if slot.SlotID == "" {
		slot.SlotID = fmt.Sprintf("slot-%d", m.seq)
	}
	if slot.Capacity == 0 {
		slot.Capacity = 1
	}
	cp := *slot
	m.slots[slot.SlotID] = &cp
	return nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id string) (*model.BookableSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.slots[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSlotRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.BookableSlot, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSlotRepo) ListByCoach(_ context.Context, coachID string, from, to time.Time) ([]model.BookableSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.BookableSlot
	for _, s := range m.slots {
		if s.CoachID == coachID && s.StartsAt.Before(to) && s.EndsAt.After(from) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

func (m *mockSlotRepo) Delete(_ context.Context, id string, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, id)
	return nil
}

// ── Mock AppointmentRepository ──

// mockAppointmentRepo enforces one active booking per member and slot.
type mockAppointmentRepo struct {
	mu    sync.Mutex
	appts map[string]*model.Appointment
	seq   int
	now   func() time.Time
}

func newMockAppointmentRepo(now func() time.Time) *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[string]*model.Appointment), now: now}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.appts {
		if other.SlotID == a.SlotID && other.MemberID == a.MemberID && other.IsActive() {
			return repository.ErrDuplicate
		}
	}
	m.seq++
	if a.AppointmentID == "" {
		a.AppointmentID = fmt.Sprintf("appt-%d", m.seq)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.now()
	}
	cp := *a
	m.appts[a.AppointmentID] = &cp
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.appts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAppointmentRepo) GetByStripeSession(_ context.Context, sessionID string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.StripeSessionID != nil && *a.StripeSessionID == sessionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAppointmentRepo) ListActiveBySlots(_ context.Context, slotIDs []string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(slotIDs))
	for _, id := range slotIDs {
		wanted[id] = true
	}
	var result []model.Appointment
	for _, a := range m.appts {
		if wanted[a.SlotID] && a.IsActive() {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAppointmentRepo) ListByMember(_ context.Context, memberID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Appointment
	for _, a := range m.appts {
		if a.MemberID == memberID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.After(result[j].StartsAt) })
	return result, nil
}

func (m *mockAppointmentRepo) ListActiveByCoach(_ context.Context, coachID string, from, to time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Appointment
	for _, a := range m.appts {
		if a.CoachID == coachID && a.IsActive() && !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartsAt.Before(result[j].StartsAt) })
	return result, nil
}

func (m *mockAppointmentRepo) ListPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Appointment
	for _, a := range m.appts {
		if a.Status == model.AppointmentPendingPayment && a.CreatedAt.Before(cutoff) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAppointmentRepo) SetStripeSession(_ context.Context, id, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.StripeSessionID = &sessionID
	return nil
}

func (m *mockAppointmentRepo) TransitionStatus(_ context.Context, id string, from, to model.AppointmentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	if to == model.AppointmentCancelled {
		now := m.now()
		a.CancelledAt = &now
	}
	return true, nil
}

// ── test environment ──

// testNow Thursday 15 October 2026, 10:00 in London.
var testNow = time.Date(2026, 10, 15, 10, 0, 0, 0, mustLoadLondon())

func mustLoadLondon() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
	return loc
}

type testEnv struct {
	repo      *repository.Repository
	users     *mockUserRepo
	coaches   *mockCoachRepo
	windows   *mockAvailabilityRepo
	blocks    *mockUnavailabilityRepo
	classes   *mockClassRepo
	coverLogs *mockCoverLogRepo
	slots     *mockSlotRepo
	appts     *mockAppointmentRepo
	locker    CoachLocker
	loc       *time.Location
	now       func() time.Time
}

func newTestEnv() *testEnv {
	now := func() time.Time { return testNow }
	coaches := newMockCoachRepo()
	env := &testEnv{
		users:     newMockUserRepo(),
		coaches:   coaches,
		windows:   newMockAvailabilityRepo(),
		blocks:    newMockUnavailabilityRepo(),
		classes:   newMockClassRepo(coaches),
		coverLogs: newMockCoverLogRepo(),
		slots:     newMockSlotRepo(),
		appts:     newMockAppointmentRepo(now),
		locker:    newLocalCoachLocker(),
		loc:       testNow.Location(),
		now:       now,
	}
	env.repo = &repository.Repository{
		User:           env.users,
		Coach:          env.coaches,
		Availability:   env.windows,
		Unavailability: env.blocks,
		Class:          env.classes,
		CoverLog:       env.coverLogs,
		Slot:           env.slots,
		Appointment:    env.appts,
	}
	return env
}

// addCoach stores an active coach with a linked coach user.
func (e *testEnv) addCoach(id, name string, rateCents int64) *model.Coach {
	userID := "user-" + id
	e.users.users[userID] = &model.User{UserID: userID, Name: name, Email: id + "@ringside.test", Role: model.RoleCoach}
	coach := &model.Coach{CoachID: id, Name: name, PrivateRateCents: rateCents, IsActive: true, UserID: &userID}
	coach.Version = 1
	e.coaches.coaches[id] = coach
	return coach
}

func (e *testEnv) addMember(id, phone string) *model.User {
	u := &model.User{UserID: id, Name: "Member " + id, Email: id + "@ringside.test", Phone: phone, Role: model.RoleMember}
	e.users.users[id] = u
	return u
}

func (e *testEnv) addWindow(coachID string, day model.WeekDay, start, end string) {
	_ = e.windows.Create(context.Background(), &model.CoachAvailability{CoachID: coachID, DayOfWeek: day, StartTime: start, EndTime: end})
}

func (e *testEnv) addClass(id, coachID string, day model.WeekDay, timeRange string) *model.GymClass {
	c := &model.GymClass{ClassID: id, Name: "Class " + id, CoachID: coachID, DayOfWeek: day, Time: timeRange, ServiceType: model.ServiceClass}
	_ = e.classes.Create(context.Background(), c)
	return c
}

func (e *testEnv) addBlock(coachID string, date time.Time, start, end *string) {
	_ = e.blocks.Create(context.Background(), &model.CoachUnavailability{CoachID: coachID, Date: date, StartTime: start, EndTime: end, Source: "manual"})
}

func (e *testEnv) at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, e.loc)
}

var adminCaller = Caller{UserID: "admin-1", Role: model.RoleAdmin}

func coachCaller(coachID string) Caller {
	return Caller{UserID: "user-" + coachID, Role: model.RoleCoach, CoachID: coachID}
}

func memberCaller(userID string) Caller {
	return Caller{UserID: userID, Role: model.RoleMember}
}
