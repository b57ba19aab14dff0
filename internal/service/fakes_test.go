package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/gym-management/internal/model"
	"github.com/iliyamo/gym-management/internal/policy"
	"github.com/iliyamo/gym-management/internal/realtime"
	"github.com/iliyamo/gym-management/internal/repository"
)

// world is an in-memory stand-in for the database shared by the fake stores.
// One mutex serializes every operation, the way row locks and conditional
// updates serialize them in MySQL.
type world struct {
	mu            sync.Mutex
	seq           int64
	users         map[string]model.User
	approvals     map[string]model.ApprovalRequest
	refresh       map[string]string
	attendance    []model.AttendanceRecord
	messages      []model.Message
	notifications []model.Notification
	announcements map[string]model.Announcement
	items         map[string]model.MerchandiseItem
	orders        map[string]model.Order
	workouts      map[string]model.WorkoutPlan
	diets         map[string]model.DietPlan
	metrics       map[string]model.BodyMetrics
	payments      []model.Payment
}

func newWorld() *world {
	return &world{
		users:         map[string]model.User{},
		approvals:     map[string]model.ApprovalRequest{},
		refresh:       map[string]string{},
		announcements: map[string]model.Announcement{},
		items:         map[string]model.MerchandiseItem{},
		orders:        map[string]model.Order{},
		workouts:      map[string]model.WorkoutPlan{},
		diets:         map[string]model.DietPlan{},
		metrics:       map[string]model.BodyMetrics{},
	}
}

// ---- users ----

type fakeUsers struct{ w *world }

func (f fakeUsers) Create(_ context.Context, u *model.User, req *model.ApprovalRequest) error {
	w := f.w
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, o := range w.users {
		switch {
		case o.Email == u.Email:
			return repository.ErrEmailExists
		case o.Phone == u.Phone:
			return repository.ErrPhoneExists
		case u.IsPrimaryAdmin && o.IsPrimaryAdmin:
			return repository.ErrPrimaryAdminExists
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	w.seq++
	u.Seq = w.seq
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	w.users[u.ID] = *u
	if req != nil {
		req.ID = uuid.NewString()
		req.UserID = u.ID
		w.approvals[req.ID] = *req
	}
	return nil
}

func (f fakeUsers) get(match func(model.User) bool) (model.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, u := range f.w.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f fakeUsers) GetByID(_ context.Context, id string) (model.User, error) {
	return f.get(func(u model.User) bool { return u.ID == id })
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	return f.get(func(u model.User) bool { return u.Email == strings.ToLower(email) })
}

func (f fakeUsers) GetByPhone(_ context.Context, phone string) (model.User, error) {
	return f.get(func(u model.User) bool { return u.Phone == phone })
}

func (f fakeUsers) GetPrimaryAdmin(_ context.Context) (model.User, error) {
	return f.get(func(u model.User) bool { return u.IsPrimaryAdmin })
}

func matchUser(q repository.UserQuery, u model.User) bool {
	switch {
	case q.Role != "" && u.Role != q.Role:
		return false
	case q.Center != "" && u.Center != q.Center:
		return false
	case q.Active != nil && u.IsActive != *q.Active:
		return false
	case q.ApprovedOnly && !u.Approved():
		return false
	case q.Search != "" && !strings.Contains(strings.ToLower(u.FullName), strings.ToLower(q.Search)):
		return false
	}
	return true
}

func (f fakeUsers) List(_ context.Context, q repository.UserQuery) ([]model.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.User
	for _, u := range f.w.users {
		if matchUser(q, u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (f fakeUsers) Count(ctx context.Context, q repository.UserQuery) (int, error) {
	out, err := f.List(ctx, q)
	return len(out), err
}

func (f fakeUsers) CountByCenter(ctx context.Context, role model.Role) (map[model.Center]int, error) {
	active := true
	out, _ := f.List(ctx, repository.UserQuery{Role: role, Active: &active, ApprovedOnly: true})
	m := map[model.Center]int{}
	for _, u := range out {
		m[u.Center]++
	}
	return m, nil
}

func (f fakeUsers) mutate(id string, fn func(*model.User)) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	f.w.users[id] = u
	return nil
}

// Update writes the same columns as UserRepo.Update: profile and membership
// dates, never center, the active flag or the reminder marker.
func (f fakeUsers) Update(_ context.Context, u model.User) error {
	return f.mutate(u.ID, func(p *model.User) {
		p.FullName, p.Phone, p.Address = u.FullName, u.Phone, u.Address
		p.EmergencyContact, p.Goals, p.MedicalNotes = u.EmergencyContact, u.Goals, u.MedicalNotes
		last := p.Membership.LastPaymentReminder
		p.Membership = u.Membership
		p.Membership.LastPaymentReminder = last
	})
}

func (f fakeUsers) SetPushToken(_ context.Context, id, token string) error {
	return f.mutate(id, func(u *model.User) { u.PushToken = token })
}

func (f fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	return f.mutate(id, func(u *model.User) { u.IsActive = active })
}

func (f fakeUsers) SetCenter(_ context.Context, id string, center model.Center) error {
	return f.mutate(id, func(u *model.User) { u.Center = center })
}

func (f fakeUsers) DuePaymentReminders(_ context.Context, until, day time.Time) ([]model.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.User
	for _, u := range f.w.users {
		m := u.Membership
		if u.Role != model.RoleMember || !u.IsActive || !u.Approved() || m.NextPaymentDate == nil {
			continue
		}
		if m.NextPaymentDate.After(until) {
			continue
		}
		if m.LastPaymentReminder != nil && !m.LastPaymentReminder.Before(day) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (f fakeUsers) MarkPaymentReminded(_ context.Context, id string, day time.Time) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u := f.w.users[id]
	if r := u.Membership.LastPaymentReminder; r != nil && !r.Before(day) {
		return false, nil
	}
	d := day
	u.Membership.LastPaymentReminder = &d
	f.w.users[id] = u
	return true, nil
}

// ---- tokens ----

type fakeTokens struct{ w *world }

func (f fakeTokens) StoreRefresh(_ context.Context, userID, hash string, _ time.Time) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.refresh[hash] = userID
	return nil
}

func (f fakeTokens) ValidateRefresh(_ context.Context, hash string) (string, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	id, ok := f.w.refresh[hash]
	if !ok {
		return "", repository.ErrNotFound
	}
	return id, nil
}

func (f fakeTokens) RevokeByHash(_ context.Context, hash string) (bool, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	_, ok := f.w.refresh[hash]
	delete(f.w.refresh, hash)
	return ok, nil
}

func (f fakeTokens) RevokeAllForUser(_ context.Context, userID string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for h, id := range f.w.refresh {
		if id == userID {
			delete(f.w.refresh, h)
		}
	}
	return nil
}

// ---- approvals ----

type fakeApprovals struct{ w *world }

func (f fakeApprovals) Get(_ context.Context, id string) (model.ApprovalRequest, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	r, ok := f.w.approvals[id]
	if !ok {
		return model.ApprovalRequest{}, repository.ErrNotFound
	}
	return r, nil
}

func (f fakeApprovals) List(_ context.Context, q repository.ApprovalQuery) ([]model.ApprovalRequest, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.ApprovalRequest
	for _, r := range f.w.approvals {
		if q.Status != "" && r.Status != q.Status || q.Status == "" && r.Status == model.StatusPending {
			continue
		}
		if q.Center != "" && r.Center != q.Center {
			continue
		}
		if len(q.Roles) > 0 && !containsRole(q.Roles, r.UserRole) {
			continue
		}
		r.FullName = f.w.users[r.UserID].FullName
		out = append(out, r)
	}
	return out, nil
}

func containsRole(roles []model.Role, r model.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func (f fakeApprovals) CountPending(ctx context.Context, roles []model.Role, center model.Center) (int, error) {
	out, err := f.List(ctx, repository.ApprovalQuery{Status: model.StatusPending, Roles: roles, Center: center})
	return len(out), err
}

func (f fakeApprovals) Resolve(_ context.Context, req model.ApprovalRequest, decision model.ApprovalStatus, reviewer, reason string, at time.Time) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	cur := f.w.approvals[req.ID]
	if cur.Status != model.StatusPending {
		return repository.ErrAlreadyProcessed
	}
	cur.Status, cur.ReviewedBy, cur.ReviewedAt, cur.RejectionReason = decision, reviewer, &at, reason
	f.w.approvals[req.ID] = cur
	u := f.w.users[req.UserID]
	u.ApprovalStatus = decision
	if decision == model.StatusRejected {
		u.IsActive = false
	}
	f.w.users[u.ID] = u
	return nil
}

// ---- attendance ----

type fakeAttendance struct{ w *world }

func (f fakeAttendance) CheckIn(_ context.Context, rec *model.AttendanceRecord) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.users[rec.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, r := range f.w.attendance {
		if r.UserID == rec.UserID && r.Open() {
			return repository.ErrAlreadyCheckedIn
		}
	}
	rec.ID = uuid.NewString()
	f.w.attendance = append(f.w.attendance, *rec)
	return nil
}

func (f fakeAttendance) CheckOut(_ context.Context, userID string, at time.Time) (model.AttendanceRecord, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for i, r := range f.w.attendance {
		if r.UserID == userID && r.Open() {
			t := at
			f.w.attendance[i].CheckOutTime = &t
			return f.w.attendance[i], nil
		}
	}
	return model.AttendanceRecord{}, repository.ErrNotCheckedIn
}

func (f fakeAttendance) OpenRecord(_ context.Context, userID string) (model.AttendanceRecord, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, r := range f.w.attendance {
		if r.UserID == userID && r.Open() {
			return r, nil
		}
	}
	return model.AttendanceRecord{}, repository.ErrNotFound
}

func (f fakeAttendance) List(_ context.Context, q repository.AttendanceQuery) ([]model.AttendanceRecord, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.AttendanceRecord
	for _, r := range f.w.attendance {
		switch {
		case q.UserID != "" && r.UserID != q.UserID,
			q.Center != "" && r.Center != q.Center,
			!q.From.IsZero() && r.CheckInTime.Before(q.From),
			!q.To.IsZero() && !r.CheckInTime.Before(q.To),
			q.OpenOnly && !r.Open():
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f fakeAttendance) Count(ctx context.Context, q repository.AttendanceQuery) (int, error) {
	out, err := f.List(ctx, q)
	return len(out), err
}

// ---- messages ----

type fakeMessages struct{ w *world }

func (f fakeMessages) Create(_ context.Context, m *model.Message) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	m.ID = uuid.NewString()
	f.w.messages = append(f.w.messages, *m)
	return nil
}

func between(m model.Message, a, b string) bool {
	return m.SenderID == a && m.ReceiverID == b || m.SenderID == b && m.ReceiverID == a
}

func (f fakeMessages) Conversation(_ context.Context, a, b string, _ int) ([]model.Message, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Message
	for _, m := range f.w.messages {
		if between(m, a, b) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f fakeMessages) MarkRead(_ context.Context, receiver, sender string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for i, m := range f.w.messages {
		if m.ReceiverID == receiver && m.SenderID == sender && !m.IsRead {
			f.w.messages[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (f fakeMessages) Conversations(_ context.Context, userID string) ([]repository.ConversationSummary, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	byPeer := map[string]*repository.ConversationSummary{}
	var order []string
	for _, m := range f.w.messages {
		peer := ""
		switch userID {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		s, ok := byPeer[peer]
		if !ok {
			s = &repository.ConversationSummary{PeerID: peer}
			byPeer[peer] = s
			order = append(order, peer)
		}
		s.LastMessage = m
		if m.ReceiverID == userID && !m.IsRead {
			s.Unread++
		}
	}
	out := make([]repository.ConversationSummary, 0, len(order))
	for _, p := range order {
		out = append(out, *byPeer[p])
	}
	return out, nil
}

func (f fakeMessages) UnreadCount(_ context.Context, userID string) (int, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	n := 0
	for _, m := range f.w.messages {
		if m.ReceiverID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (f fakeMessages) remove(keep func(model.Message) bool) int64 {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var kept []model.Message
	for _, m := range f.w.messages {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	n := int64(len(f.w.messages) - len(kept))
	f.w.messages = kept
	return n
}

func (f fakeMessages) DeleteSelected(_ context.Context, userID string, ids []string) (int64, error) {
	del := map[string]bool{}
	for _, id := range ids {
		del[id] = true
	}
	return f.remove(func(m model.Message) bool {
		return !(del[m.ID] && (m.SenderID == userID || m.ReceiverID == userID))
	}), nil
}

func (f fakeMessages) DeleteConversation(_ context.Context, a, b string) (int64, error) {
	return f.remove(func(m model.Message) bool { return !between(m, a, b) }), nil
}

// ---- announcements ----

type fakeAnnouncements struct{ w *world }

func (f fakeAnnouncements) Create(_ context.Context, a *model.Announcement) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	a.ID = uuid.NewString()
	a.IsActive = true
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	f.w.announcements[a.ID] = *a
	return nil
}

func (f fakeAnnouncements) Get(_ context.Context, id string) (model.Announcement, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	a, ok := f.w.announcements[id]
	if !ok {
		return model.Announcement{}, repository.ErrNotFound
	}
	return a, nil
}

func (f fakeAnnouncements) ListActive(_ context.Context, _ int) ([]model.Announcement, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Announcement
	for _, a := range f.w.announcements {
		if a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeAnnouncements) Update(_ context.Context, a *model.Announcement) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if cur, ok := f.w.announcements[a.ID]; !ok || !cur.IsActive {
		return repository.ErrNotFound
	}
	f.w.announcements[a.ID] = *a
	return nil
}

func (f fakeAnnouncements) Deactivate(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	a, ok := f.w.announcements[id]
	if !ok || !a.IsActive {
		return repository.ErrNotFound
	}
	a.IsActive = false
	f.w.announcements[id] = a
	return nil
}

// ---- merchandise and orders ----

type fakeItems struct{ w *world }

func (f fakeItems) Create(_ context.Context, it *model.MerchandiseItem) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.IsActive = true
	f.w.items[it.ID] = *it
	return nil
}

func (f fakeItems) Update(_ context.Context, it *model.MerchandiseItem) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	cur, ok := f.w.items[it.ID]
	if !ok || !cur.IsActive {
		return repository.ErrNotFound
	}
	it.IsActive = true
	f.w.items[it.ID] = *it
	return nil
}

func (f fakeItems) Deactivate(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	it, ok := f.w.items[id]
	if !ok || !it.IsActive {
		return repository.ErrNotFound
	}
	it.IsActive = false
	f.w.items[id] = it
	return nil
}

func (f fakeItems) Get(_ context.Context, id string) (model.MerchandiseItem, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	it, ok := f.w.items[id]
	if !ok {
		return model.MerchandiseItem{}, repository.ErrNotFound
	}
	stock := map[string]int{}
	for k, v := range it.Stock {
		stock[k] = v
	}
	it.Stock = stock
	return it, nil
}

func (f fakeItems) List(_ context.Context, category string) ([]model.MerchandiseItem, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.MerchandiseItem
	for _, it := range f.w.items {
		if it.IsActive && (category == "" || it.Category == category) {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeOrders struct{ w *world }

// Place checks every line before touching stock so a short line leaves the
// catalog unchanged.
func (f fakeOrders) Place(_ context.Context, o *model.Order) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	total := 0.0
	for i := range o.Items {
		l := &o.Items[i]
		it, ok := f.w.items[l.ItemID]
		if !ok || !it.IsActive {
			return repository.ErrNotFound
		}
		if it.Stock[l.Size] < l.Quantity {
			return repository.ErrInsufficientStock
		}
		l.ItemName, l.UnitPrice = it.Name, it.Price
		total += it.Price * float64(l.Quantity)
	}
	for _, l := range o.Items {
		f.w.items[l.ItemID].Stock[l.Size] -= l.Quantity
	}
	o.ID = uuid.NewString()
	o.Status = model.OrderPending
	o.Total = total
	f.w.orders[o.ID] = *o
	return nil
}

func (f fakeOrders) Transition(_ context.Context, id string, from, to model.OrderStatus) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	o, ok := f.w.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.Status != from {
		return repository.ErrConflict
	}
	o.Status = to
	f.w.orders[id] = o
	if to == model.OrderCancelled {
		for _, l := range o.Items {
			f.w.items[l.ItemID].Stock[l.Size] += l.Quantity
		}
	}
	return nil
}

func (f fakeOrders) Get(_ context.Context, id string) (model.Order, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	o, ok := f.w.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (f fakeOrders) List(_ context.Context, q repository.OrderQuery) ([]model.Order, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Order
	for _, o := range f.w.orders {
		if q.UserID != "" && o.UserID != q.UserID || q.Status != "" && o.Status != q.Status || q.Center != "" && o.Center != q.Center {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f fakeOrders) CountByStatus(ctx context.Context, status model.OrderStatus) (int, error) {
	out, err := f.List(ctx, repository.OrderQuery{Status: status})
	return len(out), err
}

// ---- plans ----

type fakePlans struct{ w *world }

func (f fakePlans) CreateWorkout(_ context.Context, p *model.WorkoutPlan) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for id, old := range f.w.workouts {
		if old.MemberID == p.MemberID {
			old.IsActive = false
			f.w.workouts[id] = old
		}
	}
	p.ID = uuid.NewString()
	p.IsActive = true
	f.w.workouts[p.ID] = *p
	return nil
}

func (f fakePlans) GetWorkout(_ context.Context, id string) (model.WorkoutPlan, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.workouts[id]
	if !ok {
		return model.WorkoutPlan{}, repository.ErrNotFound
	}
	p.Exercises = append([]model.Exercise(nil), p.Exercises...)
	return p, nil
}

func (f fakePlans) ListWorkouts(_ context.Context, memberID string) ([]model.WorkoutPlan, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.WorkoutPlan
	for _, p := range f.w.workouts {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePlans) ActiveWorkout(_ context.Context, memberID string) (model.WorkoutPlan, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for _, p := range f.w.workouts {
		if p.MemberID == memberID && p.IsActive {
			return p, nil
		}
	}
	return model.WorkoutPlan{}, repository.ErrNotFound
}

func (f fakePlans) UpdateWorkout(_ context.Context, p *model.WorkoutPlan) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.workouts[p.ID] = *p
	return nil
}

func (f fakePlans) DeleteWorkout(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	delete(f.w.workouts, id)
	return nil
}

func (f fakePlans) CompleteExercise(_ context.Context, planID string, index int, at time.Time) (model.WorkoutPlan, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.workouts[planID]
	if !ok || index >= len(p.Exercises) {
		return model.WorkoutPlan{}, repository.ErrNotFound
	}
	p.Exercises[index].Completed = true
	p.Exercises[index].CompletedAt = &at
	f.w.workouts[planID] = p
	return p, nil
}

func (f fakePlans) CreateDiet(_ context.Context, p *model.DietPlan) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for id, old := range f.w.diets {
		if old.MemberID == p.MemberID {
			old.IsActive = false
			f.w.diets[id] = old
		}
	}
	p.ID = uuid.NewString()
	p.IsActive = true
	f.w.diets[p.ID] = *p
	return nil
}

func (f fakePlans) GetDiet(_ context.Context, id string) (model.DietPlan, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.diets[id]
	if !ok {
		return model.DietPlan{}, repository.ErrNotFound
	}
	return p, nil
}

func (f fakePlans) ListDiets(_ context.Context, memberID string) ([]model.DietPlan, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.DietPlan
	for _, p := range f.w.diets {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IsActive && !out[j].IsActive })
	return out, nil
}

func (f fakePlans) UpdateDiet(_ context.Context, p *model.DietPlan) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.diets[p.ID]; !ok {
		return repository.ErrNotFound
	}
	f.w.diets[p.ID] = *p
	return nil
}

func (f fakePlans) DeleteDiet(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.diets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.w.diets, id)
	return nil
}

func (f fakePlans) AddMetrics(_ context.Context, m *model.BodyMetrics) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	m.ID = uuid.NewString()
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now().UTC()
	}
	f.w.metrics[m.ID] = *m
	return nil
}

func (f fakePlans) GetMetrics(_ context.Context, id string) (model.BodyMetrics, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	m, ok := f.w.metrics[id]
	if !ok {
		return model.BodyMetrics{}, repository.ErrNotFound
	}
	return m, nil
}

func (f fakePlans) ListMetrics(_ context.Context, memberID string, _ int) ([]model.BodyMetrics, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.BodyMetrics
	for _, m := range f.w.metrics {
		if m.MemberID == memberID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func (f fakePlans) UpdateMetrics(_ context.Context, m *model.BodyMetrics) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.metrics[m.ID]; !ok {
		return repository.ErrNotFound
	}
	f.w.metrics[m.ID] = *m
	return nil
}

func (f fakePlans) DeleteMetrics(_ context.Context, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if _, ok := f.w.metrics[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.w.metrics, id)
	return nil
}

// ---- payments ----

type fakePayments struct{ w *world }

func (f fakePayments) Record(_ context.Context, p *model.Payment) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.users[p.MemberID]
	if !ok || u.Role != model.RoleMember {
		return repository.ErrNotFound
	}
	p.ID = uuid.NewString()
	f.w.payments = append(f.w.payments, *p)
	if p.NextPaymentDate != nil {
		next := *p.NextPaymentDate
		u.Membership.NextPaymentDate = &next
		u.Membership.LastPaymentReminder = nil
		f.w.users[u.ID] = u
	}
	return nil
}

func (f fakePayments) ListByMember(_ context.Context, memberID string, _ int) ([]model.Payment, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Payment
	for i := len(f.w.payments) - 1; i >= 0; i-- {
		if p := f.w.payments[i]; p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePayments) Revenue(_ context.Context, from time.Time, center model.Center) (float64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	total := 0.0
	for _, p := range f.w.payments {
		if p.Status == model.PaymentCompleted && !p.PaidAt.Before(from) && (center == "" || p.Center == center) {
			total += p.Amount
		}
	}
	return total, nil
}

// ---- notifications ----

type fakeNotifications struct{ w *world }

// Create fails once ctx is done, like a query on a cancelled request.
func (f fakeNotifications) Create(ctx context.Context, n *model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	n.ID = uuid.NewString()
	f.w.notifications = append(f.w.notifications, *n)
	return nil
}

func (f fakeNotifications) List(_ context.Context, userID string, _ int) ([]model.Notification, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []model.Notification
	for _, n := range f.w.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f fakeNotifications) MarkRead(_ context.Context, userID, id string) error {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	for i, n := range f.w.notifications {
		if n.ID == id && n.UserID == userID {
			f.w.notifications[i].IsRead = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f fakeNotifications) MarkAllRead(_ context.Context, userID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var n int64
	for i, x := range f.w.notifications {
		if x.UserID == userID && !x.IsRead {
			f.w.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (f fakeNotifications) UnreadCount(ctx context.Context, userID string) (int, error) {
	all, _ := f.List(ctx, userID, 0)
	n := 0
	for _, x := range all {
		if !x.IsRead {
			n++
		}
	}
	return n, nil
}

// ---- live channel ----

type sentEvent struct {
	UserID string
	Event  realtime.Event
}

// fakeLive records deliveries to a fixed set of connected actors.
type fakeLive struct {
	mu           sync.Mutex
	connected    []policy.Actor
	sent         []sentEvent
	disconnected []string
}

func (l *fakeLive) Disconnect(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, a := range l.connected {
		if a.ID == userID {
			l.connected = append(l.connected[:i], l.connected[i+1:]...)
			l.disconnected = append(l.disconnected, userID)
			return true
		}
	}
	return false
}

func (l *fakeLive) connect(a policy.Actor) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = append(l.connected, a)
}

func (l *fakeLive) isConnected(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.connected {
		if a.ID == userID {
			return true
		}
	}
	return false
}

func (l *fakeLive) SendTo(userID string, ev realtime.Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.connected {
		if a.ID == userID {
			l.sent = append(l.sent, sentEvent{userID, ev})
			return true
		}
	}
	return false
}

func (l *fakeLive) Broadcast(ev realtime.Event, match func(policy.Actor) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, a := range l.connected {
		if match(a) {
			l.sent = append(l.sent, sentEvent{a.ID, ev})
			n++
		}
	}
	return n
}

func (l *fakeLive) eventsFor(userID, name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, s := range l.sent {
		if s.UserID == userID && s.Event.Name == name {
			n++
		}
	}
	return n
}
