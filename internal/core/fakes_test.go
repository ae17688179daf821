package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resumepilot-backend/internal/db"
	"resumepilot-backend/internal/models"
)

// fakeUserRepo is an in-memory UserRepository. The credit operations hold the
// mutex across the whole check-and-decrement, mirroring the transactional
// guarantee of the real repository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	consumeErr error
	grantErr   error
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user '%s' already exists", user.ID)
	}
	user.CreatedAt = time.Now().UTC()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByStripeCustomerID(_ context.Context, customerID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.StripeCustomerID == customerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) SetStripeCustomerID(_ context.Context, userID, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	user.StripeCustomerID = customerID
	return nil
}

func (r *fakeUserRepo) ConsumeCredit(_ context.Context, userID string, kind models.CreditKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumeErr != nil {
		return r.consumeErr
	}
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	switch kind {
	case models.CreditOptimization:
		if user.PPUOptimizationCredits <= 0 {
			return db.ErrInsufficientCredit
		}
		user.PPUOptimizationCredits--
	default:
		if user.PPUATSCredits <= 0 {
			return db.ErrInsufficientCredit
		}
		user.PPUATSCredits--
	}
	return nil
}

func (r *fakeUserRepo) GrantCredit(_ context.Context, userID string, kind models.CreditKind, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.grantErr != nil {
		return r.grantErr
	}
	user, ok := r.users[userID]
	if !ok {
		return db.ErrNotFound
	}
	if kind == models.CreditOptimization {
		user.PPUOptimizationCredits += amount
	} else {
		user.PPUATSCredits += amount
	}
	return nil
}

func (r *fakeUserRepo) credits(userID string, kind models.CreditKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID].Credits(kind)
}

// fakeResumeRepo is an in-memory ResumeRepository.
type fakeResumeRepo struct {
	mu      sync.Mutex
	resumes map[string]*models.Resume
	nextID  int

	updateErr error
}

func newFakeResumeRepo(resumes ...*models.Resume) *fakeResumeRepo {
	r := &fakeResumeRepo{resumes: make(map[string]*models.Resume)}
	for _, res := range resumes {
		r.resumes[res.ID] = res
	}
	return r
}

func (r *fakeResumeRepo) Create(_ context.Context, resume *models.Resume) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	resume.ID = fmt.Sprintf("resume-%d", r.nextID)
	resume.CreatedAt = time.Now().UTC()
	cp := *resume
	r.resumes[resume.ID] = &cp
	return resume.ID, nil
}

func (r *fakeResumeRepo) GetByID(_ context.Context, resumeID string) (*models.Resume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *resume
	return &cp, nil
}

func (r *fakeResumeRepo) GetByUserID(_ context.Context, userID string, _ map[string]string) ([]*models.Resume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Resume
	for _, resume := range r.resumes {
		if resume.UserID == userID {
			cp := *resume
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeResumeRepo) Update(_ context.Context, resume *models.Resume) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.resumes[resume.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *resume
	r.resumes[resume.ID] = &cp
	return nil
}

func (r *fakeResumeRepo) ConsumeOptimizationClick(_ context.Context, resumeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return 0, db.ErrNotFound
	}
	if resume.PPUOptimizationClicksRemaining == nil || *resume.PPUOptimizationClicksRemaining <= 0 {
		return 0, db.ErrClicksExhausted
	}
	remaining := *resume.PPUOptimizationClicksRemaining - 1
	resume.PPUOptimizationClicksRemaining = &remaining
	return remaining, nil
}

func (r *fakeResumeRepo) SetOptimizationClicks(_ context.Context, resumeID string, clicks int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return db.ErrNotFound
	}
	resume.PPUOptimizationClicksRemaining = &clicks
	return nil
}

func (r *fakeResumeRepo) RestoreOptimizationClick(_ context.Context, resumeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	resume, ok := r.resumes[resumeID]
	if !ok {
		return db.ErrNotFound
	}
	restored := 1
	if resume.PPUOptimizationClicksRemaining != nil {
		restored = *resume.PPUOptimizationClicksRemaining + 1
	}
	resume.PPUOptimizationClicksRemaining = &restored
	return nil
}

func (r *fakeResumeRepo) get(resumeID string) *models.Resume {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.resumes[resumeID]
	return &cp
}

// fakeReviewOrderRepo is an in-memory ReviewOrderRepository.
type fakeReviewOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.ReviewOrder
	nextID int
}

func newFakeReviewOrderRepo(orders ...*models.ReviewOrder) *fakeReviewOrderRepo {
	r := &fakeReviewOrderRepo{orders: make(map[string]*models.ReviewOrder)}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeReviewOrderRepo) Create(_ context.Context, order *models.ReviewOrder) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = fmt.Sprintf("order-%d", r.nextID)
	cp := *order
	r.orders[order.ID] = &cp
	return order.ID, nil
}

func (r *fakeReviewOrderRepo) GetByID(_ context.Context, orderID string) (*models.ReviewOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeReviewOrderRepo) List(_ context.Context, _ map[string]string) ([]*models.ReviewOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ReviewOrder
	for _, order := range r.orders {
		cp := *order
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeReviewOrderRepo) Update(_ context.Context, order *models.ReviewOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

// fakeBillingRepo replays the same event-marker idempotence the Firestore
// implementation provides, against the fake user and resume repos.
type fakeBillingRepo struct {
	mu        sync.Mutex
	processed map[string]bool

	users   *fakeUserRepo
	resumes *fakeResumeRepo
	orders  *fakeReviewOrderRepo
}

func newFakeBillingRepo(users *fakeUserRepo, resumes *fakeResumeRepo, orders *fakeReviewOrderRepo) *fakeBillingRepo {
	return &fakeBillingRepo{
		processed: make(map[string]bool),
		users:     users,
		resumes:   resumes,
		orders:    orders,
	}
}

func (r *fakeBillingRepo) markEvent(eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.processed[eventID] {
		return db.ErrEventAlreadyProcessed
	}
	r.processed[eventID] = true
	return nil
}

func (r *fakeBillingRepo) ApplySubscriptionActivation(ctx context.Context, eventID, userID, subscriptionID string) error {
	if err := r.markEvent(eventID); err != nil {
		return err
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	user.SubscriptionStatus = models.SubscriptionPremium
	user.StripeSubscriptionID = subscriptionID
	return r.users.Update(ctx, user)
}

func (r *fakeBillingRepo) ApplySubscriptionDeleted(ctx context.Context, eventID, customerID string) error {
	if err := r.markEvent(eventID); err != nil {
		return err
	}
	user, err := r.users.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		return err
	}
	user.SubscriptionStatus = models.SubscriptionInactive
	user.StripeSubscriptionID = ""
	return r.users.Update(ctx, user)
}

func (r *fakeBillingRepo) ApplyCreditGrant(ctx context.Context, eventID, userID string, kind models.CreditKind, amount int, resumeID string, clicks int) error {
	if err := r.markEvent(eventID); err != nil {
		return err
	}
	if err := r.users.GrantCredit(ctx, userID, kind, amount); err != nil {
		return err
	}
	if resumeID != "" {
		return r.resumes.SetOptimizationClicks(ctx, resumeID, clicks)
	}
	return nil
}

func (r *fakeBillingRepo) ApplyReviewPurchase(ctx context.Context, eventID, userID, resumeID string) (string, error) {
	if err := r.markEvent(eventID); err != nil {
		return "", err
	}
	orderID, err := r.orders.Create(ctx, &models.ReviewOrder{
		ResumeID:      resumeID,
		UserID:        userID,
		Status:        models.ReviewOrderRequested,
		PaymentStatus: "paid",
		SubmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	resume, err := r.resumes.GetByID(ctx, resumeID)
	if err != nil {
		return "", err
	}
	resume.ReviewStatus = models.ReviewPending
	return orderID, r.resumes.Update(ctx, resume)
}

// fakeAnalyzer returns canned reports and records call counts.
type fakeAnalyzer struct {
	mu sync.Mutex

	basicReport    *models.ATSReport
	detailedReport *models.ATSReport
	optReport      *models.OptimizationReport

	basicErr    error
	detailedErr error
	optErr      error

	basicCalls    int
	detailedCalls int
	optCalls      int

	// inFlight, when set, runs inside each analyzer call. It lets a test
	// interleave repository activity with an analysis that is underway.
	inFlight func()
}

func (a *fakeAnalyzer) BasicCheck(_ context.Context, _ string) (*models.ATSReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.basicCalls++
	if a.inFlight != nil {
		a.inFlight()
	}
	return a.basicReport, a.basicErr
}

func (a *fakeAnalyzer) DetailedReport(_ context.Context, _ string) (*models.ATSReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detailedCalls++
	if a.inFlight != nil {
		a.inFlight()
	}
	return a.detailedReport, a.detailedErr
}

func (a *fakeAnalyzer) OptimizeForJob(_ context.Context, _, _ string) (*models.OptimizationReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.optCalls++
	if a.inFlight != nil {
		a.inFlight()
	}
	return a.optReport, a.optErr
}

func (a *fakeAnalyzer) Close() error { return nil }

// fakeExtractor returns its fixed text for any input.
type fakeExtractor struct {
	text string
	err  error
}

func (e fakeExtractor) Extract(_ []byte, _ string) (string, error) {
	return e.text, e.err
}

// fakeFileStore is an in-memory FileStore.
type fakeFileStore struct {
	mu    sync.Mutex
	files map[string][]byte

	saveErr  error
	fetchErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

func (f *fakeFileStore) Save(_ context.Context, ref string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.files[ref] = data
	return nil
}

func (f *fakeFileStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data, ok := f.files[ref]
	if !ok {
		return nil, fmt.Errorf("no object at '%s'", ref)
	}
	return data, nil
}

func (f *fakeFileStore) SignedURL(ref string, _ time.Duration) (string, error) {
	return "https://storage.example.com/" + ref + "?signed=1", nil
}
