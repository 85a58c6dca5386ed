package matching

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdugdh24/roomshare-backend/internal/domain"
	"github.com/gdugdh24/roomshare-backend/internal/repository"
	"github.com/gdugdh24/roomshare-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	posterID   = 1
	seekerID   = 2
	landlordID = 9
	roomID     = 10
	postID     = 20
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeScores struct {
	mu    sync.Mutex
	score int
	err   error
	calls int
}

func (f *fakeScores) Score(context.Context, int, *domain.RequirementsRecord) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.score, f.err
}

type fakeContracts struct {
	mu        sync.Mutex
	createErr error
	created   []string
	cancelled []string
}

func (f *fakeContracts) Create(_ context.Context, req *domain.MatchingRequest, _ int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	id := "contract-" + req.ID
	f.created = append(f.created, id)
	return id, nil
}

func (f *fakeContracts) Cancel(_ context.Context, contractID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, contractID)
	return nil
}

type fakeExplainer struct {
	text string
	err  error
}

func (f fakeExplainer) ExplainMatch(context.Context, *domain.RequirementsRecord, string, int) (string, error) {
	return f.text, f.err
}

// stalledExplainer never answers on its own.
type stalledExplainer struct {
	deadline chan bool
}

func (s stalledExplainer) ExplainMatch(ctx context.Context, _ *domain.RequirementsRecord, _ string, _ int) (string, error) {
	_, ok := ctx.Deadline()
	s.deadline <- ok
	<-ctx.Done()
	return "", ctx.Err()
}

type recordingEvents struct {
	mu  sync.Mutex
	tos []domain.Status
}

func (r *recordingEvents) RequestTransitioned(_ context.Context, _ domain.Status, req *domain.MatchingRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tos = append(r.tos, req.Status)
}

type fixture struct {
	uc        *MatchingUseCase
	store     *memory.Store
	requests  repository.MatchingRequestRepository
	scores    *fakeScores
	contracts *fakeContracts
	events    *recordingEvents
}

func newFixture(t *testing.T, explainer Explainer) *fixture {
	t.Helper()
	store := memory.NewStore()
	occupant := posterID
	store.PutRoom(domain.Room{ID: roomID, LandlordID: landlordID, OccupantID: &occupant})
	_, err := store.Requirements().UpsertAndEnable(context.Background(), &domain.RequirementsRecord{
		RoomID:           roomID,
		PosterID:         posterID,
		AgeMin:           20,
		AgeMax:           35,
		GenderPreference: domain.GenderPreferenceAny,
		PosterTraits:     []string{"quiet"},
	})
	require.NoError(t, err)

	f := &fixture{
		store:     store,
		requests:  store.MatchingRequests(),
		scores:    &fakeScores{score: 72},
		contracts: &fakeContracts{},
		events:    &recordingEvents{},
	}
	f.uc = f.build(f.requests, explainer)
	return f
}

func (f *fixture) build(requests repository.MatchingRequestRepository, explainer Explainer) *MatchingUseCase {
	uc := NewMatchingUseCase(requests, f.store.Rooms(), f.store.Requirements(),
		f.scores, f.contracts, explainer, f.events, zap.NewNop(), Options{DecisionTimeout: time.Second, ExplainTimeout: 50 * time.Millisecond})
	uc.now = func() time.Time { return fixedNow }
	return uc
}

func createRequest() *CreateRequest {
	return &CreateRequest{
		RoomID:              roomID,
		PostID:              postID,
		Message:             "I keep early hours",
		RequestedMoveInDate: "2026-11-01",
		RequestedDuration:   6,
	}
}

func (f *fixture) mustCreate(t *testing.T, seeker int) *domain.MatchingRequest {
	t.Helper()
	mr, err := f.uc.Create(context.Background(), seeker, createRequest())
	require.NoError(t, err)
	return mr
}

func (f *fixture) stored(t *testing.T, id string) *domain.MatchingRequest {
	t.Helper()
	mr, err := f.requests.GetByID(context.Background(), id)
	require.NoError(t, err)
	return mr
}

// ── scenarios ──────────────────────────────────────────────────────────────

func TestFullApprovalFlow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	mr := f.mustCreate(t, seekerID)
	assert.Equal(t, domain.StatusAwaitingPoster, mr.Status)
	assert.Equal(t, 72, mr.MatchScore)
	assert.Equal(t, posterID, mr.PosterID)
	assert.Nil(t, mr.ContractID)

	accepted, err := f.uc.Decide(ctx, mr.ID, posterID, domain.PosterAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingLandlord, accepted.Status)
	assert.Nil(t, accepted.ContractID)

	approved, err := f.uc.LandlordDecide(ctx, mr.ID, landlordID, domain.LandlordApprove)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	require.NotNil(t, approved.ContractID)
	assert.Equal(t, "contract-"+mr.ID, *approved.ContractID)

	stored := f.stored(t, mr.ID)
	assert.Equal(t, approved.Status, stored.Status)
	assert.Equal(t, approved.ContractID, stored.ContractID)
	assert.NoError(t, stored.CheckInvariants())
	assert.Equal(t, 72, stored.MatchScore, "score is a snapshot")
	assert.Equal(t, []domain.Status{
		domain.StatusAwaitingPoster, domain.StatusAwaitingLandlord, domain.StatusApproved,
	}, f.events.tos)
}

func TestPosterRejectIsTerminal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	mr := f.mustCreate(t, seekerID)

	rejected, err := f.uc.Decide(ctx, mr.ID, posterID, domain.PosterReject)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, domain.DeciderPoster, *rejected.RejectedBy)

	before := f.stored(t, mr.ID)
	for _, d := range []domain.PosterDecision{domain.PosterAccept, domain.PosterReject} {
		_, err = f.uc.Decide(ctx, mr.ID, posterID, d)
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	}
	assert.Equal(t, before, f.stored(t, mr.ID))
}

func TestCreate_RoomNotSharing(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.store.Rooms().SetSharingEnabled(context.Background(), roomID, false)
	require.NoError(t, err)

	_, err = f.uc.Create(context.Background(), seekerID, createRequest())
	assert.ErrorIs(t, err, domain.ErrRoomNotSharing)
	assert.Zero(t, f.scores.calls)
}

func TestCreate_SharingWithoutRequirements(t *testing.T) {
	f := newFixture(t, nil)
	occupant := posterID
	f.store.PutRoom(domain.Room{ID: 11, LandlordID: landlordID, OccupantID: &occupant, SharingEnabled: true})

	req := createRequest()
	req.RoomID = 11
	_, err := f.uc.Create(context.Background(), seekerID, req)
	assert.ErrorIs(t, err, domain.ErrRoomNotSharing)
}

func TestCreate_UnknownRoom(t *testing.T) {
	f := newFixture(t, nil)
	req := createRequest()
	req.RoomID = 404

	_, err := f.uc.Create(context.Background(), seekerID, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_Duplicate(t *testing.T) {
	f := newFixture(t, nil)
	first := f.mustCreate(t, seekerID)

	_, err := f.uc.Create(context.Background(), seekerID, createRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	_, err = f.uc.Decide(context.Background(), first.ID, posterID, domain.PosterAccept)
	require.NoError(t, err)
	_, err = f.uc.Create(context.Background(), seekerID, createRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest, "awaiting landlord is still active")

	_, err = f.uc.LandlordDecide(context.Background(), first.ID, landlordID, domain.LandlordReject)
	require.NoError(t, err)
	again := f.mustCreate(t, seekerID)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestCreate_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Create(context.Background(), seekerID, createRequest())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
	}
	assert.Equal(t, 1, ok)
}

func TestCreate_OwnRoom(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.uc.Create(context.Background(), posterID, createRequest())
	assert.True(t, domain.IsValidation(err))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, nil)

	past := createRequest()
	past.RequestedMoveInDate = fixedNow.AddDate(0, 0, -2).Format(time.DateOnly)
	_, err := f.uc.Create(context.Background(), seekerID, past)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "requestedMoveInDate", ve.Field)

	noDuration := createRequest()
	noDuration.RequestedDuration = 0
	_, err = f.uc.Create(context.Background(), seekerID, noDuration)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "requestedDuration", ve.Field)

	sameDay := createRequest()
	sameDay.RequestedMoveInDate = "2026-10-16"
	_, err = f.uc.Create(context.Background(), seekerID, sameDay)
	assert.NoError(t, err)
}

func TestCreate_MoveInDateFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		field string
	}{
		{"calendar date", "2026-11-01", time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), ""},
		{"timestamp keeps the day", "2026-11-01T18:30:00Z", time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), ""},
		{"day first", "01.11.2026", time.Time{}, "requestedMoveInDate"},
		{"missing", "", time.Time{}, "requestedMoveInDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			req := createRequest()
			req.RequestedMoveInDate = tt.input

			mr, err := f.uc.Create(context.Background(), seekerID, req)
			if tt.field != "" {
				var ve *domain.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tt.field, ve.Field)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(mr.RequestedMoveInDate))
		})
	}
}

func TestCreate_ScoreEngineFailureWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.scores.err = domain.Transient("matching.score", errors.New("score 140 out of range"))

	_, err := f.uc.Create(context.Background(), seekerID, createRequest())
	assert.ErrorIs(t, err, domain.ErrTransient)

	active, err := f.requests.HasActive(context.Background(), seekerID, roomID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCreate_Explanation(t *testing.T) {
	f := newFixture(t, fakeExplainer{text: "Both of you keep early hours."})
	mr := f.mustCreate(t, seekerID)
	require.NotNil(t, mr.Explanation)
	assert.Equal(t, "Both of you keep early hours.", *mr.Explanation)

	f = newFixture(t, fakeExplainer{err: errors.New("quota exceeded")})
	mr = f.mustCreate(t, seekerID)
	assert.Nil(t, mr.Explanation)
}

func TestCreate_SlowExplanationIsCutOff(t *testing.T) {
	explainer := stalledExplainer{deadline: make(chan bool, 1)}
	f := newFixture(t, explainer)

	start := time.Now()
	mr := f.mustCreate(t, seekerID)
	assert.Less(t, time.Since(start), time.Second)
	assert.Nil(t, mr.Explanation)
	assert.Equal(t, domain.StatusAwaitingPoster, mr.Status)
	assert.True(t, <-explainer.deadline)
}

// ── poster decision ────────────────────────────────────────────────────────

func TestDecide_OnlyPoster(t *testing.T) {
	f := newFixture(t, nil)
	mr := f.mustCreate(t, seekerID)

	for _, caller := range []int{seekerID, landlordID} {
		_, err := f.uc.Decide(context.Background(), mr.ID, caller, domain.PosterAccept)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	}
	assert.Equal(t, domain.StatusAwaitingPoster, f.stored(t, mr.ID).Status)
}

func TestDecide_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.uc.Decide(context.Background(), "missing", posterID, domain.PosterAccept)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecide_SurvivesCallerCancellation(t *testing.T) {
	f := newFixture(t, nil)
	mr := f.mustCreate(t, seekerID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next, err := f.uc.Decide(ctx, mr.ID, posterID, domain.PosterAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingLandlord, next.Status)
}

func TestDecide_ConcurrentDecisionsOneWins(t *testing.T) {
	f := newFixture(t, nil)
	mr := f.mustCreate(t, seekerID)

	var wg sync.WaitGroup
	decisions := []domain.PosterDecision{domain.PosterAccept, domain.PosterReject, domain.PosterAccept, domain.PosterReject}
	errs := make([]error, len(decisions))
	for i, d := range decisions {
		wg.Add(1)
		go func(i int, d domain.PosterDecision) {
			defer wg.Done()
			_, errs[i] = f.uc.Decide(context.Background(), mr.ID, posterID, d)
		}(i, d)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	}
	assert.Equal(t, 1, wins)
}

// ── landlord decision ──────────────────────────────────────────────────────

func acceptedRequest(t *testing.T, f *fixture) *domain.MatchingRequest {
	t.Helper()
	mr := f.mustCreate(t, seekerID)
	next, err := f.uc.Decide(context.Background(), mr.ID, posterID, domain.PosterAccept)
	require.NoError(t, err)
	return next
}

func TestLandlordDecide_OnlyRoomLandlord(t *testing.T) {
	f := newFixture(t, nil)
	mr := acceptedRequest(t, f)

	_, err := f.uc.LandlordDecide(context.Background(), mr.ID, posterID, domain.LandlordApprove)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.contracts.created)
}

func TestLandlordDecide_RequiresPosterAcceptance(t *testing.T) {
	f := newFixture(t, nil)
	mr := f.mustCreate(t, seekerID)

	_, err := f.uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Empty(t, f.contracts.created, "no contract for a request the poster has not accepted")

	_, err = f.uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordReject)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestLandlordDecide_ContractFailureKeepsRequestPending(t *testing.T) {
	f := newFixture(t, nil)
	mr := acceptedRequest(t, f)
	f.contracts.createErr = domain.Transient("contracts.create", errors.New("503"))

	_, err := f.uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	assert.ErrorIs(t, err, domain.ErrTransient)

	stored := f.stored(t, mr.ID)
	assert.Equal(t, domain.StatusAwaitingLandlord, stored.Status)
	assert.Nil(t, stored.ContractID)

	f.contracts.createErr = nil
	approved, err := f.uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
}

// racingRepo lets a competing landlord reject land just before the approval commits.
type racingRepo struct {
	repository.MatchingRequestRepository
	once sync.Once
}

func (r *racingRepo) Transition(ctx context.Context, from domain.Status, next *domain.MatchingRequest) error {
	r.once.Do(func() {
		cur, _ := r.MatchingRequestRepository.GetByID(ctx, next.ID)
		rejected, _ := cur.ApplyLandlordDecision(domain.LandlordReject, "", time.Now())
		_ = r.MatchingRequestRepository.Transition(ctx, from, rejected)
	})
	return r.MatchingRequestRepository.Transition(ctx, from, next)
}

func TestLandlordDecide_LostRaceCancelsContract(t *testing.T) {
	f := newFixture(t, nil)
	mr := acceptedRequest(t, f)
	uc := f.build(&racingRepo{MatchingRequestRepository: f.requests}, nil)

	_, err := uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	require.Len(t, f.contracts.created, 1)
	assert.Equal(t, f.contracts.created, f.contracts.cancelled)

	stored := f.stored(t, mr.ID)
	assert.Equal(t, domain.StatusRejected, stored.Status)
	assert.Nil(t, stored.ContractID)
	assert.NoError(t, stored.CheckInvariants())
}

// doubleApproveRepo runs a complete second approval of the same request just
// before the first one commits, as a double click would.
type doubleApproveRepo struct {
	repository.MatchingRequestRepository
	once   sync.Once
	second func() (*domain.MatchingRequest, error)
	won    *domain.MatchingRequest
	err    error
}

func (r *doubleApproveRepo) Transition(ctx context.Context, from domain.Status, next *domain.MatchingRequest) error {
	r.once.Do(func() { r.won, r.err = r.second() })
	return r.MatchingRequestRepository.Transition(ctx, from, next)
}

func TestLandlordDecide_DoubleApprovalKeepsContract(t *testing.T) {
	f := newFixture(t, nil)
	mr := acceptedRequest(t, f)
	repo := &doubleApproveRepo{MatchingRequestRepository: f.requests}
	repo.second = func() (*domain.MatchingRequest, error) {
		return f.uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	}
	uc := f.build(repo, nil)

	got, err := uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	require.NoError(t, err)
	require.NoError(t, repo.err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, *repo.won.ContractID, *got.ContractID)

	assert.Empty(t, f.contracts.cancelled, "the committed contract must stay valid")
	stored := f.stored(t, mr.ID)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	require.NotNil(t, stored.ContractID)
	assert.Equal(t, "contract-"+mr.ID, *stored.ContractID)
	assert.NoError(t, stored.CheckInvariants())
}

// ambiguousRepo commits the transition and then reports a broken connection.
type ambiguousRepo struct {
	repository.MatchingRequestRepository
}

func (r ambiguousRepo) Transition(ctx context.Context, from domain.Status, next *domain.MatchingRequest) error {
	if err := r.MatchingRequestRepository.Transition(ctx, from, next); err != nil {
		return err
	}
	return errors.New("read tcp: connection reset by peer")
}

func TestLandlordDecide_UnknownCommitOutcomeKeepsContract(t *testing.T) {
	f := newFixture(t, nil)
	mr := acceptedRequest(t, f)
	uc := f.build(ambiguousRepo{MatchingRequestRepository: f.requests}, nil)

	_, err := uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidStateTransition)

	assert.Len(t, f.contracts.created, 1)
	assert.Empty(t, f.contracts.cancelled)
	stored := f.stored(t, mr.ID)
	assert.Equal(t, domain.StatusApproved, stored.Status)
	assert.NoError(t, stored.CheckInvariants())
}

func TestLandlordDecide_RejectLeavesRoomAndOthersAlone(t *testing.T) {
	f := newFixture(t, nil)
	mr := acceptedRequest(t, f)
	other := f.mustCreate(t, 3)

	rejected, err := f.uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordReject)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	assert.Equal(t, domain.DeciderLandlord, *rejected.RejectedBy)
	assert.Nil(t, rejected.ContractID)
	assert.Empty(t, f.contracts.created)

	room, err := f.store.Rooms().GetByID(context.Background(), roomID)
	require.NoError(t, err)
	assert.True(t, room.SharingEnabled)
	assert.Equal(t, domain.StatusAwaitingPoster, f.stored(t, other.ID).Status)
}

func TestDisablingSharingKeepsRequests(t *testing.T) {
	f := newFixture(t, nil)
	mr := acceptedRequest(t, f)

	_, err := f.store.Rooms().SetSharingEnabled(context.Background(), roomID, false)
	require.NoError(t, err)

	approved, err := f.uc.LandlordDecide(context.Background(), mr.ID, landlordID, domain.LandlordApprove)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	_, err = f.uc.Create(context.Background(), 3, createRequest())
	assert.ErrorIs(t, err, domain.ErrRoomNotSharing)
}
