package listing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bike-resale-api/internal/application/image"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockImages struct{ mock.Mock }

func (m *mockImages) Store(ctx context.Context, folder string, up image.Upload) (string, error) {
	args := m.Called(ctx, folder, up)
	return args.String(0), args.Error(1)
}
func (m *mockImages) StoreAll(ctx context.Context, folder string, ups []image.Upload) ([]string, error) {
	args := m.Called(ctx, folder, ups)
	urls, _ := args.Get(0).([]string)
	return urls, args.Error(1)
}
func (m *mockImages) Remove(ctx context.Context, folder string, urls []string) image.CleanupResult {
	args := m.Called(ctx, folder, urls)
	res, _ := args.Get(0).(image.CleanupResult)
	return res
}

type mockInvalidator struct{ mock.Mock }

func (m *mockInvalidator) Invalidate(ctx context.Context) error { return m.Called(ctx).Error(0) }

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev domain.ListingEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func uploads(n int) []image.Upload {
	out := make([]image.Upload, n)
	for i := range out {
		out[i] = image.Upload{Reader: strings.NewReader("img"), Filename: "x.png"}
	}
	return out
}

var validFields = domain.BikeFields{
	Brand:          "Yamaha",
	BikeName:       "FZ",
	YearOfPurchase: 2019,
	CC:             150,
	KmsDriven:      12000,
	Owner:          "First Owner",
	Servicing:      "regular",
	Price:          150000,
	District:       "Kathmandu",
}

func ptr[T any](v T) *T { return &v }

func TestCreate_PersistsWithImagesAndOwner(t *testing.T) {
	repo := memory.NewBikeRepo()
	imgs := &mockImages{}
	imgs.On("StoreAll", mock.Anything, image.FolderBikes, mock.MatchedBy(func(u []image.Upload) bool { return len(u) == 1 })).Return([]string{"https://cdn/bike_uploads/bill.png"}, nil).Once()
	imgs.On("StoreAll", mock.Anything, image.FolderBikes, mock.MatchedBy(func(u []image.Upload) bool { return len(u) == 2 })).Return([]string{"https://cdn/bike_uploads/p1.png", "https://cdn/bike_uploads/p2.png"}, nil).Once()
	inv := &mockInvalidator{}
	inv.On("Invalidate", mock.Anything).Return(nil)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev domain.ListingEvent) bool {
		return ev.Type == domain.EventListingCreated && ev.OwnerID == "u1"
	})).Return(errors.New("sns unavailable"))

	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: imgs, Cache: inv, Events: pub})
	b, err := svc.Create(context.Background(), "u1", CreateInput{Fields: validFields, BillBookImages: uploads(1), BikeImages: uploads(2)})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), b.BikeID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.ListedBy)
	assert.Len(t, stored.BikeImages, 2)
	assert.Len(t, stored.BillBookImages, 1)
	assert.Equal(t, 150000, stored.Price)
	inv.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreate_ThreeBikeImagesRejectedNothingPersisted(t *testing.T) {
	repo := memory.NewBikeRepo()
	imgs := &mockImages{}
	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: imgs})

	_, err := svc.Create(context.Background(), "u1", CreateInput{Fields: validFields, BillBookImages: uploads(1), BikeImages: uploads(3)})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	all, _ := repo.Query(context.Background(), domain.ListingFilter{})
	assert.Empty(t, all)
	imgs.AssertNotCalled(t, "StoreAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_MissingImageSlotRejected(t *testing.T) {
	svc := NewMutationService(MutationDeps{BikeRepo: memory.NewBikeRepo(), Images: &mockImages{}})
	_, err := svc.Create(context.Background(), "u1", CreateInput{Fields: validFields, BikeImages: uploads(1)})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreate_InvalidEnumRejected(t *testing.T) {
	f := validFields
	f.TyreCondition = "bald"
	svc := NewMutationService(MutationDeps{BikeRepo: memory.NewBikeRepo(), Images: &mockImages{}})
	_, err := svc.Create(context.Background(), "u1", CreateInput{Fields: f, BillBookImages: uploads(1), BikeImages: uploads(1)})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreate_SecondSlotFailureRemovesFirst(t *testing.T) {
	imgs := &mockImages{}
	imgs.On("StoreAll", mock.Anything, image.FolderBikes, mock.Anything).Return([]string{"https://cdn/bike_uploads/bill.png"}, nil).Once()
	imgs.On("StoreAll", mock.Anything, image.FolderBikes, mock.Anything).Return(nil, errors.New("s3 down")).Once()
	imgs.On("Remove", mock.Anything, image.FolderBikes, []string{"https://cdn/bike_uploads/bill.png"}).Return(image.CleanupResult{})

	svc := NewMutationService(MutationDeps{BikeRepo: memory.NewBikeRepo(), Images: imgs})
	_, err := svc.Create(context.Background(), "u1", CreateInput{Fields: validFields, BillBookImages: uploads(1), BikeImages: uploads(1)})
	require.Error(t, err)
	imgs.AssertExpectations(t)
}

func seedOwned(t *testing.T, repo *memory.BikeRepo) {
	t.Helper()
	require.NoError(t, repo.Put(context.Background(), &domain.Bike{
		BikeID:         "b1",
		ListedBy:       "owner",
		Brand:          "Honda",
		Price:          90000,
		BillBookImages: []string{"https://cdn/bike_uploads/old-bill.png"},
		BikeImages:     []string{"https://cdn/bike_uploads/old-1.png", "https://cdn/bike_uploads/old-2.png"},
	}))
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewMutationService(MutationDeps{BikeRepo: memory.NewBikeRepo(), Images: &mockImages{}})
	_, err := svc.Update(context.Background(), "owner", UpdateInput{BikeID: "nope"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdateAndDelete_MissingIDIsNotFound(t *testing.T) {
	svc := NewMutationService(MutationDeps{BikeRepo: memory.NewBikeRepo(), Images: &mockImages{}})
	_, err := svc.Update(context.Background(), "owner", UpdateInput{})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(context.Background(), "owner", ""), domain.ErrNotFound))
}

func TestUpdate_NonOwnerForbiddenAndUnchanged(t *testing.T) {
	repo := memory.NewBikeRepo()
	seedOwned(t, repo)
	imgs := &mockImages{}
	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: imgs})

	_, err := svc.Update(context.Background(), "intruder", UpdateInput{BikeID: "b1", Patch: domain.BikePatch{Price: ptr(1)}, BikeImages: uploads(1)})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	b, _ := repo.Get(context.Background(), "b1")
	assert.Equal(t, 90000, b.Price)
	imgs.AssertNotCalled(t, "StoreAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_PatchesOnlyPresentFields(t *testing.T) {
	repo := memory.NewBikeRepo()
	seedOwned(t, repo)
	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: &mockImages{}})

	b, err := svc.Update(context.Background(), "owner", UpdateInput{BikeID: "b1", Patch: domain.BikePatch{Price: ptr(85000), District: ptr("Pokhara")}})
	require.NoError(t, err)
	assert.Equal(t, 85000, b.Price)
	assert.Equal(t, "Pokhara", b.District)
	assert.Equal(t, "Honda", b.Brand)
	assert.Len(t, b.BikeImages, 2)
}

func TestUpdate_ReplacesImageSlotAndCleansOldBestEffort(t *testing.T) {
	repo := memory.NewBikeRepo()
	seedOwned(t, repo)
	imgs := &mockImages{}
	imgs.On("StoreAll", mock.Anything, image.FolderBikes, mock.Anything).Return([]string{"https://cdn/bike_uploads/new.png"}, nil)
	imgs.On("Remove", mock.Anything, image.FolderBikes, []string{"https://cdn/bike_uploads/old-1.png", "https://cdn/bike_uploads/old-2.png"}).
		Return(image.CleanupResult{Failed: map[string]error{"https://cdn/bike_uploads/old-1.png": errors.New("boom")}})
	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: imgs})

	b, err := svc.Update(context.Background(), "owner", UpdateInput{BikeID: "b1", BikeImages: uploads(1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/bike_uploads/new.png"}, b.BikeImages)
	assert.Equal(t, []string{"https://cdn/bike_uploads/old-bill.png"}, b.BillBookImages)
	imgs.AssertExpectations(t)
}

func TestUpdate_TooManyImagesRejected(t *testing.T) {
	repo := memory.NewBikeRepo()
	seedOwned(t, repo)
	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: &mockImages{}})
	_, err := svc.Update(context.Background(), "owner", UpdateInput{BikeID: "b1", BillBookImages: uploads(3)})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	b, _ := repo.Get(context.Background(), "b1")
	assert.Len(t, b.BillBookImages, 1)
}

func TestDelete_NonOwnerForbidden(t *testing.T) {
	repo := memory.NewBikeRepo()
	seedOwned(t, repo)
	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: &mockImages{}})
	assert.True(t, errors.Is(svc.Delete(context.Background(), "intruder", "b1"), domain.ErrForbidden))
	_, err := repo.Get(context.Background(), "b1")
	assert.NoError(t, err)
}

func TestDelete_ImageFailureDoesNotBlockRecordRemoval(t *testing.T) {
	repo := memory.NewBikeRepo()
	seedOwned(t, repo)
	imgs := &mockImages{}
	imgs.On("Remove", mock.Anything, image.FolderBikes, mock.Anything).
		Return(image.CleanupResult{Failed: map[string]error{"x": errors.New("boom")}})
	svc := NewMutationService(MutationDeps{BikeRepo: repo, Images: imgs})

	require.NoError(t, svc.Delete(context.Background(), "owner", "b1"))
	_, err := repo.Get(context.Background(), "b1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	imgs.AssertCalled(t, "Remove", mock.Anything, image.FolderBikes, []string{
		"https://cdn/bike_uploads/old-bill.png",
		"https://cdn/bike_uploads/old-1.png",
		"https://cdn/bike_uploads/old-2.png",
	})
}
