package survey_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/manzanit0/kantomap/pkg/geocode"
	"github.com/manzanit0/kantomap/pkg/location"
	"github.com/manzanit0/kantomap/pkg/survey"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, query string) (*geocode.Coordinate, error) {
	args := m.Called(ctx, query)
	c, _ := args.Get(0).(*geocode.Coordinate)
	return c, args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Append(ctx context.Context, r location.Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockStore) ReadAll(ctx context.Context) ([]location.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]location.Record)
	return records, args.Error(1)
}

func (m *MockStore) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close() error {
	return nil
}

func TestService_Submit(t *testing.T) {
	saitama := &geocode.Coordinate{Latitude: 35.8617, Longitude: 139.6455}
	exhausted := &geocode.ExhaustedError{Provider: "nominatim", Err: &geocode.TransportError{Provider: "nominatim", Err: assert.AnError}}

	testCases := []struct {
		desc        string
		place       string
		wantQuery   string
		coord       *geocode.Coordinate
		resolveErr  error
		appendErr   error
		wantRecord  *location.Record
		wantErr     error
		wantAppends bool
	}{
		{
			desc:        "resolved place is appended",
			place:       "埼玉県さいたま市",
			wantQuery:   "埼玉県さいたま市, Japan",
			coord:       saitama,
			wantRecord:  &location.Record{Place: "埼玉県さいたま市", Latitude: 35.8617, Longitude: 139.6455},
			wantAppends: true,
		},
		{
			desc:        "place is normalised before resolving and storing",
			place:       "  ＪＲ　新宿駅 ",
			wantQuery:   "JR 新宿駅, Japan",
			coord:       &geocode.Coordinate{Latitude: 35.6896, Longitude: 139.7006},
			wantRecord:  &location.Record{Place: "JR 新宿駅", Latitude: 35.6896, Longitude: 139.7006},
			wantAppends: true,
		},
		{
			desc:    "blank place is rejected",
			place:   " \t ",
			wantErr: survey.ErrEmptyPlace,
		},
		{
			desc:      "no match is reported as ErrNoMatch",
			place:     "Atlantis",
			wantQuery: "Atlantis, Japan",
			wantErr:   survey.ErrNoMatch,
		},
		{
			desc:       "resolver failure is returned and nothing is stored",
			place:      "渋谷駅",
			wantQuery:  "渋谷駅, Japan",
			resolveErr: exhausted,
			wantErr:    exhausted,
		},
		{
			desc:        "store failure is returned",
			place:       "渋谷駅",
			wantQuery:   "渋谷駅, Japan",
			coord:       saitama,
			appendErr:   assert.AnError,
			wantErr:     assert.AnError,
			wantAppends: true,
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			resolver := new(MockResolver)
			store := new(MockStore)
			svc := survey.NewService(resolver, store, "Japan", "")

			if tC.wantQuery != "" {
				resolver.On("Resolve", mock.Anything, tC.wantQuery).Return(tC.coord, tC.resolveErr)
			}

			if tC.wantAppends {
				store.On("Append", mock.Anything, mock.AnythingOfType("location.Record")).Return(tC.appendErr)
			}

			got, err := svc.Submit(context.Background(), tC.place)
			if tC.wantErr != nil {
				assert.ErrorIs(t, err, tC.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tC.wantRecord, got)
				store.AssertCalled(t, "Append", mock.Anything, *tC.wantRecord)
			}

			resolver.AssertExpectations(t)
			store.AssertExpectations(t)
			if !tC.wantAppends {
				store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestService_Reset(t *testing.T) {
	testCases := []struct {
		desc       string
		configured string
		given      string
		wantErr    error
		wantReset  bool
	}{
		{desc: "matching password resets", configured: "santi", given: "santi", wantReset: true},
		{desc: "wrong password is forbidden", configured: "santi", given: "Santi", wantErr: survey.ErrForbidden},
		{desc: "prefix of the password is forbidden", configured: "santi", given: "san", wantErr: survey.ErrForbidden},
		{desc: "reset disabled without a configured password", configured: "", given: "", wantErr: survey.ErrForbidden},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			store := new(MockStore)
			if tC.wantReset {
				store.On("Reset", mock.Anything).Return(nil)
			}

			svc := survey.NewService(new(MockResolver), store, "Japan", tC.configured)

			err := svc.Reset(context.Background(), tC.given)
			if tC.wantErr != nil {
				assert.ErrorIs(t, err, tC.wantErr)
				store.AssertNotCalled(t, "Reset", mock.Anything)
			} else {
				assert.NoError(t, err)
				store.AssertExpectations(t)
			}
		})
	}
}

func TestService_Locations(t *testing.T) {
	records := []location.Record{{Place: "水戸市", Latitude: 36.3659, Longitude: 140.4714}}

	store := new(MockStore)
	store.On("ReadAll", mock.Anything).Return(records, nil)

	svc := survey.NewService(new(MockResolver), store, "Japan", "")

	got, err := svc.Locations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestService_QueryWithoutQualifier(t *testing.T) {
	svc := survey.NewService(nil, nil, "", "")
	assert.Equal(t, "Seoul", svc.Query("Seoul"))
}

func TestNormalizePlace(t *testing.T) {
	testCases := []struct {
		desc string
		in   string
		want string
	}{
		{desc: "untouched", in: "さいたま市", want: "さいたま市"},
		{desc: "full-width latin and digits", in: "ＪＲ２番線", want: "JR2番線"},
		{desc: "half-width katakana", in: "ｻｲﾀﾏ", want: "サイタマ"},
		{desc: "ideographic spaces collapse", in: "東京都　　渋谷区", want: "東京都 渋谷区"},
		{desc: "only whitespace", in: " 　 ", want: ""},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			assert.Equal(t, tC.want, survey.NormalizePlace(tC.in))
		})
	}
}
