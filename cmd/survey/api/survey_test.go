package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/manzanit0/kantomap/cmd/survey/msg"
	"github.com/manzanit0/kantomap/pkg/geocode"
	"github.com/manzanit0/kantomap/pkg/location"
	"github.com/manzanit0/kantomap/pkg/survey"
)

type MockSurveyService struct {
	mock.Mock
}

func (m *MockSurveyService) Submit(ctx context.Context, place string) (*location.Record, error) {
	args := m.Called(ctx, place)
	rec, _ := args.Get(0).(*location.Record)
	return rec, args.Error(1)
}

func (m *MockSurveyService) Locations(ctx context.Context) ([]location.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]location.Record)
	return records, args.Error(1)
}

func (m *MockSurveyService) Reset(ctx context.Context, password string) error {
	return m.Called(ctx, password).Error(0)
}

func newRouter(svc SurveyService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	NewSurveyController(svc).Register(r)
	return r
}

func postForm(r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func flashValue(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie {
			v, err := url.QueryUnescape(c.Value)
			require.NoError(t, err)
			return v
		}
	}

	return ""
}

func TestSurveyController_Submit(t *testing.T) {
	testCases := []struct {
		desc         string
		place        string
		mockRecord   *location.Record
		mockError    error
		wantLocation string
		wantFlash    string
	}{
		{
			desc:         "added place is carried in the flash cookie",
			place:        "渋谷駅",
			mockRecord:   &location.Record{Place: "渋谷駅", Latitude: 35.658, Longitude: 139.7016},
			wantLocation: "/?status=added",
			wantFlash:    "渋谷駅",
		},
		{
			desc:         "empty place",
			place:        "",
			mockError:    survey.ErrEmptyPlace,
			wantLocation: "/?status=empty",
		},
		{
			desc:         "no match",
			place:        "Atlantis",
			mockError:    survey.ErrNoMatch,
			wantLocation: "/?status=not_found",
		},
		{
			desc:         "all providers failed",
			place:        "Tokyo",
			mockError:    fmt.Errorf("resolve: %w", &geocode.ExhaustedError{Provider: "nominatim", Err: assert.AnError}),
			wantLocation: "/?status=failed",
		},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			svc := new(MockSurveyService)
			svc.On("Submit", mock.Anything, tC.place).Return(tC.mockRecord, tC.mockError)

			w := postForm(newRouter(svc), "/locations", url.Values{"place": {tC.place}})

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tC.wantLocation, w.Header().Get("Location"))
			assert.Equal(t, tC.wantFlash, flashValue(t, w))
			svc.AssertExpectations(t)
		})
	}
}

func TestSurveyController_Reset(t *testing.T) {
	testCases := []struct {
		desc         string
		mockError    error
		wantLocation string
	}{
		{desc: "reset", wantLocation: "/?status=reset"},
		{desc: "wrong password", mockError: survey.ErrForbidden, wantLocation: "/?status=forbidden"},
		{desc: "store failure", mockError: assert.AnError, wantLocation: "/?status=failed"},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			svc := new(MockSurveyService)
			svc.On("Reset", mock.Anything, "santi").Return(tC.mockError)

			w := postForm(newRouter(svc), "/admin/reset", url.Values{"password": {"santi"}})

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tC.wantLocation, w.Header().Get("Location"))
			svc.AssertExpectations(t)
		})
	}
}

func TestSurveyController_Index(t *testing.T) {
	t.Run("markers and flash are rendered", func(t *testing.T) {
		svc := new(MockSurveyService)
		svc.On("Locations", mock.Anything).Return([]location.Record{
			{Place: "さいたま市", Latitude: 35.8617, Longitude: 139.6455},
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/?status=added", nil)
		req.AddCookie(&http.Cookie{Name: flashCookie, Value: url.QueryEscape("さいたま市")})

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "✅ さいたま市 を地図に追加しました！")
		assert.Contains(t, body, `"lat":35.8617`)
		assert.Contains(t, body, `"lon":139.6455`)

		// Shown once.
		cleared := false
		for _, c := range w.Result().Cookies() {
			if c.Name == flashCookie && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared)
	})

	t.Run("added status without the flash cookie shows nothing", func(t *testing.T) {
		svc := new(MockSurveyService)
		svc.On("Locations", mock.Anything).Return([]location.Record{}, nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?status=added&place=%E5%81%BD%E7%89%A9", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "偽物")
		assert.NotContains(t, w.Body.String(), "を地図に追加しました")
	})

	t.Run("store failure still renders the page", func(t *testing.T) {
		svc := new(MockSurveyService)
		svc.On("Locations", mock.Anything).Return(nil, assert.AnError)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), msg.MsgLoadFailed)
		assert.Contains(t, w.Body.String(), `action="/locations"`)
	})

	t.Run("place names are escaped", func(t *testing.T) {
		svc := new(MockSurveyService)
		svc.On("Locations", mock.Anything).Return([]location.Record{
			{Place: "</script><script>alert(1)</script>", Latitude: 35, Longitude: 139},
		}, nil)

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "<script>alert(1)</script>")
	})
}

func TestSurveyController_List(t *testing.T) {
	records := []location.Record{
		{Place: "水戸市", Latitude: 36.3659, Longitude: 140.4714},
		{Place: "前橋市", Latitude: 36.3895, Longitude: 139.0634},
	}

	svc := new(MockSurveyService)
	svc.On("Locations", mock.Anything).Return(records, nil)

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/locations", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var got []location.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, records, got)
}

func TestSurveyController_Create(t *testing.T) {
	testCases := []struct {
		desc       string
		body       string
		place      string
		mockRecord *location.Record
		mockError  error
		wantStatus int
	}{
		{
			desc:       "created",
			body:       `{"place":"千葉市"}`,
			place:      "千葉市",
			mockRecord: &location.Record{Place: "千葉市", Latitude: 35.6074, Longitude: 140.1065},
			wantStatus: http.StatusCreated,
		},
		{desc: "missing place", body: `{}`, wantStatus: http.StatusBadRequest},
		{desc: "blank place", body: `{"place":"  "}`, place: "  ", mockError: survey.ErrEmptyPlace, wantStatus: http.StatusBadRequest},
		{desc: "no match", body: `{"place":"Atlantis"}`, place: "Atlantis", mockError: survey.ErrNoMatch, wantStatus: http.StatusNotFound},
		{desc: "providers down", body: `{"place":"Tokyo"}`, place: "Tokyo", mockError: assert.AnError, wantStatus: http.StatusBadGateway},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			svc := new(MockSurveyService)
			if tC.place != "" {
				svc.On("Submit", mock.Anything, tC.place).Return(tC.mockRecord, tC.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/locations", strings.NewReader(tC.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tC.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
