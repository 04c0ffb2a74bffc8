package kakao

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/focusmate/internal/domain"
)

const hongdaeAddress = `{"meta":{"total_count":1},"documents":[{"address_name":"Seoul Mapo-gu Yanghwa-ro 160","x":"126.9237","y":"37.5572"}]}`

const studyCafes = `{
  "meta": {"total_count": 42},
  "documents": [
    {"place_name":"Focus Study Cafe","category_name":"Cafe > Study cafe","category_group_name":"Cafe","phone":"02-123-4567","address_name":"Seoul Mapo-gu Donggyo-dong 1","road_address_name":"Seoul Mapo-gu Yanghwa-ro 1","x":"126.92","y":"37.55","place_url":"http://place.map.kakao.com/1","distance":"120"},
    {"place_name":"Quiet Room","category_name":"Cafe > Study cafe","category_group_name":"","phone":"","address_name":"Seoul Mapo-gu Seogyo-dong 2","road_address_name":"","x":"126.93","y":"37.56","place_url":"http://place.map.kakao.com/2","distance":"480"}
  ]
}`

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		name         string
		args         domain.SearchArgs
		wantQuery    string
		wantCategory string
	}{
		{"study", domain.SearchArgs{Purpose: "study", Location: "Hongdae Station"}, "Hongdae Station study-cafe", "CE7"},
		{"work", domain.SearchArgs{Purpose: "work", Location: "Gangnam"}, "Gangnam cafe", "CE7"},
		{"exercise", domain.SearchArgs{Purpose: "exercise", Location: "Jamsil"}, "Jamsil gym", ""},
		{"reading", domain.SearchArgs{Purpose: "reading", Location: "Jongno"}, "Jongno library", ""},
		{"keyword overrides phrase", domain.SearchArgs{Purpose: "study", Location: "Sinchon", Keyword: "24h cafe"}, "Sinchon 24h cafe", "CE7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, c := SearchQuery(tt.args)
			assert.Equal(t, tt.wantQuery, q)
			assert.Equal(t, tt.wantCategory, c)
		})
	}
}

func TestSearchPlaces_HongdaeStudyCafes(t *testing.T) {
	f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case addressSearchPath:
			fmt.Fprint(w, hongdaeAddress)
		case keywordSearchPath:
			fmt.Fprint(w, studyCafes)
		default:
			http.NotFound(w, r)
		}
	})

	list, err := f.client().SearchPlaces(context.Background(), domain.SearchArgs{
		Purpose: "study", Location: "Hongdae Station", Radius: 1000, Limit: 5,
	})
	require.NoError(t, err)

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, addressSearchPath, reqs[0].Path)
	assert.Equal(t, "Hongdae Station", reqs[0].Query.Get("query"))

	search := reqs[1]
	assert.Equal(t, http.MethodGet, search.Method)
	assert.Equal(t, "KakaoAK test-key", search.Auth)
	assert.Equal(t, "Hongdae Station study-cafe", search.Query.Get("query"))
	assert.Equal(t, "CE7", search.Query.Get("category_group_code"))
	assert.Equal(t, "126.9237", search.Query.Get("x"))
	assert.Equal(t, "37.5572", search.Query.Get("y"))
	assert.Equal(t, "1000", search.Query.Get("radius"))
	assert.Equal(t, "5", search.Query.Get("size"))
	assert.Equal(t, "distance", search.Query.Get("sort"))

	assert.Equal(t, "Hongdae Station study-cafe", list.Query)
	assert.Equal(t, 42, list.TotalCount)
	require.Len(t, list.Places, 2)

	first := list.Places[0]
	assert.Equal(t, "Focus Study Cafe", first.Name)
	assert.Equal(t, "Seoul Mapo-gu Yanghwa-ro 1", first.Address)
	assert.Equal(t, 120, first.DistanceMeters)
	assert.Equal(t, "02-123-4567", first.Phone)
	assert.Equal(t, "Cafe", first.Category)
	assert.InDelta(t, 126.92, first.X, 1e-9)

	second := list.Places[1]
	assert.Equal(t, "Seoul Mapo-gu Seogyo-dong 2", second.Address, "falls back to the lot address")
	assert.Equal(t, domain.PhoneUnavailable, second.Phone)
	assert.Equal(t, "Study cafe", second.Category)
}

func TestSearchPlaces_NoCategoryForExercise(t *testing.T) {
	f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == addressSearchPath {
			fmt.Fprint(w, hongdaeAddress)
			return
		}
		fmt.Fprint(w, `{"meta":{"total_count":0},"documents":[]}`)
	})

	list, err := f.client().SearchPlaces(context.Background(), domain.SearchArgs{
		Purpose: "exercise", Location: "Jamsil", Radius: 500, Limit: 3,
	})
	require.NoError(t, err)
	assert.Empty(t, list.Places)

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.False(t, reqs[1].Query.Has("category_group_code"))
}

func TestSearchPlaces_GeocodeFallsBackToKeyword(t *testing.T) {
	f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == addressSearchPath:
			fmt.Fprint(w, `{"meta":{"total_count":0},"documents":[]}`)
		case r.URL.Query().Has("x"):
			fmt.Fprint(w, studyCafes)
		default:
			fmt.Fprint(w, `{"meta":{"total_count":1},"documents":[{"place_name":"Gangnam Station","x":"127.0276","y":"37.4979"}]}`)
		}
	})

	_, err := f.client().SearchPlaces(context.Background(), domain.SearchArgs{
		Purpose: "work", Location: "Gangnam Station", Radius: 500, Limit: 5,
	})
	require.NoError(t, err)

	reqs := f.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, keywordSearchPath, reqs[1].Path)
	assert.Equal(t, "1", reqs[1].Query.Get("size"))
	assert.Equal(t, "127.0276", reqs[2].Query.Get("x"))
	assert.Equal(t, "37.4979", reqs[2].Query.Get("y"))
}

func TestSearchPlaces_LocationNotFound(t *testing.T) {
	f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta":{"total_count":0},"documents":[]}`)
	})

	_, err := f.client().SearchPlaces(context.Background(), domain.SearchArgs{
		Purpose: "study", Location: "Nowhere-dong", Radius: 500, Limit: 5,
	})
	de := requireKind(t, err, domain.KindNotFound)
	assert.Equal(t, "Nowhere-dong", de.Location)
	assert.Len(t, f.Requests(), 2, "no place search without coordinates")
}

func TestSearchPlaces_MissingAPIKey(t *testing.T) {
	f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {})
	c := NewClient("  ", WithBaseURLs(f.URL, f.URL))

	_, err := c.SearchPlaces(context.Background(), domain.SearchArgs{
		Purpose: "study", Location: "Seoul", Radius: 500, Limit: 5,
	})
	de := requireKind(t, err, domain.KindConfigMissing)
	assert.Equal(t, RESTAPIKeyEnv, de.Setting)
	assert.Empty(t, f.Requests())
}

func TestSearchPlaces_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   domain.Kind
		wantDetail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errorType":"AccessDeniedError","message":"wrong appKey"}`, domain.KindUnauthorized, ""},
		{"rate limited", http.StatusTooManyRequests, ``, domain.KindRateLimited, ""},
		{"bad request", http.StatusBadRequest, `{"errorType":"MissingParameter","message":"query parameter required"}`, domain.KindProvider, "query parameter required"},
		{"server error", http.StatusBadGateway, `upstream down`, domain.KindProvider, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := f.client().SearchPlaces(context.Background(), domain.SearchArgs{
				Purpose: "study", Location: "Seoul", Radius: 500, Limit: 5,
			})
			de := requireKind(t, err, tt.wantKind)
			assert.Equal(t, tt.wantDetail, de.Detail)
			assert.Len(t, f.Requests(), 1, "errors are not retried")
		})
	}
}

func TestSearchPlaces_MalformedBody(t *testing.T) {
	f := newFakeKakao(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"documents":`)
	})

	_, err := f.client().SearchPlaces(context.Background(), domain.SearchArgs{
		Purpose: "study", Location: "Seoul", Radius: 500, Limit: 5,
	})
	requireKind(t, err, domain.KindProvider)
}

func TestLastCategory(t *testing.T) {
	assert.Equal(t, "Study cafe", lastCategory("Food > Cafe > Study cafe"))
	assert.Equal(t, "Library", lastCategory("Library"))
	assert.Equal(t, "", lastCategory(""))
}
