package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant is a minimal in-process stand-in for the Qdrant HTTP API. It
// records request bodies so tests can assert on the wire format.
type fakeQdrant struct {
	t *testing.T

	collectionExists bool
	createCalls      int
	upsertBodies     []map[string]interface{}
	searchBodies     []map[string]interface{}
	deleteBodies     []map[string]interface{}

	searchResponse string
	scrollResponse string
	countResponse  string
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /collections/consultants", func(w http.ResponseWriter, r *http.Request) {
		if !f.collectionExists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":4,"distance":"Cosine"}}}},"status":"ok"}`))
	})
	mux.HandleFunc("PUT /collections/consultants", func(w http.ResponseWriter, r *http.Request) {
		f.createCalls++
		f.collectionExists = true
		w.Write([]byte(`{"result":true,"status":"ok"}`))
	})
	mux.HandleFunc("PUT /collections/consultants/points", func(w http.ResponseWriter, r *http.Request) {
		f.upsertBodies = append(f.upsertBodies, decodeBody(f.t, r))
		w.Write([]byte(`{"result":{"status":"acknowledged"},"status":"ok","time":0.001}`))
	})
	mux.HandleFunc("POST /collections/consultants/points/search", func(w http.ResponseWriter, r *http.Request) {
		f.searchBodies = append(f.searchBodies, decodeBody(f.t, r))
		w.Write([]byte(f.searchResponse))
	})
	mux.HandleFunc("POST /collections/consultants/points/scroll", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.scrollResponse))
	})
	mux.HandleFunc("POST /collections/consultants/points/count", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(f.countResponse))
	})
	mux.HandleFunc("POST /collections/consultants/points/delete", func(w http.ResponseWriter, r *http.Request) {
		f.deleteBodies = append(f.deleteBodies, decodeBody(f.t, r))
		w.Write([]byte(`{"result":{"status":"acknowledged"},"status":"ok"}`))
	})

	return mux
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func newTestQdrant(t *testing.T, fake *fakeQdrant) *Qdrant {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	q, err := NewQdrant(&config.QdrantConfig{
		Endpoint:  srv.URL,
		Dimension: 4,
	}, WithHTTPTimeout(5*time.Second))
	require.NoError(t, err)
	return q
}

func TestNewQdrantCreatesMissingCollection(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: false}
	newTestQdrant(t, fake)
	assert.Equal(t, 1, fake.createCalls)
}

func TestNewQdrantKeepsExistingCollection(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	newTestQdrant(t, fake)
	assert.Zero(t, fake.createCalls)
}

func TestUpsertConsultantAssignsIDAndMapsPayload(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	q := newTestQdrant(t, fake)

	profile := types.ConsultantProfile{
		Name:         "Ada Lovelace",
		Skills:       []string{"Go", "Qdrant"},
		Availability: types.AvailabilityAvailable,
		Email:        "ada@example.com",
	}

	id, err := q.UpsertConsultant(context.Background(), profile, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.NotEmpty(t, id, "missing profile ID must get a store-assigned one")

	require.Len(t, fake.upsertBodies, 1)
	points := fake.upsertBodies[0]["points"].([]interface{})
	require.Len(t, points, 1)
	point := points[0].(map[string]interface{})
	assert.Equal(t, id, point["id"])

	payload := point["payload"].(map[string]interface{})
	assert.Equal(t, "Ada Lovelace", payload["name"])
	assert.Equal(t, "available", payload["availability"])
	assert.Equal(t, "ada@example.com", payload["email"])
	assert.NotContains(t, payload, "phone", "empty optional fields stay out of the payload")
}

func TestUpsertConsultantKeepsProvidedID(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	q := newTestQdrant(t, fake)

	profile := types.ConsultantProfile{ID: "existing-id", Name: "Ben"}
	id, err := q.UpsertConsultant(context.Background(), profile, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
}

func TestUpsertConsultantRejectsWrongDimension(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	q := newTestQdrant(t, fake)

	_, err := q.UpsertConsultant(context.Background(), types.ConsultantProfile{Name: "x"}, []float64{0.1})
	require.Error(t, err)
	assert.Empty(t, fake.upsertBodies)
}

func TestSearchConsultantsParsesHits(t *testing.T) {
	fake := &fakeQdrant{
		t:                t,
		collectionExists: true,
		searchResponse: `{
			"result": [
				{"id": "id-1", "score": 0.91, "payload": {"name": "Ada", "skills": ["Go", "React"], "availability": "available"}},
				{"id": "id-2", "score": 0.44, "payload": {"name": "Ben", "skills": [], "availability": "unknown"}}
			],
			"status": "ok",
			"time": 0.002
		}`,
	}
	q := newTestQdrant(t, fake)

	hits, err := q.SearchConsultants(context.Background(), []float64{0.1, 0.2, 0.3, 0.4}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "id-1", hits[0].Profile.ID)
	assert.Equal(t, "Ada", hits[0].Profile.Name)
	assert.Equal(t, []string{"Go", "React"}, hits[0].Profile.Skills)
	assert.Equal(t, types.AvailabilityAvailable, hits[0].Profile.Availability)
	assert.InDelta(t, 0.91, hits[0].RawScore, 1e-6)
	assert.InDelta(t, 0.44, hits[1].RawScore, 1e-6)

	require.Len(t, fake.searchBodies, 1)
	assert.Equal(t, float64(10), fake.searchBodies[0]["limit"])
	assert.Equal(t, true, fake.searchBodies[0]["with_payload"])
}

func TestSearchConsultantsRejectsWrongDimension(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	q := newTestQdrant(t, fake)

	_, err := q.SearchConsultants(context.Background(), []float64{0.1, 0.2}, 10)
	require.Error(t, err)
	assert.Empty(t, fake.searchBodies)
}

func TestListConsultantsParsesScroll(t *testing.T) {
	fake := &fakeQdrant{
		t:                t,
		collectionExists: true,
		scrollResponse: `{
			"result": {"points": [
				{"id": "id-1", "payload": {"name": "Ada", "skills": ["Go"], "availability": "available"}},
				{"id": "id-2", "payload": {"name": "Ben", "skills": ["React"], "availability": "busy"}}
			]},
			"status": "ok"
		}`,
	}
	q := newTestQdrant(t, fake)

	profiles, err := q.ListConsultants(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Ada", profiles[0].Name)
	assert.Equal(t, types.AvailabilityBusy, profiles[1].Availability)
}

func TestCountConsultants(t *testing.T) {
	fake := &fakeQdrant{
		t:                t,
		collectionExists: true,
		countResponse:    `{"result":{"count":42},"status":"ok"}`,
	}
	q := newTestQdrant(t, fake)

	count, err := q.CountConsultants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}

func TestDeleteConsultants(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	q := newTestQdrant(t, fake)

	require.NoError(t, q.DeleteConsultants(context.Background(), []string{"id-1", "id-2"}))
	require.Len(t, fake.deleteBodies, 1)
	assert.Equal(t, []interface{}{"id-1", "id-2"}, fake.deleteBodies[0]["points"])
}

func TestDeleteConsultantsEmptyIsNoop(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	q := newTestQdrant(t, fake)

	require.NoError(t, q.DeleteConsultants(context.Background(), nil))
	assert.Empty(t, fake.deleteBodies)
}

func TestDoRequestSurfacesAPIErrors(t *testing.T) {
	fake := &fakeQdrant{t: t, collectionExists: true}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fake.handler().ServeHTTP(w, r)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":{"error":"out of memory"}}`))
	}))
	t.Cleanup(srv.Close)

	q, err := NewQdrant(&config.QdrantConfig{Endpoint: srv.URL, Dimension: 4})
	require.NoError(t, err)

	_, err = q.CountConsultants(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}
