package rating

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-insights-go/internal/logger"
	"listing-insights-go/internal/types"
)

func testRecord() types.VehicleRecord {
	return types.VehicleRecord{Vehicle: types.Vehicle{VIN: "ABC123", Make: types.Ptr("Honda")}}
}

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		URL:            url,
		APIKey:         "secret",
		RequestTimeout: time.Second,
		MaxElapsed:     3 * time.Second,
	}, logger.Discard())
}

func TestClientRateBareObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]types.VehicleRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ABC123", body["vehicle"].Vehicle.VIN)
		w.Write([]byte(`{"overallRating": 4.1, "safetyRating": 4.5}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Rate(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, 4.1, got["overallRating"])
}

func TestClientRateChoicesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"dealRating\\\": 3.45}\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Rate(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, 3.45, got["dealRating"])
}

func TestClientRateRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"overallRating": 3.0}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Rate(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, 3.0, got["overallRating"])
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClientRateRetriesTruncatedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			conn, buf, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 100\r\n\r\n{\"overall")
			buf.Flush()
			conn.Close()
			return
		}
		w.Write([]byte(`{"overallRating": 4.0}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Rate(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, 4.0, got["overallRating"])
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClientRateClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Rate(context.Background(), testRecord())
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClientRateErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Missing OpenAI API key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Rate(context.Background(), testRecord())
	assert.ErrorIs(t, err, ErrRatingUnavailable)
}

func TestClientRateUnconfigured(t *testing.T) {
	_, err := newTestClient("").Rate(context.Background(), testRecord())
	assert.Error(t, err)
}

func TestDecodeRatingsRawText(t *testing.T) {
	got, err := decodeRatings([]byte(`{"choices":[{"message":{"content":"solid car, 4 stars"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, types.Ratings{"rawText": "solid car, 4 stars"}, got)
}

func TestDecodeRatingsEmbeddedObject(t *testing.T) {
	got, err := decodeRatings([]byte(`ratings follow: {"overallRating": 2.5} thanks`))
	require.NoError(t, err)
	assert.Equal(t, 2.5, got["overallRating"])

	_, err = decodeRatings([]byte(`nothing here`))
	assert.Error(t, err)
}

func TestStaticReturnsCopy(t *testing.T) {
	s := MockRatings()
	first, err := s.Rate(context.Background(), testRecord())
	require.NoError(t, err)
	first["overallRating"] = 0.0

	second, _ := s.Rate(context.Background(), testRecord())
	assert.Equal(t, 3.69, second["overallRating"])
}

func TestCheckPayload(t *testing.T) {
	assert.ErrorIs(t, CheckPayload(nil), ErrRatingUnavailable)
	assert.ErrorIs(t, CheckPayload(types.Ratings{"error": "x"}), ErrRatingUnavailable)
	assert.NoError(t, CheckPayload(types.Ratings{}))
}
