package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protoprederrors "github.com/protoqsar/protopred-go/pkg/errors"
	"github.com/protoqsar/protopred-go/pkg/types/prediction"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

var testCreds = Credentials{
	AccountToken:     "tok",
	AccountSecretKey: "sec",
	AccountUser:      "user",
}

// newTestClient spins up a TLS test server (the client refuses plain http)
// and returns a client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithBaseURL(server.URL + "/API/v2/"),
		WithHTTPClient(server.Client()),
		WithRetry(0, time.Millisecond),
	}, opts...)
	c, err := NewClient(testCreds, opts...)
	require.NoError(t, err)
	return c
}

func singleRequest() *PredictRequest {
	return &PredictRequest{
		Module: prediction.ModuleProtoPHYSCHEM,
		Models: []string{"model_phys:water_solubility"},
		Input:  SMILESInput("CCCCC"),
	}
}

const singleBody = `{"Water solubility": {"SMILES": "CCCCC", "Predicted value": "0.066 g/L",
	"Predicted numerical": 0.066, "Applicability domain**": "Inside (T/L/E/R)", "Chemical name": "-"}}`

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

// ---------------------------------------------------------------------------
// Constructor
// ---------------------------------------------------------------------------

func TestNewClient_RequiresCredentials(t *testing.T) {
	for _, creds := range []Credentials{
		{},
		{AccountToken: "t"},
		{AccountToken: "t", AccountSecretKey: "s"},
	} {
		_, err := NewClient(creds)
		assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeConfig))
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(testCreds)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, defaultRetryMax, c.retryMax)
	assert.Equal(t, defaultRetryDelay, c.retryDelay)
	assert.Equal(t, defaultTimeout, c.timeout)
}

func TestNewClient_ForcesHTTPS(t *testing.T) {
	c, err := NewClient(testCreds, WithBaseURL("http://example.com/API/v2"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/API/v2/", c.BaseURL())
}

func TestNewClient_AppendsTrailingSlash(t *testing.T) {
	c, err := NewClient(testCreds, WithBaseURL("https://example.com/API/v2"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/API/v2/", c.BaseURL())
}

func TestNewClient_RejectsBadScheme(t *testing.T) {
	_, err := NewClient(testCreds, WithBaseURL("ftp://example.com/"))
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeConfig))
}

// ---------------------------------------------------------------------------
// Terminal HTTP statuses — classified immediately, no retry
// ---------------------------------------------------------------------------

func TestPredict_Unauthorized_NoRetry(t *testing.T) {
	var attempts int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}, WithRetry(2, time.Millisecond))

	_, err := c.Predict(context.Background(), singleRequest())
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeAuthentication))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestPredict_BadRequest_PreservesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("models_list malformed"))
	})

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeValidation))
	assert.Contains(t, err.Error(), "models_list malformed")
}

func TestPredict_ServerError_APIError(t *testing.T) {
	var attempts int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}, WithRetry(3, time.Millisecond))

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)
	var ae *protoprederrors.AppError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, protoprederrors.ErrCodeAPI, ae.Code)
	assert.Equal(t, http.StatusBadGateway, ae.StatusCode)
	assert.Contains(t, ae.Detail, "upstream down")
	// Received statuses are terminal; no retry happened.
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestPredict_ErrorKeyIn2xxBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"error": "quota exceeded"}`)
	})

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeAPI))
	assert.Contains(t, err.Error(), "quota exceeded")
}

// ---------------------------------------------------------------------------
// Retry behaviour
// ---------------------------------------------------------------------------

func TestPredict_RetriesTimeoutsThenSucceeds(t *testing.T) {
	var attempts int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n <= 2 {
			time.Sleep(300 * time.Millisecond) // outlast the per-attempt timeout
			return
		}
		writeJSON(w, singleBody)
	}, WithRetry(2, 5*time.Millisecond), WithTimeout(50*time.Millisecond))

	resp, err := c.Predict(context.Background(), singleRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	require.Len(t, resp.ModelResults("Water solubility"), 1)
}

func TestPredict_TimeoutAfterExhaustedRetries(t *testing.T) {
	var attempts int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		time.Sleep(300 * time.Millisecond)
	}, WithRetry(2, 5*time.Millisecond), WithTimeout(50*time.Millisecond))

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeTimeout))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestPredict_ConnectionFailure_NetworkError(t *testing.T) {
	// Nothing listens on this port; every attempt fails to connect.
	c, err := NewClient(testCreds,
		WithBaseURL("https://127.0.0.1:1/API/v2/"),
		WithRetry(1, time.Millisecond),
		WithTimeout(250*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Predict(context.Background(), singleRequest())
	require.Error(t, err)
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeNetwork))
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestPredict_BackoffDoubles(t *testing.T) {
	// Timed-out handler goroutines are still running when later attempts
	// arrive, so the slice needs locking.
	var (
		mu     sync.Mutex
		stamps []time.Time
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		time.Sleep(200 * time.Millisecond)
	}, WithRetry(2, 40*time.Millisecond), WithTimeout(20*time.Millisecond))

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 3)

	// Waits are delay*2^0 then delay*2^1 on top of the timed-out attempt.
	gap1 := stamps[1].Sub(stamps[0])
	gap2 := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, gap1, 55*time.Millisecond)
	assert.GreaterOrEqual(t, gap2, 95*time.Millisecond)
	assert.Greater(t, gap2, gap1)
}

func TestPredict_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		time.Sleep(200 * time.Millisecond)
	}, WithRetry(5, time.Second), WithTimeout(50*time.Millisecond))

	_, err := c.Predict(ctx, singleRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Redirect policy
// ---------------------------------------------------------------------------

func TestPredict_RefusesSchemeDowngradeRedirect(t *testing.T) {
	var attempts int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Redirect(w, r, "http://insecure.example.com/API/v2/", http.StatusFound)
	}, WithRetry(2, time.Millisecond))

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downgrade")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

// ---------------------------------------------------------------------------
// Side-channel header
// ---------------------------------------------------------------------------

func TestPredict_ExtraJSONHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Extra-JSON", `{"execution_time": 1.5, "version": "v2"}`)
		writeJSON(w, singleBody)
	})

	resp, err := c.Predict(context.Background(), singleRequest())
	require.NoError(t, err)
	require.NotNil(t, resp.Extra)
	assert.Equal(t, 1.5, resp.Extra["execution_time"])
	assert.Equal(t, "v2", resp.Extra["version"])
}

func TestPredict_MalformedExtraJSONDropped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Extra-JSON", `{not json`)
		writeJSON(w, singleBody)
	})

	resp, err := c.Predict(context.Background(), singleRequest())
	require.NoError(t, err)
	assert.Nil(t, resp.Extra)
}

// ---------------------------------------------------------------------------
// Secrets hygiene
// ---------------------------------------------------------------------------

type captureLogger struct {
	lines []string
}

func (l *captureLogger) Debugf(format string, args ...interface{}) { l.capture(format, args...) }
func (l *captureLogger) Infof(format string, args ...interface{})  { l.capture(format, args...) }
func (l *captureLogger) Errorf(format string, args ...interface{}) { l.capture(format, args...) }
func (l *captureLogger) capture(format string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestPredict_CredentialsNeverLogged(t *testing.T) {
	logger := &captureLogger{}
	creds := Credentials{
		AccountToken:     "SECRET-TOKEN",
		AccountSecretKey: "SECRET-KEY",
		AccountUser:      "alice",
	}
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, singleBody)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(creds,
		WithBaseURL(server.URL+"/API/v2/"),
		WithHTTPClient(server.Client()),
		WithLogger(logger))
	require.NoError(t, err)

	_, err = c.Predict(context.Background(), singleRequest())
	require.NoError(t, err)

	for _, line := range logger.lines {
		assert.NotContains(t, line, "SECRET-TOKEN")
		assert.NotContains(t, line, "SECRET-KEY")
	}
}

// ---------------------------------------------------------------------------
// Metrics wiring
// ---------------------------------------------------------------------------

type recordedRequest struct {
	module  string
	outcome string
	seconds float64
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	retries  map[string]int
}

func (f *fakeRecorder) ObserveRequest(module, outcome string, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{module, outcome, seconds})
}

func (f *fakeRecorder) IncRetry(module string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retries == nil {
		f.retries = make(map[string]int)
	}
	f.retries[module]++
}

func TestPredict_RecordsSuccessMetric(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, singleBody)
	}, WithMetrics(rec))

	_, err := c.Predict(context.Background(), singleRequest())
	require.NoError(t, err)

	require.Len(t, rec.requests, 1)
	assert.Equal(t, "ProtoPHYSCHEM", rec.requests[0].module)
	assert.Equal(t, "ok", rec.requests[0].outcome)
	assert.GreaterOrEqual(t, rec.requests[0].seconds, 0.0)
	assert.Empty(t, rec.retries)
}

func TestPredict_RecordsRetriesAndTimeoutOutcome(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, WithRetry(2, 5*time.Millisecond), WithTimeout(50*time.Millisecond), WithMetrics(rec))

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)

	assert.Equal(t, 2, rec.retries["ProtoPHYSCHEM"])
	require.Len(t, rec.requests, 1)
	assert.Equal(t, "timeout", rec.requests[0].outcome)
}

func TestPredict_RecordsOutcomePerErrorKind(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, WithMetrics(rec))

	_, err := c.Predict(context.Background(), singleRequest())
	require.Error(t, err)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, "auth", rec.requests[0].outcome)

	// Local validation failures are observed too, without any retry.
	rec2 := &fakeRecorder{}
	c2 := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, singleBody)
	}, WithMetrics(rec2))

	req := singleRequest()
	req.Models = []string{"model_phys:nope"}
	_, err = c2.Predict(context.Background(), req)
	require.Error(t, err)
	require.Len(t, rec2.requests, 1)
	assert.Equal(t, "validation", rec2.requests[0].outcome)
	assert.Empty(t, rec2.retries)
}

// ---------------------------------------------------------------------------
// XLSX flow
// ---------------------------------------------------------------------------

func TestPredictXLSX_ReturnsRawBytes(t *testing.T) {
	sheet := []byte{0x50, 0x4b, 0x03, 0x04, 0xde, 0xad}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "XLSX", r.PostFormValue("output_type"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(sheet)
	})

	data, err := c.PredictXLSX(context.Background(), singleRequest())
	require.NoError(t, err)
	assert.Equal(t, sheet, data)
}

func TestSaveXLSX(t *testing.T) {
	path := t.TempDir() + "/out.xlsx"
	require.NoError(t, SaveXLSX([]byte("bytes"), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))

	err = SaveXLSX([]byte("bytes"), t.TempDir()+"/missing/out.xlsx")
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeFile))
}

func TestPredict_RejectsXLSXOutput(t *testing.T) {
	c, err := NewClient(testCreds)
	require.NoError(t, err)

	req := singleRequest()
	req.Output = prediction.OutputXLSX
	_, err = c.Predict(context.Background(), req)
	assert.True(t, protoprederrors.IsCode(err, protoprederrors.ErrCodeValidation))
}
