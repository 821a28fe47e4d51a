package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callguard/callguard/pkg/domain/transcript"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Key:      "test-key",
		Language: "ko-KR",
		Endpoint: srv.URL,
	}, logrus.New())
}

func TestRecognize_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Contains(t, r.URL.RawQuery, "language=ko-KR")
		assert.Contains(t, r.Header.Get("Content-Type"), "audio/wav")
		_, _ = w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"환불해 주세요"}`))
	})

	tr, err := client.Recognize(context.Background(), []byte("wav-bytes"))

	require.NoError(t, err)
	assert.Equal(t, transcript.OutcomeRecognized, tr.Outcome)
	assert.Equal(t, "환불해 주세요", tr.Text)
}

func TestRecognize_NoMatchVariants(t *testing.T) {
	for _, status := range []string{"NoMatch", "InitialSilenceTimeout", "BabbleTimeout"} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"RecognitionStatus":"` + status + `"}`))
		})

		tr, err := client.Recognize(context.Background(), []byte("wav"))

		require.NoError(t, err, status)
		assert.Equal(t, transcript.OutcomeNoMatch, tr.Outcome, status)
		assert.Empty(t, tr.Text, status)
	}
}

func TestRecognize_ErrorStatusMapsToCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"RecognitionStatus":"Error"}`))
	})

	tr, err := client.Recognize(context.Background(), []byte("wav"))

	require.NoError(t, err)
	assert.Equal(t, transcript.OutcomeCanceled, tr.Outcome)
	assert.Equal(t, "Error", tr.CancelReason)
}

func TestRecognize_HTTPFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := client.Recognize(context.Background(), []byte("wav"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
