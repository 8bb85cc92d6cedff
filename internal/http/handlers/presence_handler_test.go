package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/logx"
)

type stubPresenceReader struct {
	statusFn func(identity string) domain.PresenceStatus
}

func (s *stubPresenceReader) StatusOf(identity string) domain.PresenceStatus {
	if s.statusFn == nil {
		panic("StatusOf not expected in this test")
	}
	return s.statusFn(identity)
}

type stubSuggester struct {
	suggestFn func(ctx context.Context, recent []string) []string
}

func (s *stubSuggester) Suggestions(ctx context.Context, recent []string) []string {
	if s.suggestFn == nil {
		panic("Suggestions not expected in this test")
	}
	return s.suggestFn(ctx, recent)
}

func TestPresenceHandler_Status(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/presence/courier-1", nil)
	req = withURLParam(req, "identity", "courier-1")
	rr := httptest.NewRecorder()

	p := &stubPresenceReader{
		statusFn: func(identity string) domain.PresenceStatus {
			require.Equal(t, "courier-1", identity)
			return domain.StatusAway
		},
	}

	h := NewPresenceHandler(logx.Nop(), p, &stubSuggester{})
	h.Status(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"identity": "courier-1", "status": "away"}`, rr.Body.String())
}

func TestPresenceHandler_Status_UnknownIsOffline(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/presence/ghost", nil)
	req = withURLParam(req, "identity", "ghost")
	rr := httptest.NewRecorder()

	p := &stubPresenceReader{
		statusFn: func(string) domain.PresenceStatus { return domain.StatusOffline },
	}

	h := NewPresenceHandler(logx.Nop(), p, &stubSuggester{})
	h.Status(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"identity": "ghost", "status": "offline"}`, rr.Body.String())
}

func TestPresenceHandler_Suggestions_OK(t *testing.T) {
	t.Parallel()

	body := `{"recent":["where are you?","almost there"]}`
	req := httptest.NewRequest(http.MethodPost, "/suggestions", strings.NewReader(body))
	rr := httptest.NewRecorder()

	s := &stubSuggester{
		suggestFn: func(_ context.Context, recent []string) []string {
			require.Equal(t, []string{"where are you?", "almost there"}, recent)
			return []string{"Be there in 5 minutes", "Stuck in traffic, sorry"}
		},
	}

	h := NewPresenceHandler(logx.Nop(), &stubPresenceReader{}, s)
	h.Suggestions(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"suggestions": ["Be there in 5 minutes", "Stuck in traffic, sorry"]}`, rr.Body.String())
}

func TestPresenceHandler_Suggestions_EmptyNeverNull(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/suggestions", strings.NewReader(`{"recent":[]}`))
	rr := httptest.NewRecorder()

	s := &stubSuggester{
		suggestFn: func(context.Context, []string) []string { return nil },
	}

	h := NewPresenceHandler(logx.Nop(), &stubPresenceReader{}, s)
	h.Suggestions(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"suggestions": []}`, rr.Body.String())
}

func TestPresenceHandler_Suggestions_BadJSON(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/suggestions", strings.NewReader("not json"))
	rr := httptest.NewRecorder()

	h := NewPresenceHandler(logx.Nop(), &stubPresenceReader{}, &stubSuggester{})
	h.Suggestions(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
