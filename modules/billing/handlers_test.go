package billing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billinghttp "github.com/goodswim/backend/modules/billing"
	"github.com/goodswim/backend/pkg/billing"
)

// stubService scripts each Service method per test case.
type stubService struct {
	handleWebhook func(ctx context.Context, payload []byte, signature string) error
	startCheckout func(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error)
	startPortal   func(ctx context.Context, params billing.PortalParams) (*billing.PortalSession, error)
	subscription  func(ctx context.Context, teamID uuid.UUID) (*billing.Subscription, error)
}

func (s *stubService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return s.handleWebhook(ctx, payload, signature)
}

func (s *stubService) StartCheckout(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	return s.startCheckout(ctx, params)
}

func (s *stubService) StartPortal(ctx context.Context, params billing.PortalParams) (*billing.PortalSession, error) {
	return s.startPortal(ctx, params)
}

func (s *stubService) Subscription(ctx context.Context, teamID uuid.UUID) (*billing.Subscription, error) {
	return s.subscription(ctx, teamID)
}

func newTestServer(t *testing.T, svc billing.Service) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(billinghttp.Router(billinghttp.RouterOptions{
		Service:         svc,
		SignatureHeader: "Test-Signature",
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handleErr  error
		wantStatus int
	}{
		{name: "processed", handleErr: nil, wantStatus: http.StatusOK},
		{name: "bad signature", handleErr: billing.ErrInvalidSignature, wantStatus: http.StatusBadRequest},
		{name: "missing payload", handleErr: billing.ErrMissingPayload, wantStatus: http.StatusBadRequest},
		{name: "store failure retriable", handleErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotSignature string
			svc := &stubService{
				handleWebhook: func(ctx context.Context, payload []byte, signature string) error {
					gotSignature = signature
					return tt.handleErr
				},
			}
			srv := newTestServer(t, svc)

			req, err := http.NewRequest(http.MethodPost, srv.URL+"/webhook", bytes.NewBufferString(`{"id":"evt_1"}`))
			require.NoError(t, err)
			req.Header.Set("Test-Signature", "t=1,v1=abc")

			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "t=1,v1=abc", gotSignature)

			if tt.wantStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, true, body["received"])
			}
		})
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	t.Parallel()

	teamID, userID := uuid.New(), uuid.New()

	t.Run("returns redirect url", func(t *testing.T) {
		t.Parallel()

		svc := &stubService{
			startCheckout: func(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
				assert.Equal(t, teamID, params.TeamID)
				assert.Equal(t, billing.TierPro, params.Tier)
				assert.Equal(t, int64(15), params.SwimmerCount)
				return &billing.CheckoutSession{URL: "https://pay.test/cs_1", SessionID: "cs_1"}, nil
			},
		}
		srv := newTestServer(t, svc)

		body := fmt.Sprintf(`{"team_id":%q,"user_id":%q,"tier":"pro","swimmer_count":15,"email":"coach@club.test"}`,
			teamID, userID)
		resp, err := srv.Client().Post(srv.URL+"/checkout", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "https://pay.test/cs_1", got["url"])
	})

	t.Run("error mapping", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			err        error
			wantStatus int
		}{
			{name: "missing field", err: billing.ErrMissingField, wantStatus: http.StatusBadRequest},
			{name: "invalid tier", err: billing.ErrInvalidTier, wantStatus: http.StatusBadRequest},
			{name: "price not configured", err: billing.ErrPriceNotConfigured, wantStatus: http.StatusInternalServerError},
			{name: "provider down", err: billing.ErrProviderUnavailable, wantStatus: http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				svc := &stubService{
					startCheckout: func(ctx context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
						return nil, tt.err
					},
				}
				srv := newTestServer(t, svc)

				body := fmt.Sprintf(`{"team_id":%q,"user_id":%q,"tier":"pro"}`, teamID, userID)
				resp, err := srv.Client().Post(srv.URL+"/checkout", "application/json", bytes.NewBufferString(body))
				require.NoError(t, err)
				defer resp.Body.Close()

				assert.Equal(t, tt.wantStatus, resp.StatusCode)
			})
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &stubService{})
		resp, err := srv.Client().Post(srv.URL+"/checkout", "application/json", bytes.NewBufferString(`{not json`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestPortalEndpoint(t *testing.T) {
	t.Parallel()

	teamID, userID := uuid.New(), uuid.New()

	t.Run("returns portal url", func(t *testing.T) {
		t.Parallel()

		svc := &stubService{
			startPortal: func(ctx context.Context, params billing.PortalParams) (*billing.PortalSession, error) {
				assert.Equal(t, teamID, params.TeamID)
				assert.Equal(t, userID, params.UserID)
				return &billing.PortalSession{URL: "https://portal.test/ps_1"}, nil
			},
		}
		srv := newTestServer(t, svc)

		body := fmt.Sprintf(`{"team_id":%q,"user_id":%q}`, teamID, userID)
		resp, err := srv.Client().Post(srv.URL+"/portal", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "https://portal.test/ps_1", got["url"])
	})

	t.Run("no billing customer", func(t *testing.T) {
		t.Parallel()

		svc := &stubService{
			startPortal: func(ctx context.Context, params billing.PortalParams) (*billing.PortalSession, error) {
				return nil, billing.ErrNoCustomer
			},
		}
		srv := newTestServer(t, svc)

		body := fmt.Sprintf(`{"team_id":%q,"user_id":%q}`, teamID, userID)
		resp, err := srv.Client().Post(srv.URL+"/portal", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSubscriptionEndpoint(t *testing.T) {
	t.Parallel()

	teamID := uuid.New()

	t.Run("returns record", func(t *testing.T) {
		t.Parallel()

		trialEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		svc := &stubService{
			subscription: func(ctx context.Context, id uuid.UUID) (*billing.Subscription, error) {
				return &billing.Subscription{
					TeamID:   id,
					Status:   billing.StatusTrialing,
					Tier:     billing.TierTrial,
					TrialEnd: &trialEnd,
				}, nil
			},
		}
		srv := newTestServer(t, svc)

		resp, err := srv.Client().Get(srv.URL + "/subscription/" + teamID.String())
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, teamID.String(), got["team_id"])
		assert.Equal(t, "trialing", got["status"])
		assert.Equal(t, "trial", got["tier"])
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		svc := &stubService{
			subscription: func(ctx context.Context, id uuid.UUID) (*billing.Subscription, error) {
				return nil, billing.ErrSubscriptionNotFound
			},
		}
		srv := newTestServer(t, svc)

		resp, err := srv.Client().Get(srv.URL + "/subscription/" + teamID.String())
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid team id", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &stubService{})
		resp, err := srv.Client().Get(srv.URL + "/subscription/not-a-uuid")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
