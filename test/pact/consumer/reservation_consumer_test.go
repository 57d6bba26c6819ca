//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-reservation-api-server/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type linePayload struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type createReservationPayload struct {
	PurchaseRef string        `json:"purchaseRef"`
	Lines       []linePayload `json:"lines"`
}

type reservationPayload struct {
	ID          string        `json:"id"`
	PurchaseRef string        `json:"purchaseRef"`
	UserID      string        `json:"userId"`
	Status      string        `json:"status"`
	Lines       []linePayload `json:"lines"`
}

type problemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type apiError struct {
	status int
	title  string
	detail string
}

func (e apiError) Error() string {
	msg := e.title
	if msg == "" {
		msg = "api error"
	}
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.status)
}

func (e apiError) Status() int {
	return e.status
}

func TestPurchasingPortalContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	lineMatcher := matchers.Map{
		"productId": matchers.Like(pacttest.PactProductID),
		"quantity":  matchers.Like(2),
	}
	reservationMatcher := matchers.Map{
		"id":          matchers.Like(pacttest.ExistingReservationID),
		"purchaseRef": matchers.Like(pacttest.PactPurchaseRef),
		"userId":      matchers.Like(pacttest.PactUserID),
		"status":      matchers.Term("confirmed", "confirmed|claimed|cancelled|expired"),
		"lines":       matchers.EachLike(lineMatcher, 1),
	}
	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")

	pact.AddInteraction().
		Given(pacttest.StateStockSeeded).
		UponReceiving("a request to create a reservation").
		WithRequest("POST", "/v1/reservations", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("X-User-ID", matchers.S(pacttest.PactUserID))
			b.JSONBody(matchers.Map{
				"purchaseRef": matchers.Like(pacttest.PactPurchaseRef),
				"lines":       matchers.EachLike(lineMatcher, 1),
			})
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(reservationMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateReservationExists).
		UponReceiving("a request to fetch an existing reservation").
		WithRequest("GET", "/v1/reservations/"+pacttest.ExistingReservationID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-User-ID", matchers.S(pacttest.PactUserID))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(reservationMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateReservationMissing).
		UponReceiving("a request for a missing reservation").
		WithRequest("GET", "/v1/reservations/"+pacttest.MissingReservationID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("X-User-ID", matchers.S(pacttest.PactUserID))
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateStockExhausted).
		UponReceiving("a request to reserve more stock than is available").
		WithRequest("POST", "/v1/reservations", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.Header("X-User-ID", matchers.S(pacttest.PactUserID))
			b.JSONBody(matchers.Map{
				"purchaseRef": matchers.Like(pacttest.PactPurchaseRef),
				"lines":       matchers.EachLike(lineMatcher, 1),
			})
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/conflict"),
				"title":  matchers.S("Conflict"),
				"status": matchers.Like(http.StatusConflict),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newReservationClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		request := createReservationPayload{
			PurchaseRef: pacttest.PactPurchaseRef,
			Lines:       []linePayload{{ProductID: pacttest.PactProductID, Quantity: 2}},
		}
		created, err := client.CreateReservation(ctx, request)
		if err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		if created == nil || created.ID == "" {
			return fmt.Errorf("expected created reservation ID to be set")
		}

		fetched, err := client.GetReservation(ctx, pacttest.ExistingReservationID)
		if err != nil {
			return fmt.Errorf("get reservation: %w", err)
		}
		if fetched == nil || fetched.ID != pacttest.ExistingReservationID {
			return fmt.Errorf("expected reservation id %s, got %+v", pacttest.ExistingReservationID, fetched)
		}

		if _, err := client.GetReservation(ctx, pacttest.MissingReservationID); err == nil {
			return fmt.Errorf("expected 404 for reservation %s", pacttest.MissingReservationID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.Status())
		}

		if _, err := client.CreateReservation(ctx, request); err == nil {
			return fmt.Errorf("expected conflict when stock is exhausted")
		} else if apiErr, ok := err.(apiError); ok && apiErr.Status() != http.StatusConflict {
			return fmt.Errorf("expected 409, got %d", apiErr.Status())
		}

		return nil
	})
	require.NoError(t, err)
}

type reservationClient struct {
	baseURL    string
	httpClient *http.Client
}

func newReservationClient(config pactconsumer.MockServerConfig) *reservationClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &reservationClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *reservationClient) CreateReservation(ctx context.Context, payload createReservationPayload) (*reservationPayload, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reservations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", pacttest.PactUserID)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var reservation reservationPayload
	if err := json.NewDecoder(res.Body).Decode(&reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (c *reservationClient) GetReservation(ctx context.Context, id string) (*reservationPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reservations/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-User-ID", pacttest.PactUserID)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, decodeAPIError(res)
	}

	var reservation reservationPayload
	if err := json.NewDecoder(res.Body).Decode(&reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	return apiError{
		status: status,
		title:  problem.Title,
		detail: problem.Detail,
	}
}
