package pmsapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pousada/internal/app/policies"
	"pousada/internal/domain/accommodation"
	domainauth "pousada/internal/domain/auth"
	"pousada/internal/domain/folio"
	"pousada/internal/domain/reservation"
	"pousada/internal/domain/shared/daterange"
)

const reservationJSON = `{
	"id": 42,
	"hospede": {"id": "g-1", "nome": "Ana Souza"},
	"dataCheckin": "2025-03-10T00:00:00Z",
	"dataCheckout": "2025-03-13",
	"status": "Confirmada",
	"acomodacao": {"tipo": "quarto", "id": 7, "nome": "Quarto Mar"},
	"canalVenda": {"id": "booking", "nome": "Booking.com"},
	"lancamentos": [
		{"id": "e2", "tipo": "produto", "descricao": "Agua", "valor": "10.00", "quantidade": 2, "criadoEm": "2025-03-11T10:00:00Z"},
		{"id": "e1", "tipo": "diaria", "descricao": "Diaria", "valor": 180.5, "criadoEm": "2025-03-10T14:00:00Z"}
	],
	"pagamentos": [
		{"id": "p1", "forma": "PIX", "valor": "100", "criadoEm": "2025-03-10T15:00:00Z"}
	]
}`

var testSession = domainauth.Session{Bearer: "bearer-1", TenantID: "pousada-9"}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetReservation_NormalizesWireFormat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/reservas/42", r.URL.Path)
		assert.Equal(t, "Bearer bearer-1", r.Header.Get("Authorization"))
		assert.Equal(t, "pousada-9", r.Header.Get(tenantHeader))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reservationJSON)
	})

	snap, err := client.GetReservation(context.Background(), testSession, "42")
	require.NoError(t, err)
	assert.Equal(t, reservation.ID("42"), snap.ID)
	assert.Equal(t, "g-1", snap.GuestID)
	assert.Equal(t, "Ana Souza", snap.GuestName)
	assert.Equal(t, reservation.StatusConfirmed, snap.Status)
	assert.Equal(t, "2025-03-10", snap.Stay.CheckInString())
	assert.Equal(t, 3, snap.Stay.Nights())
	assert.Equal(t, accommodation.Ref{Kind: accommodation.KindRoom, ID: "7"}, snap.Accommodation)
	assert.Equal(t, "Quarto Mar", snap.AccommodationLabel)
	require.NotNil(t, snap.SalesChannel)
	assert.Equal(t, "Booking.com", snap.SalesChannel.Name)

	require.Len(t, snap.Folio.Entries, 2)
	assert.Equal(t, folio.EntryProduct, snap.Folio.Entries[0].Type)
	assert.Equal(t, 2, snap.Folio.Entries[0].Quantity)
	assert.Equal(t, 1, snap.Folio.Entries[1].Quantity)
	require.Len(t, snap.Folio.Payments, 1)
	assert.Equal(t, folio.MethodPix, snap.Folio.Payments[0].Method)
	assert.True(t, decimal.RequireFromString("90.5").Equal(snap.Folio.Balance()))
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"rejection", http.StatusConflict, `{"codigo":"STATUS_INVALIDO","mensagem":"reserva cancelada"}`, func(t *testing.T, err error) {
			var rej *policies.RejectionError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, http.StatusConflict, rej.StatusCode)
			assert.Equal(t, "STATUS_INVALIDO", rej.Code)
			assert.Equal(t, "reserva cancelada", rej.Message)
		}},
		{"field rejection", http.StatusUnprocessableEntity, `{"mensagem":"invalido","campos":{"dataCheckout":"anterior ao checkin"}}`, func(t *testing.T, err error) {
			var rej *policies.RejectionError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, "anterior ao checkin", rej.Fields["dataCheckout"])
		}},
		{"plain text rejection", http.StatusBadRequest, `bad input`, func(t *testing.T, err error) {
			var rej *policies.RejectionError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, "bad input", rej.Message)
		}},
		{"unauthorized", http.StatusUnauthorized, ``, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, policies.ErrUnauthorized)
		}},
		{"not found", http.StatusNotFound, ``, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, policies.ErrNotFound)
		}},
		{"server error", http.StatusBadGateway, `oops`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, policies.ErrTransient)
		}},
		{"garbage body", http.StatusOK, `{"id":`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, policies.ErrMalformed)
		}},
		{"unknown status", http.StatusOK, `{"id":"1","status":"limbo","dataCheckin":"2025-03-10","dataCheckout":"2025-03-11"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, policies.ErrMalformed)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			_, err := client.CheckIn(context.Background(), testSession, "1")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, &http.Client{Timeout: time.Second}, nil)
	_, err := client.GetReservation(context.Background(), testSession, "1")
	assert.ErrorIs(t, err, policies.ErrTransient)
}

func TestMutate_RefetchesOnEmptyBody(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPatch {
			var body datesBodyWire
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "2025-03-15", body.CheckOut)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = io.WriteString(w, reservationJSON)
	})

	snap, err := client.ExtendStay(context.Background(), testSession, "42", "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, reservation.ID("42"), snap.ID)
	assert.Equal(t, []string{"PATCH /reservas/42/datas", "GET /reservas/42"}, calls)
}

func TestCreateReservation_SendsPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reservas", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "g-1", body["hospedeId"])
		assert.Equal(t, "2025-03-10", body["dataCheckin"])
		acc := body["acomodacao"].(map[string]any)
		assert.Equal(t, "cama", acc["tipo"])
		pay := body["pagamento"].(map[string]any)
		assert.Equal(t, "pix", pay["forma"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 99, "status": "pendente"}`)
	})

	stay, err := daterange.Parse("2025-03-10", "2025-03-12")
	require.NoError(t, err)
	res, err := client.CreateReservation(context.Background(), testSession, policies.CreateReservationRequest{
		GuestID:       "g-1",
		Stay:          stay,
		Accommodation: accommodation.Ref{Kind: accommodation.KindBed, ID: "b3"},
		Payment: &policies.InitialPayment{
			Method: folio.MethodPix,
			Amount: decimal.NewNullDecimal(decimal.RequireFromString("300")),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, reservation.ID("99"), res.ID)
	assert.Equal(t, reservation.StatusPending, res.Status)
}

func TestListAccommodationOptions_SkipsUnknownKinds(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-03-10", r.URL.Query().Get("checkin"))
		assert.Empty(t, r.URL.Query().Get("checkout"))
		_, _ = io.WriteString(w, `[
			{"id": 1, "tipo": "quarto", "nome": "Mar", "valorDiaria": "180.50"},
			{"id": 2, "tipo": "suite", "nome": "?"},
			{"id": "b1", "tipo": "cama", "nome": "Cama 1", "valorDiaria": 60}
		]`)
	})

	opts, err := client.ListAccommodationOptions(context.Background(), testSession, "2025-03-10", "")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "room:1", opts[0].Ref().Token())
	assert.True(t, decimal.RequireFromString("180.5").Equal(opts[0].Rate))
	assert.Equal(t, accommodation.KindBed, opts[1].Kind)
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var body loginBodyWire
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok","usuario":{"id":5,"nome":"Rita"},"pousadas":[{"id":"p1","nome":"Pousada Sol"},{"id":null}]}`)
	})

	grant, err := client.Login(context.Background(), policies.Credentials{Email: "rita@sol.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", grant.Bearer)
	assert.Equal(t, "5", grant.OperatorID)
	require.Len(t, grant.Tenants, 1)
	assert.Equal(t, "Pousada Sol", grant.Tenants[0].Name)

	_, err = client.Login(context.Background(), policies.Credentials{Email: "rita@sol.com", Password: "nope"})
	assert.ErrorIs(t, err, policies.ErrUnauthorized)
}
