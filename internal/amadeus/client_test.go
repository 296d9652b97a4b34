package amadeus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestServer(t *testing.T, tokenCalls *int32, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	mux.HandleFunc("/v1/security/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse token form: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" || r.Form.Get("client_id") != "id" || r.Form.Get("client_secret") != "secret" {
			http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok-1","expires_in":1799}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchFlightOffers(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		q := r.URL.Query()
		if q.Get("originLocationCode") != "GRU" || q.Get("destinationLocationCode") != "CDG" ||
			q.Get("departureDate") != "2026-05-15" || q.Get("adults") != "1" || q.Get("max") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{
			"data": [{
				"id": "1",
				"numberOfBookableSeats": 4,
				"itineraries": [{"duration": "PT11H", "segments": [{"carrierCode": "AF", "number": "457"}]}],
				"price": {"currency": "EUR", "total": "650.00", "grandTotal": "650.00"}
			}],
			"dictionaries": {"carriers": {"AF": "AIR FRANCE"}}
		}`)
	})
	srv := newTestServer(t, &tokenCalls, mux)

	c := NewClient(srv.URL, "id", "secret", "")
	q := FlightOfferQuery{Origin: "GRU", Destination: "CDG", DepartureDate: "2026-05-15", Adults: 1, Max: 5}
	for i := 0; i < 2; i++ {
		resp, err := c.SearchFlightOffers(context.Background(), q)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(resp.Data) != 1 {
			t.Fatalf("expected 1 offer, got %d", len(resp.Data))
		}
		offer := resp.Data[0]
		if offer.Price.Total != "650.00" || offer.Price.Currency != "EUR" {
			t.Errorf("unexpected price %+v", offer.Price)
		}
		if offer.NumberOfBookableSeats == nil || *offer.NumberOfBookableSeats != 4 {
			t.Errorf("unexpected seats %v", offer.NumberOfBookableSeats)
		}
		if resp.Dictionaries.Carriers["AF"] != "AIR FRANCE" {
			t.Errorf("unexpected carriers %v", resp.Dictionaries.Carriers)
		}
	}
	if n := atomic.LoadInt32(&tokenCalls); n != 1 {
		t.Errorf("expected token to be reused, got %d token calls", n)
	}
}

func TestSearchFlightOffers_APIError(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/shopping/flight-offers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"errors":[{"status":400,"code":425,"title":"INVALID DATE","detail":"Date/Time is in the past"}]}`)
	})
	srv := newTestServer(t, &tokenCalls, mux)

	c := NewClient(srv.URL, "id", "secret", "")
	_, err := c.SearchFlightOffers(context.Background(), FlightOfferQuery{Origin: "GRU", Destination: "CDG", DepartureDate: "2020-01-01", Adults: 1})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || len(apiErr.Errors) != 1 || apiErr.Errors[0].Code != 425 {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestSearchFlightOffers_BadCredentials(t *testing.T) {
	var tokenCalls int32
	srv := newTestServer(t, &tokenCalls, http.NewServeMux())

	c := NewClient(srv.URL, "id", "wrong", "")
	if _, err := c.SearchFlightOffers(context.Background(), FlightOfferQuery{Origin: "GRU", Destination: "CDG", Adults: 1}); err == nil {
		t.Fatal("expected auth error")
	}
}

func TestLocationCountry(t *testing.T) {
	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/reference-data/locations", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("keyword") {
		case "FCO":
			fmt.Fprint(w, `{"data":[
				{"subType":"CITY","iataCode":"ROM","address":{"countryName":"ITALY"}},
				{"subType":"AIRPORT","iataCode":"FCO","address":{"countryName":"ITALY","countryCode":"IT"}}
			]}`)
		case "ZZZ":
			fmt.Fprint(w, `{"data":[{"subType":"AIRPORT","iataCode":"ZZA","address":{"countryName":"NOWHERE"}}]}`)
		default:
			fmt.Fprint(w, `{"data":[]}`)
		}
	})
	srv := newTestServer(t, &tokenCalls, mux)
	c := NewClient(srv.URL, "id", "secret", "")

	name, err := c.LocationCountry(context.Background(), "FCO")
	if err != nil {
		t.Fatalf("lookup FCO: %v", err)
	}
	if name != "ITALY" {
		t.Errorf("expected ITALY, got %q", name)
	}

	for _, code := range []string{"ZZZ", "QQQ"} {
		if _, err := c.LocationCountry(context.Background(), code); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", code, err)
		}
	}
}

func TestBaseURLFor(t *testing.T) {
	tests := []struct {
		env     string
		want    string
		wantErr bool
	}{
		{"", TestBaseURL, false},
		{"test", TestBaseURL, false},
		{"production", ProductionBaseURL, false},
		{"staging", "", true},
	}
	for _, tt := range tests {
		got, err := BaseURLFor(tt.env)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("BaseURLFor(%q) = %q, %v", tt.env, got, err)
		}
	}
}
