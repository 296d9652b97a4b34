package amadeus

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type location struct {
	SubType  string `json:"subType"`
	IATACode string `json:"iataCode"`
	Address  struct {
		CountryName string `json:"countryName"`
		CountryCode string `json:"countryCode"`
	} `json:"address"`
}

// LocationCountry returns the country name of the airport or city whose IATA
// code equals code exactly. Keyword matches on other codes are ignored.
func (c *Client) LocationCountry(ctx context.Context, code string) (string, error) {
	params := url.Values{}
	params.Set("subType", "AIRPORT,CITY")
	params.Set("keyword", code)

	var resp struct {
		Data []location `json:"data"`
	}
	if err := c.get(ctx, "/v1/reference-data/locations", params, &resp); err != nil {
		return "", err
	}
	for _, loc := range resp.Data {
		if !strings.EqualFold(loc.IATACode, code) {
			continue
		}
		if name := strings.TrimSpace(loc.Address.CountryName); name != "" {
			return name, nil
		}
	}
	return "", fmt.Errorf("location %s: %w", code, ErrNotFound)
}
