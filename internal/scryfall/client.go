// Package scryfall fetches card data and mana symbol artwork from the
// Scryfall API.
package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.scryfall.com"

// AnyManaValue asks for a random creature of any cost.
const AnyManaValue = -1

// ErrNotFound means the query matched no card.
var ErrNotFound = errors.New("no matching card")

// Card is one card record, flattened from the API response.
type Card struct {
	Name       string
	ManaValue  int
	ManaCost   string
	TypeLine   string
	OracleText string
	Power      string
	Toughness  string
	ImageURL   string
}

// Client queries the card API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a Client against the production API with the given
// request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// cardJSON mirrors the fields we read from the API payload.
type cardJSON struct {
	Name       string            `json:"name"`
	ManaValue  float64           `json:"mana_value"`
	CMC        float64           `json:"cmc"`
	ManaCost   string            `json:"mana_cost"`
	TypeLine   string            `json:"type_line"`
	OracleText string            `json:"oracle_text"`
	Power      string            `json:"power"`
	Toughness  string            `json:"toughness"`
	ImageURIs  map[string]string `json:"image_uris"`
	CardFaces  []cardJSON        `json:"card_faces"`
}

// RandomCreature fetches a random paper creature with the given mana
// value, or any cost for the AnyManaValue sentinel.
func (c *Client) RandomCreature(ctx context.Context, manaValue int) (Card, error) {
	q := "is:paper t:creature"
	if manaValue != AnyManaValue {
		q += fmt.Sprintf(" mv=%d", manaValue)
	}

	u := c.BaseURL + "/cards/random?" + url.Values{"q": {q}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Card{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Card{}, fmt.Errorf("card lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Card{}, fmt.Errorf("%w for mv=%d", ErrNotFound, manaValue)
	}
	if resp.StatusCode != http.StatusOK {
		return Card{}, fmt.Errorf("card lookup: unexpected status %s", resp.Status)
	}

	var data cardJSON
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Card{}, fmt.Errorf("decode card: %w", err)
	}
	return flatten(data, manaValue), nil
}

// flatten maps the API record into a Card. Multi-face cards have their
// cost, art, and text merged: faces become paragraphs and face costs join
// with " // ".
func flatten(data cardJSON, requestedMV int) Card {
	card := Card{
		Name:       data.Name,
		ManaCost:   data.ManaCost,
		TypeLine:   data.TypeLine,
		OracleText: data.OracleText,
		Power:      data.Power,
		Toughness:  data.Toughness,
		ImageURL:   pickImage(data.ImageURIs),
	}
	if card.Name == "" {
		card.Name = "Unknown"
	}

	mv := data.ManaValue
	if mv == 0 && data.CMC != 0 {
		mv = data.CMC
	}
	card.ManaValue = int(mv)
	if card.ManaValue == 0 && requestedMV > 0 {
		card.ManaValue = requestedMV
	}

	if len(data.CardFaces) > 0 {
		face := data.CardFaces[0]
		if card.ImageURL == "" {
			card.ImageURL = pickImage(face.ImageURIs)
		}
		if card.Power == "" {
			card.Power = face.Power
			card.Toughness = face.Toughness
		}

		var texts, costs []string
		for _, f := range data.CardFaces {
			if f.ManaCost != "" {
				costs = append(costs, f.ManaCost)
			}
			var parts []string
			for _, p := range []string{f.Name, f.TypeLine, f.OracleText} {
				if p != "" {
					parts = append(parts, p)
				}
			}
			if len(parts) > 0 {
				texts = append(texts, strings.Join(parts, "\n"))
			}
		}
		if len(texts) > 0 {
			card.OracleText = strings.Join(texts, "\n\n")
		}
		if card.ManaCost == "" && len(costs) > 0 {
			card.ManaCost = strings.Join(costs, " // ")
		}
	}

	return card
}

// pickImage prefers the tight art crop, then the full card scans.
func pickImage(uris map[string]string) string {
	for _, key := range []string{"art_crop", "normal", "large"} {
		if u := uris[key]; u != "" {
			return u
		}
	}
	return ""
}

// FetchImage downloads and decodes the image at the given URL.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
