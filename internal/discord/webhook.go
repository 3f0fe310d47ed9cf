// Package discord talks to Discord: outbound webhook notifications for
// marketplace events and the OAuth flow used for Discord login.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fs25hub/internal/model"
)

const (
	colorBlue  = 0x00AAFF
	colorGreen = 0x00FF00
)

// Embed mirrors the Discord embed object.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
	Username string  `json:"username,omitempty"`
}

// Notifier posts messages to a Discord webhook. Delivery is best-effort:
// callers log failures and move on, a failed notification never fails the
// workflow that triggered it.
type Notifier struct {
	webhookURL string
	username   string
	client     *http.Client
}

func NewNotifier(webhookURL, username string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		username:   username,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether a webhook URL was provided.
func (n *Notifier) Configured() bool {
	return n != nil && n.webhookURL != ""
}

// Send posts the embeds to the configured webhook.
func (n *Notifier) Send(ctx context.Context, content string, embeds []Embed) error {
	if !n.Configured() {
		return fmt.Errorf("discord webhook URL is not configured")
	}
	if content == "" && len(embeds) == 0 {
		return fmt.Errorf("discord message must have content or embeds")
	}

	body, err := json.Marshal(webhookPayload{Content: content, Embeds: embeds, Username: n.username})
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// ProductEmbed summarizes a listing for the product-updates channel.
func ProductEmbed(product *model.Product, sellerName, titlePrefix string) Embed {
	// Truncate by rune so a multibyte character is never split.
	description := product.Description
	if runes := []rune(description); len(runes) > 200 {
		description = string(runes[:200]) + "..."
	}
	return Embed{
		Title:       titlePrefix + product.Name,
		Description: description,
		Color:       colorBlue,
		Fields: []EmbedField{
			{Name: "Price", Value: "$" + product.Price.StringFixed(2), Inline: true},
			{Name: "Quantity Available", Value: fmt.Sprintf("%d", product.QuantityAvailable), Inline: true},
			{Name: "Seller", Value: sellerName, Inline: true},
		},
		Footer:    &EmbedFooter{Text: "Product ID: " + product.ID.String()},
		Timestamp: product.DatePosted.Format(time.RFC3339),
	}
}

// SaleEmbed summarizes a completed purchase for the sales channel.
func SaleEmbed(product *model.Product, buyerName, sellerName string, order *model.ProductOrder, quantitySold int) Embed {
	return Embed{
		Title: "Product Sold: " + product.Name,
		Description: fmt.Sprintf("**%s** has been purchased by **%s** from **%s**.",
			product.Name, buyerName, sellerName),
		Color: colorGreen,
		Fields: []EmbedField{
			{Name: "Product Name", Value: product.Name, Inline: true},
			{Name: "Sale Price", Value: "$" + order.TotalAmount.StringFixed(2), Inline: true},
			{Name: "Quantity Sold", Value: fmt.Sprintf("%d", quantitySold), Inline: true},
			{Name: "Buyer", Value: buyerName, Inline: true},
			{Name: "Seller", Value: sellerName, Inline: true},
			{Name: "Stock Remaining", Value: fmt.Sprintf("%d", product.QuantityAvailable), Inline: true},
		},
		Footer:    &EmbedFooter{Text: fmt.Sprintf("Order ID: %s | Product ID: %s", order.ID, product.ID)},
		Timestamp: order.OrderDate.Format(time.RFC3339),
	}
}
