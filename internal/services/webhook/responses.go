package webhook

import (
	"fmt"
	"sort"
	"strings"

	"bytebowl/internal/models"
)

// Canned replies for outcomes that carry no order data
const (
	msgNewOrder = "Okay! Let's start a new order. Please tell me what you'd like to order."

	msgClarifyItems = "Sorry, I didn't understand. Can you specify food items and their quantities clearly?"

	msgNoOrderFound = "I'm having trouble finding your order. Sorry! Can you place a new order please?"

	msgNoValidItems = "None of the items in your order are on our menu anymore. Can you place a new order please?"

	msgInvalidOrderID = "Invalid or missing order ID. Please try again."

	msgTimeout = "Sorry, that took too long to process. Please try again."

	msgBackendError = "Sorry, I couldn't process your order due to a backend error. Please try again."
)

// foodDictString renders a cart as "2 Pizza, 1 Samosa", sorted by name
func foodDictString(cart map[string]int) string {
	names := make([]string, 0, len(cart))
	for name := range cart {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%d %s", cart[name], name))
	}
	return strings.Join(parts, ", ")
}

// renderAdd builds the reply for an add-items request
func renderAdd(result *models.AddResult) string {
	if len(result.Cart) == 0 {
		if len(result.Skipped) > 0 {
			return fmt.Sprintf("Sorry, I couldn't find %s on our menu. Please choose something else.",
				strings.Join(result.Skipped, ", "))
		}
		return msgNoOrderFound
	}

	text := fmt.Sprintf("So far you have: %s.", foodDictString(result.Cart))
	if len(result.Skipped) > 0 {
		text += fmt.Sprintf(" I couldn't find %s on our menu.", strings.Join(result.Skipped, ", "))
	}
	return text + " Do you need anything else?"
}

// renderRemove builds the reply for a remove-items request
func renderRemove(result *models.RemoveResult) string {
	var text string

	if len(result.Removed) > 0 {
		parts := make([]string, 0, len(result.Removed))
		for _, item := range result.Removed {
			if item.All {
				parts = append(parts, fmt.Sprintf("all %s", item.Name))
			} else {
				parts = append(parts, fmt.Sprintf("%d %s", item.Quantity, item.Name))
			}
		}
		text += fmt.Sprintf("Removed %s from your order!", strings.Join(parts, ", "))
	}

	if len(result.NotFound) > 0 {
		text += fmt.Sprintf(" Your current order does not have %s.", strings.Join(result.NotFound, ", "))
	}

	if len(result.Cart) == 0 {
		text += " Your order is now empty."
	} else {
		text += fmt.Sprintf(" Here is what is left in your order: %s", foodDictString(result.Cart))
	}

	return strings.TrimSpace(text)
}

// renderComplete builds the reply for a successfully placed order
func renderComplete(result *models.FinalizeResult) string {
	return fmt.Sprintf(
		"Your order has been placed successfully! Order ID: %d. Total: %s. Status: In Progress. Please pay at the time of delivery. Thank you!",
		result.OrderID,
		result.Total.StringFixed(2),
	)
}

// renderTrack builds the reply for a track-order request
func renderTrack(result *models.TrackResult) string {
	if !result.Found {
		return fmt.Sprintf("No order found with order id: %d", result.OrderID)
	}
	return fmt.Sprintf("The order status for order id: %d is: %s", result.OrderID, result.Status)
}
