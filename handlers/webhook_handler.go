package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"habitgarden-api/internal/apperr"
)

// UserSyncService is the slice of the user service the provider
// webhook needs to keep the local mirror in step.
type UserSyncService interface {
	UpsertUser(ctx context.Context, id, email, username string, avatarURL *string) error
	DeleteUser(ctx context.Context, id string) error
}

type WebhookHandler struct {
	userService UserSyncService
}

func NewWebhookHandler(userService UserSyncService) *WebhookHandler {
	return &WebhookHandler{userService: userService}
}

type providerEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type providerUserData struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	ImageURL       *string `json:"image_url"`
	EmailAddresses []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
}

// HandleClerkWebhook applies user lifecycle events from the identity
// provider to the local mirror.
func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	if !verifyWebhookSignature(r, body) {
		log.Println("Invalid webhook signature")
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event providerEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		http.Error(w, "Error parsing webhook", http.StatusBadRequest)
		return
	}

	log.Printf("Received webhook event: %s", event.Type)

	ctx := r.Context()
	switch event.Type {
	case "user.created", "user.updated":
		if err := h.syncUser(ctx, event.Data); err != nil {
			log.Printf("Error handling %s: %v", event.Type, err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	case "user.deleted":
		if err := h.removeUser(ctx, event.Data); err != nil {
			log.Printf("Error handling user.deleted: %v", err)
			http.Error(w, "Error processing webhook", http.StatusInternalServerError)
			return
		}

	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

func (h *WebhookHandler) syncUser(ctx context.Context, data json.RawMessage) error {
	var userData providerUserData
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}
	if userData.ID == "" {
		return fmt.Errorf("webhook user data has no id")
	}

	email := ""
	for _, addr := range userData.EmailAddresses {
		if addr.ID == userData.PrimaryEmailAddressID {
			email = addr.EmailAddress
			break
		}
	}
	if email == "" && len(userData.EmailAddresses) > 0 {
		email = userData.EmailAddresses[0].EmailAddress
	}

	username := userData.Username
	if username == "" && email != "" {
		username = strings.SplitN(email, "@", 2)[0]
	}

	return h.userService.UpsertUser(ctx, userData.ID, email, username, userData.ImageURL)
}

func (h *WebhookHandler) removeUser(ctx context.Context, data json.RawMessage) error {
	var userData struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &userData); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	err := h.userService.DeleteUser(ctx, userData.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		// Deletion webhooks can arrive for users never mirrored locally.
		return nil
	}
	return err
}

// verifyWebhookSignature checks the svix-style HMAC-SHA256 signature
// the provider stamps on every delivery.
func verifyWebhookSignature(r *http.Request, body []byte) bool {
	webhookSecret := os.Getenv("CLERK_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Println("CLERK_WEBHOOK_SECRET not set, skipping signature verification")
		return true
	}

	svixID := r.Header.Get("svix-id")
	svixTimestamp := r.Header.Get("svix-timestamp")
	svixSignature := r.Header.Get("svix-signature")
	if svixID == "" || svixTimestamp == "" || svixSignature == "" {
		log.Println("Missing webhook signature headers")
		return false
	}

	signedContent := fmt.Sprintf("%s.%s.%s", svixID, svixTimestamp, body)

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(signedContent))
	expectedSignature := hex.EncodeToString(mac.Sum(nil))

	providedSignature := strings.TrimPrefix(svixSignature, "v1,")
	if providedSignature == svixSignature {
		return false
	}

	return hmac.Equal([]byte(expectedSignature), []byte(providedSignature))
}
