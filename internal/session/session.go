// Package session provides anonymous per-device identity and the
// selected-user concept persisted across requests.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/ovasilenko/synchro/internal/store"
)

const (
	// DeviceCookieName identifies a browser/device across requests.
	DeviceCookieName   = "synchro_device_id"
	deviceCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const (
	deviceIDKey contextKey = iota
	selectedUserKey
)

var deviceIDPattern = regexp.MustCompile(`^dev_[a-f0-9]{32}$`)

// DeviceIDFromContext extracts the device ID from the request context.
func DeviceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(deviceIDKey).(string); ok {
		return v
	}
	return ""
}

// SelectedUserFromContext extracts the device's selected user ID from the
// request context, "" if the device has not selected one.
func SelectedUserFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(selectedUserKey).(string); ok {
		return v
	}
	return ""
}

func generateDeviceID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate device id: %w", err)
	}
	return "dev_" + hex.EncodeToString(buf), nil
}

func isValidDeviceID(id string) bool {
	return deviceIDPattern.MatchString(id)
}

func setDeviceCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(deviceCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(deviceCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

func getOrCreateDeviceID(w http.ResponseWriter, r *http.Request, isDev bool) (string, error) {
	if c, err := r.Cookie(DeviceCookieName); err == nil && isValidDeviceID(c.Value) {
		setDeviceCookie(w, c.Value, isDev)
		return c.Value, nil
	}

	id, err := generateDeviceID()
	if err != nil {
		return "", err
	}
	setDeviceCookie(w, id, isDev)
	return id, nil
}

// Middleware injects the anonymous device ID and the device's persisted
// selected user into the request context. A store lookup failure degrades
// to "no selection" rather than failing the request.
func Middleware(repo store.Repository, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, err := getOrCreateDeviceID(w, r, isDev)
			if err != nil {
				http.Error(w, `{"error":"failed to establish device identity"}`, http.StatusInternalServerError)
				return
			}

			selected, err := repo.SelectedUser(r.Context(), deviceID)
			if err != nil {
				slog.Warn("Failed to load device session", "device_id", deviceID, "error", err)
				selected = ""
			}

			ctx := context.WithValue(r.Context(), deviceIDKey, deviceID)
			ctx = context.WithValue(ctx, selectedUserKey, selected)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
