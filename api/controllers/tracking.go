package controllers

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/marisolvega/funnelmail-backend/internal/tracking"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
)

// transparent 1x1 GIF served for open pixels
var trackingPixel, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

// TrackOpen serves the open pixel. The pixel is always returned; a bad or
// expired token only means no event is recorded. Mail clients must never see
// a broken image.
func TrackOpen(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc != nil {
			if err := svc.RecordOpen(r.Context(), r.URL.Query().Get("t")); err != nil && logg != nil {
				logg.Warn(r.Context(), "open tracking: "+err.Error())
			}
		}
		w.Header().Set("Content-Type", "image/gif")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		w.WriteHeader(http.StatusOK)
		w.Write(trackingPixel)
	}
}

// TrackClick records the click and redirects to the target. The redirect
// happens even when the token is bad; breaking the recipient's link is worse
// than losing one event.
func TrackClick(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := strings.TrimSpace(r.URL.Query().Get("url"))
		if !validRedirectTarget(target) {
			http.Error(w, "invalid redirect target", http.StatusBadRequest)
			return
		}

		if svc != nil {
			if err := svc.RecordClick(r.Context(), r.URL.Query().Get("t"), target); err != nil && logg != nil {
				logg.Warn(r.Context(), "click tracking: "+err.Error())
			}
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// TrackUnsubscribe consumes a signed unsubscribe token and renders a plain
// confirmation page. Unlike opens and clicks this mutates state, so an
// invalid token is rejected.
func TrackUnsubscribe(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if svc == nil {
			writeUnsubscribePage(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
			return
		}

		email, err := svc.Unsubscribe(r.Context(), r.URL.Query().Get("t"))
		if err != nil {
			if logg != nil {
				logg.Warn(r.Context(), "unsubscribe tracking: "+err.Error())
			}
			writeUnsubscribePage(w, http.StatusBadRequest, "This unsubscribe link is invalid or has expired.")
			return
		}
		writeUnsubscribePage(w, http.StatusOK, "You have been unsubscribed. "+email+" will receive no further emails from us.")
	}
}

func validRedirectTarget(target string) bool {
	if target == "" {
		return false
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func writeUnsubscribePage(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	w.Write([]byte(`<!DOCTYPE html><html><head><title>Unsubscribe</title></head>` +
		`<body style="font-family:sans-serif;max-width:480px;margin:80px auto;text-align:center;">` +
		`<p>` + message + `</p></body></html>`))
}
