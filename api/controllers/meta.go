package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kythia/dashboard-backend/api/middleware"
	"github.com/kythia/dashboard-backend/api/responses"
	"github.com/kythia/dashboard-backend/internal/botapi"
	pkgerrors "github.com/kythia/dashboard-backend/pkg/errors"
	"github.com/kythia/dashboard-backend/pkg/logger"
)

// botReader is the read-only bot-API surface the public pages consume.
type botReader interface {
	Stats(ctx context.Context) *botapi.Stats
	Commands(ctx context.Context) *botapi.Commands
	Changelog(ctx context.Context) json.RawMessage
	Guilds(ctx context.Context, userID string) []botapi.Guild
	Guild(ctx context.Context, userID, guildID string, full bool) *botapi.Guild
}

// MetaStats serves the landing-page counters, degrading to zeroes when the
// bot is unreachable.
func MetaStats(client botReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := client.Stats(r.Context())
		if stats == nil {
			stats = &botapi.Stats{}
		}
		responses.WriteJSON(w, stats)
	}
}

// MetaCommands serves the public command reference.
func MetaCommands(client botReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commands := client.Commands(r.Context())
		if commands == nil {
			commands = &botapi.Commands{
				Commands:   json.RawMessage("[]"),
				Categories: json.RawMessage("[]"),
			}
		}
		responses.WriteJSON(w, commands)
	}
}

// MetaChangelog serves the release notes feed.
func MetaChangelog(client botReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changelog := client.Changelog(r.Context())
		if changelog == nil {
			changelog = json.RawMessage("[]")
		}
		responses.WriteJSON(w, changelog)
	}
}

// GuildList returns the servers the authenticated user can manage.
func GuildList(client botReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guilds := client.Guilds(r.Context(), middleware.UserIDFromContext(r.Context()))
		if guilds == nil {
			guilds = []botapi.Guild{}
		}
		responses.WriteJSON(w, guilds)
	}
}

// GuildGet returns one server. ?data=all includes the settings payload.
func GuildGet(client botReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guildID := chi.URLParam(r, "id")
		full := r.URL.Query().Get("data") == "all"

		guild := client.Guild(r.Context(), middleware.UserIDFromContext(r.Context()), guildID, full)
		if guild == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Guild not found"))
			return
		}
		responses.WriteJSON(w, guild)
	}
}
