/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file contains the contact sidebar listing and profile update handlers.
*/
package handler

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	"sidechat/internal/app/storage"
	"sidechat/internal/pkg/auth/jwt"
	"sidechat/internal/pkg/errs"
	"sidechat/internal/pkg/logx"
	"sidechat/internal/pkg/randx"
	"sidechat/internal/pkg/req"
	"sidechat/internal/pkg/resp"
)

// HandleListContacts returns every user except the caller, for the conversation sidebar.
// Online status is carried separately over the WebSocket presence events.
func HandleListContacts(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		users, err := deps.Store.ListUsersExcept(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "failed to list contacts", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		contacts := make([]map[string]any, 0, len(users))
		for _, u := range users {
			contacts = append(contacts, userJSON(deps, u))
		}

		resp.RespondSuccess(w, r, map[string]any{
			"users": contacts,
		})
	}
}

type UpdateProfileInput struct {
	FullName  string `json:"fullName"`
	AvatarKey string `json:"avatarKey"`
}

// HandleUpdateProfile updates the caller's display name and/or avatar. The avatar
// must already be uploaded through the presign flow; the input carries its object
// key. A replaced avatar object is deleted from storage in the background.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.FullName == "" && input.AvatarKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.FullName != "" && utf8.RuneCountInString(input.FullName) > maxFullNameLen {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidFullName))
			return
		}

		if input.AvatarKey != "" && !randx.IsValidAssetKey(input.AvatarKey, storage.AvatarKeyPrefix) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		oldUser, err := deps.Store.GetUserByID(r.Context(), identity.ID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
			return
		}

		updatedUser, err := deps.Store.UpdateUserProfile(r.Context(), identity.ID, input.FullName, input.AvatarKey)
		if err != nil {
			logx.Error(err, "failed to update user profile", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		oldKey := oldUser.AvatarKey
		if input.AvatarKey != "" && oldKey != "" && oldKey != input.AvatarKey {
			go func(key string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = deps.Storage.Delete(ctx, key)
			}(oldKey)
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": userJSON(deps, updatedUser),
		})
	}
}
