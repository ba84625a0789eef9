/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file contains the presigned upload/download handlers for the S3-compatible
asset storage. Clients upload avatars and message images directly to storage and
hand the resulting object key back to the API.
*/
package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"sidechat/internal/app/storage"
	"sidechat/internal/pkg/auth/jwt"
	"sidechat/internal/pkg/errs"
	"sidechat/internal/pkg/randx"
	"sidechat/internal/pkg/req"
	"sidechat/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating an upload URL.
// Kind selects the key namespace: "avatar" or "message".
type PresignUploadInput struct {
	Kind     string `json:"kind"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// HandlePresignUpload creates an HTTP HandlerFunc to generate a time-limited,
// presigned URL for uploading an image, namespaced by its purpose.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var keyPrefix string
		switch input.Kind {
		case "avatar":
			keyPrefix = storage.AvatarKeyPrefix
		case "message":
			keyPrefix = storage.MessageImageKeyPrefix
		default:
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := storage.ValidateImageSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := storage.ValidateImageType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileExt := strings.ToLower(filepath.Ext(input.FileName))
		fileKey := randx.AssetKey(keyPrefix, fileExt)

		url, err := deps.Storage.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			storage.PresignedURLDuration,
		)

		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		})
	}
}

// HandlePresignDownload redirects the caller to a time-limited, presigned download
// URL for the given object key.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !randx.IsValidAssetKey(fileKey, storage.AvatarKeyPrefix) &&
			!randx.IsValidAssetKey(fileKey, storage.MessageImageKeyPrefix) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), fileKey, storage.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
