// Package avatar обрабатывает загрузку аватара пользователя.
package avatar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/models"
)

// maxAvatarSize ограничивает размер загружаемого файла.
const maxAvatarSize = 5 << 20 // 5 MiB

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// AvatarResponse — ответ со ссылкой на загруженный аватар.
type AvatarResponse struct {
	response.Response
	User models.UserInfo `json:"user"`
}

// Service определяет интерфейс сервиса профиля.
type Service interface {
	SetAvatar(ctx context.Context, userUID, avatarURL string) (*models.User, error)
}

// Handler обрабатывает загрузку аватара.
type Handler struct {
	log         *slog.Logger
	userService Service
	uploadDir   string
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, userService Service, uploadDir string) *Handler {
	return &Handler{
		log:         log,
		userService: userService,
		uploadDir:   uploadDir,
	}
}

// ServeHTTP godoc
// @Summary Загрузить аватар
// @Description Принимает multipart-файл "avatar" и сохраняет ссылку в профиле
// @Tags User
// @Accept  mpfd
// @Produce  json
// @Param avatar formData file true "Файл изображения"
// @Success 200 {object} AvatarResponse "Аватар обновлён"
// @Failure 400 {object} response.ErrorResponse "Файл отсутствует или не является изображением"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /user/avatar [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.avatar"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user UID not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		log.Error("failed to read avatar file", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("avatar file is required"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unsupported image format"))
		return
	}

	dir := filepath.Join(h.uploadDir, "avatars")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("failed to create upload directory", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	filename := fmt.Sprintf("%s-%d%s", userUID, time.Now().UnixNano(), ext)
	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		log.Error("failed to create avatar file", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	defer func() {
		_ = dst.Close()
	}()

	if _, err := io.Copy(dst, file); err != nil {
		log.Error("failed to save avatar file", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	avatarURL := fmt.Sprintf("%s://%s/uploads/avatars/%s", scheme, r.Host, filename)

	user, err := h.userService.SetAvatar(r.Context(), userUID, avatarURL)
	if err != nil {
		log.Error("failed to store avatar url", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("avatar uploaded", slog.String("email", user.Email), slog.String("file", filename))
	render.JSON(w, r, AvatarResponse{
		Response: response.OK("avatar updated"),
		User:     user.Info(),
	})
}
