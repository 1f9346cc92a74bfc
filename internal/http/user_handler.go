package http

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/fjod/go_cart/storefront-service/internal/domain"
	"github.com/fjod/go_cart/storefront-service/internal/service"
)

type UserService interface {
	Register(ctx context.Context, reg domain.Registration, avatar *service.Image) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	CurrentUser(ctx context.Context, id domain.Identity) (*domain.User, error)
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register accepts either a JSON body or a multipart form carrying the same
// fields plus an optional "avatar" file.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var (
		req    RegisterRequestDTO
		avatar *service.Image
	)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
		if err := r.ParseMultipartForm(maxImageSize); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
			return
		}
		req = RegisterRequestDTO{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}

		file, header, err := r.FormFile("avatar")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid avatar file")
			return
		default:
			defer file.Close()
			avatar = &service.Image{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Body:        file,
			}
		}
	} else if !decodeBody(w, r, &req) {
		return
	}

	u, token, err := h.users.Register(r.Context(), domain.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, avatar)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{
		User:    toUserDTO(u),
		Token:   token,
		Message: "User registered successfully",
	})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	u, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status, code, _ := errorStatus(err)
		if status == http.StatusUnauthorized {
			respondError(w, status, code, "Invalid email or password")
			return
		}
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AuthResponse{
		User:    toUserDTO(u),
		Token:   token,
		Message: "Login successful",
	})
}

func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	u, err := h.users.CurrentUser(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CurrentUserResponse{
		User:    toUserDTO(u),
		Message: "User fetched successfully",
	})
}
