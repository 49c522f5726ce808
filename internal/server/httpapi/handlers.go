// Package httpapi is the HTTP gateway: a chi router that authenticates,
// authorizes and dispatches requests to the services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/logging"
	"github.com/dmitrijs2005/yanplatform/internal/server/guard"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/dmitrijs2005/yanplatform/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes leaves room for a full submission plus document metadata.
const maxBodyBytes = 2 * models.MaxSubmissionBytes

// Presigner issues upload URLs; *services.DocumentService implements it.
type Presigner interface {
	PresignUpload(ctx context.Context, userID, fileName string) (*services.PresignedUpload, error)
}

type Handlers struct {
	users        *services.UserService
	applications *services.ApplicationService
	progress     *services.ProgressService
	documents    Presigner
	guard        *guard.Guard
	log          logging.Logger
	production   bool
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body too large", common.ErrorValidation)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", common.ErrorValidation)
		}
		return fmt.Errorf("%w: invalid json", common.ErrorValidation)
	}
	return nil
}

func identity(r *http.Request) *guard.Identity {
	id, _ := guard.FromContext(r.Context())
	return id
}

// --- auth ---

type registerRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Role         models.Role `json:"role"`
	Organization string      `json:"organization"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.users.Register(r.Context(), services.Registration{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         req.Role,
		Organization: req.Organization,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, user.Public())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	sess, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sess)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		h.writeError(w, r, fmt.Errorf("%w: refreshToken is required", common.ErrorValidation))
		return
	}
	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, pair)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, identity(r).User)
}

// --- applications ---

type submitRequest struct {
	SubmissionData models.SubmissionData `json:"submissionData"`
	Documents      []models.Document     `json:"documents"`
}

func (h *Handlers) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.applications.Submit(r.Context(), identity(r).UserID, req.SubmissionData, req.Documents)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, app)
}

func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.applications.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, apps)
}

// GetApplication lets admins read any application and everyone else only
// their own.
func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.applications.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// Non-owners get the same answer as for a missing id.
	id := identity(r)
	if id.Role != models.RoleAdmin && app.ApplicantID != id.UserID {
		h.writeError(w, r, common.ErrorNotFound)
		return
	}
	writeData(w, http.StatusOK, app)
}

type statusRequest struct {
	Status        models.Status `json:"status"`
	ReviewerNotes string        `json:"reviewerNotes"`
}

func (h *Handlers) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	app, err := h.applications.ReviewTransition(r.Context(), chi.URLParam(r, "id"), identity(r).UserID, req.Status, req.ReviewerNotes)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, app)
}

func (h *Handlers) ApplicationHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.applications.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, events)
}

// --- uploads / progress ---

type presignRequest struct {
	FileName string `json:"fileName"`
}

func (h *Handlers) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	up, err := h.documents.PresignUpload(r.Context(), identity(r).UserID, req.FileName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, up)
}

func (h *Handlers) CompleteResource(w http.ResponseWriter, r *http.Request) {
	p, err := h.progress.MarkCompleted(r.Context(), identity(r).UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (h *Handlers) MyProgress(w http.ResponseWriter, r *http.Request) {
	list, err := h.progress.ListForUser(r.Context(), identity(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeList(w, list)
}

// --- misc ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "YAN Platform API is running"})
}

func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, fmt.Sprintf("route not found: %s %s", r.Method, r.URL.Path))
}

func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, fmt.Sprintf("method not allowed: %s %s", r.Method, r.URL.Path))
}
