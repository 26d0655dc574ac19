package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/user-directory/internal/application"
	"github.com/oksasatya/user-directory/internal/domain/apperror"
	"github.com/oksasatya/user-directory/internal/domain/entity"
	repo "github.com/oksasatya/user-directory/internal/domain/repository"
	"github.com/oksasatya/user-directory/pkg/helpers"
	"github.com/oksasatya/user-directory/pkg/response"
)

const (
	defaultPageSize = 10
	maxPictureBytes = 5 << 20
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &UserHandler{Svc: svc, Logger: logger}
}

// List dispatches to the paged and/or sorted listing depending on which query
// parameters are present: page and size select paging, sort selects ordering.
func (h *UserHandler) List(c *gin.Context) {
	page, err := pageFromQuery(c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	sort, err := sortFromQuery(c)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	ctx := c.Request.Context()
	var users []*entity.User
	switch {
	case page != nil && sort != nil:
		users, err = h.Svc.GetAllUsersPagedAndSorted(ctx, *page, *sort)
	case page != nil:
		users, err = h.Svc.GetAllUsersPaged(ctx, *page)
	case sort != nil:
		users, err = h.Svc.GetAllUsersSorted(ctx, *sort)
	default:
		users, err = h.Svc.GetAllUsers(ctx)
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}

	var meta map[string]any
	if page != nil {
		meta = map[string]any{"page": page.Number, "size": page.Size, "count": len(users)}
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "users fetched", meta)
}

func pageFromQuery(c *gin.Context) (*repo.Page, error) {
	rawPage, hasPage := c.GetQuery("page")
	rawSize, hasSize := c.GetQuery("size")
	if !hasPage && !hasSize {
		return nil, nil
	}
	page := repo.Page{Number: 0, Size: defaultPageSize}
	details := map[string]string{}
	if hasPage {
		n, err := strconv.Atoi(rawPage)
		if err != nil {
			details["page"] = "must be an integer"
		}
		page.Number = n
	}
	if hasSize {
		n, err := strconv.Atoi(rawSize)
		if err != nil {
			details["size"] = "must be an integer"
		}
		page.Size = n
	}
	if len(details) > 0 {
		return nil, apperror.ErrValidation.WithMessage("invalid page request").WithDetails(details)
	}
	return &page, nil
}

func sortFromQuery(c *gin.Context) (*repo.Sort, error) {
	field, ok := c.GetQuery("sort")
	if !ok || field == "" {
		return nil, nil
	}
	sort, err := repo.ParseSort(field, c.Query("order"))
	if err != nil {
		return nil, apperror.ErrValidation.WithMessage(err.Error()).WithCause(err)
	}
	return &sort, nil
}

func (h *UserHandler) GetByID(c *gin.Context) {
	u, err := h.Svc.GetUserByID(c.Request.Context(), c.Param("id"))
	h.writeUser(c, http.StatusOK, "user fetched", u, err)
}

func (h *UserHandler) GetByNickname(c *gin.Context) {
	u, err := h.Svc.GetUserByNickname(c.Request.Context(), c.Param("nickname"))
	h.writeUser(c, http.StatusOK, "user fetched", u, err)
}

func (h *UserHandler) GetByEmail(c *gin.Context) {
	u, err := h.Svc.GetUserByEmail(c.Request.Context(), c.Param("email"))
	h.writeUser(c, http.StatusOK, "user fetched", u, err)
}

func (h *UserHandler) Create(c *gin.Context) {
	var in userapp.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badPayload(c, err)
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), in)
	h.writeUser(c, http.StatusCreated, "user created", u, err)
}

func (h *UserHandler) UpdateByID(c *gin.Context) {
	h.update(c, userapp.ByID(c.Param("id")))
}

func (h *UserHandler) UpdateByNickname(c *gin.Context) {
	h.update(c, userapp.ByNickname(c.Param("nickname")))
}

func (h *UserHandler) UpdateByEmail(c *gin.Context) {
	h.update(c, userapp.ByEmail(c.Param("email")))
}

func (h *UserHandler) update(c *gin.Context, key userapp.LookupKey) {
	var in userapp.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badPayload(c, err)
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), key, in)
	h.writeUser(c, http.StatusOK, "user updated", u, err)
}

func (h *UserHandler) DeleteByID(c *gin.Context) {
	h.delete(c, userapp.ByID(c.Param("id")))
}

func (h *UserHandler) DeleteByNickname(c *gin.Context) {
	h.delete(c, userapp.ByNickname(c.Param("nickname")))
}

func (h *UserHandler) DeleteByEmail(c *gin.Context) {
	h.delete(c, userapp.ByEmail(c.Param("email")))
}

func (h *UserHandler) delete(c *gin.Context, key userapp.LookupKey) {
	if err := h.Svc.DeleteUser(c.Request.Context(), key); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "user deleted", nil)
}

func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	users, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "users fetched", map[string]any{"count": len(users)})
}

func (h *UserHandler) UploadPicture(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "file is required", response.ErrorBody{
			Code:    apperror.ErrValidation.Code(),
			Details: map[string]string{"file": "is required"},
		})
		return
	}
	if fh.Size > maxPictureBytes {
		response.Error[any](c, http.StatusBadRequest, "file too large", response.ErrorBody{
			Code:    apperror.ErrValidation.Code(),
			Details: map[string]string{"file": "must be at most 5MB"},
		})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, apperror.ErrService.WithMessage("cannot read upload").WithCause(err))
		return
	}
	defer f.Close()

	u, err := h.Svc.UploadPicture(c.Request.Context(), userapp.ByID(c.Param("id")), f, fh.Filename, fh.Header.Get("Content-Type"))
	h.writeUser(c, http.StatusOK, "picture updated", u, err)
}

func (h *UserHandler) writeUser(c *gin.Context, status int, message string, u *entity.User, err error) {
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, status, toUserResponse(u), message, nil)
}
