package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/repository"
)

type PostService interface {
	Create(ctx context.Context, req domain.DispatchRequest) (*domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context, params repository.PostListParams) ([]domain.Post, int64, error)
}

type PostHandler struct {
	service PostService
}

func NewPostHandler(service PostService) (*PostHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("post service is required")
	}
	return &PostHandler{service: service}, nil
}

func RegisterPostRoutes(router fiber.Router, service PostService) error {
	h, err := NewPostHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/posts", h.CreatePost)
	v1.Get("/posts", h.ListPosts)
	v1.Get("/posts/:id", h.GetPost)

	return nil
}

type createPostRequest struct {
	Platforms   []string `json:"platforms"`
	Content     string   `json:"content"`
	Media       []string `json:"media,omitempty"`
	ScheduledAt *string  `json:"scheduledAt,omitempty"`
}

type dispatchErrorResponse struct {
	Kind              string `json:"kind"`
	Message           string `json:"message"`
	RetryAfterSeconds *int64 `json:"retryAfterSeconds,omitempty"`
}

type dispatchResultResponse struct {
	Platform string                 `json:"platform"`
	Success  bool                   `json:"success"`
	RemoteID string                 `json:"id,omitempty"`
	Error    *dispatchErrorResponse `json:"error,omitempty"`
}

type postResponse struct {
	ID          string                   `json:"id"`
	Platforms   []string                 `json:"platforms"`
	Content     string                   `json:"content"`
	Media       []string                 `json:"media,omitempty"`
	Status      string                   `json:"status"`
	ScheduledAt *time.Time               `json:"scheduledAt,omitempty"`
	Results     []dispatchResultResponse `json:"results,omitempty"`
	CreatedAt   time.Time                `json:"createdAt,omitempty"`
}

type listPostsResponse struct {
	Success bool           `json:"success"`
	Data    []postResponse `json:"data"`
	Meta    listMeta       `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	dispatchReq, err := requestToDispatchRequest(req)
	if err != nil {
		return toHTTPError(err)
	}

	post, err := h.service.Create(c.Context(), dispatchReq)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": post.Status != domain.PostStatusFailed,
		"post":    toPostResponse(post),
	})
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	post, err := h.service.Get(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toPostResponse(post))
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	params, err := parsePostListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	posts, total, err := h.service.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]postResponse, 0, len(posts))
	for i := range posts {
		data = append(data, toPostResponse(&posts[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listPostsResponse{
		Success: true,
		Data:    data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parsePostListParams(c *fiber.Ctx) (repository.PostListParams, error) {
	params := repository.PostListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.PostListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.PostListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParsePostStatusFromString(rawStatus)
		if err != nil {
			return repository.PostListParams{}, err
		}
		params.Status = &status
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.PostListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.PostListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func requestToDispatchRequest(req createPostRequest) (domain.DispatchRequest, error) {
	platforms := make([]domain.Platform, 0, len(req.Platforms))
	for _, raw := range req.Platforms {
		platform, err := domain.ParsePlatformFromString(raw)
		if err != nil {
			return domain.DispatchRequest{}, err
		}
		platforms = append(platforms, platform)
	}

	out := domain.DispatchRequest{
		Platforms: platforms,
		Content:   strings.TrimSpace(req.Content),
		Media:     req.Media,
	}

	if req.ScheduledAt != nil && strings.TrimSpace(*req.ScheduledAt) != "" {
		scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.ScheduledAt))
		if err != nil {
			return domain.DispatchRequest{}, fmt.Errorf("%w: scheduledAt must be RFC3339", domain.ErrValidation)
		}
		out.ScheduledAt = &scheduledAt
	}

	return out, nil
}

func toPostResponse(post *domain.Post) postResponse {
	if post == nil {
		return postResponse{}
	}

	platforms := make([]string, 0, len(post.Platforms))
	for _, p := range post.Platforms {
		platforms = append(platforms, p.String())
	}

	results := make([]dispatchResultResponse, 0, len(post.Results))
	for _, result := range post.Results {
		item := dispatchResultResponse{
			Platform: result.Platform.String(),
			Success:  result.Success,
			RemoteID: result.RemoteID,
		}
		if result.Error != nil {
			item.Error = &dispatchErrorResponse{
				Kind:    result.Error.Kind.String(),
				Message: result.Error.Message,
			}
			if result.Error.RetryAfter != nil {
				seconds := int64(result.Error.RetryAfter.Seconds())
				item.Error.RetryAfterSeconds = &seconds
			}
		}
		results = append(results, item)
	}

	return postResponse{
		ID:          post.ID,
		Platforms:   platforms,
		Content:     post.Content,
		Media:       post.Media,
		Status:      post.Status.String(),
		ScheduledAt: post.ScheduledAt,
		Results:     results,
		CreatedAt:   post.CreatedAt,
	}
}
