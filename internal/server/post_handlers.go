package server

import (
	"snapfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// ListPosts handles GET /api/posts
// @Summary Feed
// @Description Newest posts first, enriched for the viewer when signed in
// @Tags posts
// @Produce json
// @Param authorId query string false "Only posts by this author"
// @Param limit query int false "Page size (1-100, default 20)"
// @Success 200 {object} object{posts=[]postView}
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	entries, err := s.postService.ListFeed(c.UserContext(), service.ListFeedInput{
		Limit:    feedLimit(c),
		AuthorID: c.Query("authorId"),
		ViewerID: viewerID(c),
	})
	if err != nil {
		return respondError(c, err, "Unable to load posts.")
	}
	return c.JSON(fiber.Map{"posts": presentPosts(entries)})
}

// CreatePost handles POST /api/posts
// @Summary Share a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Image reference and optional caption"
// @Success 200 {object} object{post=postView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	entry, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Author:   currentUser(c).Public(),
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	})
	if err != nil {
		return respondError(c, err, "Unable to share post.")
	}
	return c.JSON(fiber.Map{"post": presentPost(*entry)})
}

// ToggleLike handles POST /api/posts/:postId/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} models.LikeToggle
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	res, err := s.postService.ToggleLike(c.UserContext(), c.Params("postId"), viewerID(c))
	if err != nil {
		return respondError(c, err, "Unable to toggle like.")
	}
	return c.JSON(res)
}

// AddComment handles POST /api/posts/:postId/comments
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param postId path string true "Post ID"
// @Param request body addCommentRequest true "Comment"
// @Success 200 {object} object{comment=commentView,commentCount=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{postId}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	var req addCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.postService.AddComment(c.UserContext(), service.AddCommentInput{
		PostID:  c.Params("postId"),
		Author:  currentUser(c).Public(),
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err, "Unable to add comment.")
	}
	return c.JSON(fiber.Map{
		"comment":      presentComment(res.Comment),
		"commentCount": res.CommentCount,
	})
}
