package server

import (
	"time"

	"snapfeed/internal/models"
)

// isoMillis renders timestamps like JavaScript's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

type authorView struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"displayName"`
}

type commentView struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	CreatedAt string     `json:"createdAt"`
	Author    authorView `json:"author"`
}

type postView struct {
	ID             string        `json:"id"`
	ImageURL       string        `json:"imageUrl"`
	Caption        *string       `json:"caption"`
	CreatedAt      string        `json:"createdAt"`
	LikeCount      int64         `json:"likeCount"`
	CommentCount   int64         `json:"commentCount"`
	ViewerHasLiked bool          `json:"viewerHasLiked"`
	Comments       []commentView `json:"comments"`
	Author         authorView    `json:"author"`
}

type profileView struct {
	models.PublicProfile
	Bio               *string    `json:"bio"`
	FollowerCount     int64      `json:"followerCount"`
	FollowingCount    int64      `json:"followingCount"`
	PostCount         int64      `json:"postCount"`
	IsSelf            bool       `json:"isSelf"`
	ViewerFollowsUser bool       `json:"viewerFollowsUser"`
	Posts             []postView `json:"posts"`
}

func isoTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

func presentAuthor(u models.PublicUser) authorView {
	return authorView{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

func presentComment(c models.FeedComment) commentView {
	return commentView{
		ID:        c.ID,
		Content:   c.Content,
		CreatedAt: isoTime(c.CreatedAt),
		Author:    presentAuthor(c.Author),
	}
}

func presentPost(e models.FeedEntry) postView {
	comments := make([]commentView, 0, len(e.RecentComments))
	for _, c := range e.RecentComments {
		comments = append(comments, presentComment(c))
	}
	return postView{
		ID:             e.ID,
		ImageURL:       e.ImageURL,
		Caption:        e.Caption,
		CreatedAt:      isoTime(e.CreatedAt),
		LikeCount:      e.LikeCount,
		CommentCount:   e.CommentCount,
		ViewerHasLiked: e.ViewerHasLiked,
		Comments:       comments,
		Author:         presentAuthor(e.Author),
	}
}

func presentPosts(entries []models.FeedEntry) []postView {
	out := make([]postView, 0, len(entries))
	for _, e := range entries {
		out = append(out, presentPost(e))
	}
	return out
}

func presentProfile(p *models.UserProfile) profileView {
	return profileView{
		PublicProfile:     p.PublicProfile,
		Bio:               p.Bio,
		FollowerCount:     p.FollowerCount,
		FollowingCount:    p.FollowingCount,
		PostCount:         p.PostCount,
		IsSelf:            p.IsSelf,
		ViewerFollowsUser: p.ViewerFollowsUser,
		Posts:             presentPosts(p.Posts),
	}
}
