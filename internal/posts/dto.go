package posts

// CreatePostInput carries a new feed entry.
type CreatePostInput struct {
	Content  string  `json:"content" validate:"required,min=1,max=5000"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
}

// UpdatePostInput carries the editable post fields. Nil means unchanged.
type UpdatePostInput struct {
	Content  *string `json:"content" validate:"omitempty,min=1,max=5000"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
}

// CreateCommentInput carries a new reply on a post.
type CreateCommentInput struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// LikeResult reports the outcome of a like or unlike call.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}
