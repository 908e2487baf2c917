package tweet

// TextRequest is the body of both new tweets and replies.
type TextRequest struct {
	Text string `json:"text" validate:"required,max=280"`
}

type LikeResult struct {
	Liked bool `json:"liked"`
}
