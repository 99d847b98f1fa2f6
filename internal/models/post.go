package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post is a feed entry. Anonymous (MaskON) posts carry the author's anonymous
// identity and never expose the real user in public output.
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"postID"`
	UserID string `gorm:"type:uuid;not null;index" json:"-"`

	Author      string `gorm:"not null" json:"-"`
	IsAnonymous bool   `gorm:"default:false" json:"isAnonymous"`
	Content     string `gorm:"not null" json:"content"`

	Tags datatypes.JSON `json:"tags"`

	Upvotes   int `gorm:"default:0" json:"upvotes"`
	Downvotes int `gorm:"default:0" json:"downvotes"`

	AnonymousIdentity string `json:"-"`
	AnonymousDetails  string `json:"-"`

	// Set by the moderation service when a post needs review
	Flagged bool `gorm:"default:false" json:"-"`

	Comments []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Votes    []PostVote `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for Post model
func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PublicAuthor is the author view attached to public post output
type PublicAuthor struct {
	UserID            string `json:"userID,omitempty"`
	Username          string `json:"username,omitempty"`
	AnonymousIdentity string `json:"anonymousIdentity,omitempty"`
	Details           string `json:"details,omitempty"`
}

// PublicPost is the feed shape of a post with anonymity applied
type PublicPost struct {
	PostID      string          `json:"postID"`
	User        PublicAuthor    `json:"user"`
	IsAnonymous bool            `json:"isAnonymous"`
	Content     string          `json:"content"`
	Tags        json.RawMessage `json:"tags"`
	Upvotes     int             `json:"upvotes"`
	Downvotes   int             `json:"downvotes"`
	Comments    []PublicComment `json:"comments"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ToPublic converts a post to its feed shape, masking the author when the
// post was made in MaskON mode
func (p *Post) ToPublic() PublicPost {
	out := PublicPost{
		PostID:      p.ID,
		IsAnonymous: p.IsAnonymous,
		Content:     p.Content,
		Tags:        json.RawMessage(p.Tags),
		Upvotes:     p.Upvotes,
		Downvotes:   p.Downvotes,
		Comments:    make([]PublicComment, 0, len(p.Comments)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = json.RawMessage("[]")
	}
	if p.IsAnonymous {
		identity := p.AnonymousIdentity
		if identity == "" {
			identity = "Anonymous"
		}
		out.User = PublicAuthor{AnonymousIdentity: identity, Details: p.AnonymousDetails}
	} else {
		out.User = PublicAuthor{UserID: p.UserID, Username: p.Author}
	}
	for _, c := range p.Comments {
		out.Comments = append(out.Comments, c.ToPublic())
	}
	return out
}

// Comment is a reply on a post; anonymous comments mask the author like posts
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"commentID"`
	PostID string `gorm:"type:uuid;not null;index" json:"-"`
	UserID string `gorm:"type:uuid;not null" json:"-"`

	Author            string `gorm:"not null" json:"-"`
	Content           string `gorm:"not null" json:"content"`
	AnonymousIdentity string `json:"-"`
	AnonymousDetails  string `json:"-"`

	CreatedAt time.Time `json:"timestamp"`
}

// TableName specifies the table name for Comment model
func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// PublicComment is the feed shape of a comment
type PublicComment struct {
	CommentID string       `json:"commentID"`
	User      PublicAuthor `json:"user"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
}

// ToPublic converts a comment to its feed shape with anonymity applied
func (c *Comment) ToPublic() PublicComment {
	out := PublicComment{
		CommentID: c.ID,
		Content:   c.Content,
		Timestamp: c.CreatedAt,
	}
	if c.AnonymousIdentity != "" {
		out.User = PublicAuthor{AnonymousIdentity: c.AnonymousIdentity, Details: c.AnonymousDetails}
	} else {
		out.User = PublicAuthor{UserID: c.UserID, Username: c.Author}
	}
	return out
}

// PostVote tracks one user's vote on a post (+1 or -1), one row per user
type PostVote struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"-"`
	PostID string `gorm:"type:uuid;not null;uniqueIndex:idx_post_vote_user" json:"-"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_post_vote_user" json:"-"`
	Value  int    `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"-"`
}

// TableName specifies the table name for PostVote model
func (PostVote) TableName() string {
	return "post_votes"
}

func (v *PostVote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
