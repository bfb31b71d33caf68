package service

import (
	log "log/slog"

	"Townhall/internal/api/dto"
	"Townhall/internal/model"

	"github.com/jinzhu/copier"
)

func toPostDTO(post *model.Post) *dto.PostDTO {
	if post == nil {
		return nil
	}
	postDTO := &dto.PostDTO{}
	if err := copier.Copy(postDTO, post); err != nil {
		log.Error("copy post failed", "post_id", post.ID.Hex(), "err", err)
	}
	if postDTO.Images == nil {
		postDTO.Images = []string{}
	}
	if postDTO.Videos == nil {
		postDTO.Videos = []string{}
	}
	if postDTO.Tags == nil {
		postDTO.Tags = []string{}
	}
	if postDTO.Comments == nil {
		postDTO.Comments = []model.Comment{}
	}
	if postDTO.Reactions == nil {
		postDTO.Reactions = []model.Reaction{}
	}
	postDTO.ReactionCount = len(post.Reactions)
	postDTO.CommentCount = len(post.Comments)
	return postDTO
}

func toPostDTOs(posts []*model.Post) []*dto.PostDTO {
	out := make([]*dto.PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostDTO(p))
	}
	return out
}

func toUserDTO(user *model.User) *dto.UserDTO {
	userDTO := &dto.UserDTO{}
	if err := copier.Copy(userDTO, user); err != nil {
		log.Error("copy user failed", "user_id", user.ID, "err", err)
	}
	return userDTO
}
