package mapper

import (
	"second-brain-client/internal/dto"
	"second-brain-client/internal/entity"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(d *dto.UserDTO) *entity.User {
	if d == nil {
		return nil
	}
	return &entity.User{
		Id:        d.Id,
		Email:     d.Email,
		Username:  d.Username,
		FullName:  d.Name,
		AvatarURL: d.Picture,
	}
}

func (m *UserMapper) ToDTO(u *entity.User) *dto.UserDTO {
	if u == nil {
		return nil
	}
	return &dto.UserDTO{
		Id:       u.Id,
		Email:    u.Email,
		Username: u.Username,
		Name:     u.FullName,
		Picture:  u.AvatarURL,
	}
}
