package service

import (
	"github.com/ZKyNetOfficial/zkynet-client/database"
	"github.com/ZKyNetOfficial/zkynet-client/database/model"
)

type UserService struct {
}

func (s *UserService) GetFirstUser() (*model.User, error) {
	db := database.GetDB()
	user := &model.User{}
	err := db.Model(&model.User{}).First(user).Error
	return user, err
}

func (s *UserService) Login(username string, password string) (*model.User, error) {
	db := database.GetDB()
	user := &model.User{}
	err := db.Where("username = ? AND password = ?", username, password).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateFirstUser(username string, password string) error {
	user, err := s.GetFirstUser()
	if err != nil {
		return err
	}
	if username != "" {
		user.Username = username
	}
	if password != "" {
		user.Password = password
	}
	db := database.GetDB()
	return db.Save(user).Error
}
