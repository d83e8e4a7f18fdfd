package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_platform/internal/models"
)

// UpsertLike keeps one row per (post, user) and flips is_like in place.
func (r *GormRepo) UpsertLike(ctx context.Context, postID, userID uint, isLike bool) (*models.Like, error) {
	var like models.Like
	err := r.DB.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		like = models.Like{PostID: postID, UserID: userID, IsLike: isLike}
		if err := r.DB.WithContext(ctx).Create(&like).Error; err != nil {
			return nil, err
		}
		return &like, nil
	}
	if err != nil {
		return nil, err
	}

	if like.IsLike != isLike {
		like.IsLike = isLike
		if err := r.DB.WithContext(ctx).Save(&like).Error; err != nil {
			return nil, err
		}
	}
	return &like, nil
}
