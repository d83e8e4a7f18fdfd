package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_platform/internal/models"
)

func (r *GormRepo) CreatePost(ctx context.Context, p *models.Post) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.DB.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// IncrementReadCount bumps the counter without racing concurrent readers.
func (r *GormRepo) IncrementReadCount(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("read_count", gorm.Expr("read_count + 1")).Error
}

func (r *GormRepo) ListPosts(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if err := r.DB.WithContext(ctx).Preload("Author").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *GormRepo) UpdatePost(ctx context.Context, p *models.Post) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) SetPostImage(ctx context.Context, id uint, url string) error {
	return r.DB.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).Update("image_url", url).Error
}

func (r *GormRepo) DeletePost(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) ApprovedCommentCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ? AND is_approved = ?", postID, true).Count(&count).Error
	return count, err
}

func (r *GormRepo) LikeCount(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND is_like = ?", postID, true).Count(&count).Error
	return count, err
}
