package repo

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ninja0404/defi-reputation/internal/model"
)

// ScoreRepo 钱包评分归档仓储接口
type ScoreRepo interface {
	// SaveScore 保存一条评分记录
	SaveScore(record *model.ScoreRecord) error

	// GetLatestScore 查询钱包最近一次评分，不存在时返回nil
	GetLatestScore(walletAddress string) (*model.ScoreRecord, error)

	// CountScores 已归档的评分记录总数
	CountScores() (int64, error)
}

type scoreRepo struct {
	db *gorm.DB
}

// NewScoreRepo 创建评分归档仓储
func NewScoreRepo(db *gorm.DB) ScoreRepo {
	return &scoreRepo{db: db}
}

func (r *scoreRepo) SaveScore(record *model.ScoreRecord) error {
	if err := r.db.Create(record).Error; err != nil {
		return errors.Wrap(err, "保存评分记录失败")
	}
	return nil
}

func (r *scoreRepo) GetLatestScore(walletAddress string) (*model.ScoreRecord, error) {
	var record model.ScoreRecord
	err := r.db.Where("wallet_address = ?", walletAddress).
		Order("scored_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "查询评分记录失败")
	}
	return &record, nil
}

func (r *scoreRepo) CountScores() (int64, error) {
	var count int64
	err := r.db.Model(&model.ScoreRecord{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "统计评分记录失败")
	}
	return count, nil
}
