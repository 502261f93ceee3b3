package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"chat_delivery_service/internal/delivery/domain"
	errprocess "chat_delivery_service/pkg/err"

	"gorm.io/gorm"
)

// ConversationRepository definition conversation + participants
type ConversationRepository interface {
	AutoMigrate() error
	FindByID(ctx context.Context, id int64) (*domain.Conversation, error)
	// Create private pairs are looked up before insert; created is false when an existing pair is returned
	Create(ctx context.Context, req domain.CreateConversation) (conv *domain.Conversation, created bool, err error)
}

type conversationModel struct {
	ID           int64              `gorm:"primaryKey"`
	Kind         string             `gorm:"type:text;not null;index"`
	CreatedAt    time.Time          `gorm:"not null"`
	Participants []participantModel `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func (conversationModel) TableName() string { return "conversations" }

type participantModel struct {
	ConversationID int64  `gorm:"primaryKey"`
	Username       string `gorm:"primaryKey;type:text;index"`
}

func (participantModel) TableName() string { return "conversation_participants" }

func (m *conversationModel) toDomain() *domain.Conversation {
	c := &domain.Conversation{
		ID:        m.ID,
		Kind:      domain.ConversationKind(m.Kind),
		CreatedAt: m.CreatedAt,
	}
	for _, p := range m.Participants {
		c.Participants = append(c.Participants, p.Username)
	}
	sort.Strings(c.Participants)
	return c
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository create ConversationRepository
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&conversationModel{}, &participantModel{})
}

func (r *conversationRepository) FindByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	var m conversationModel
	if err := r.db.WithContext(ctx).Preload("Participants").First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errprocess.Newf(errprocess.KindNotFound, "conversation %d not found", id)
		}
		return nil, errprocess.Wrap(errprocess.KindTransient, err, "find conversation")
	}
	return m.toDomain(), nil
}

func (r *conversationRepository) Create(ctx context.Context, req domain.CreateConversation) (*domain.Conversation, bool, error) {
	if err := req.Normalize(); err != nil {
		return nil, false, err
	}

	var (
		out     conversationModel
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.Kind == domain.ConversationPrivate {
			pair := append([]string(nil), req.Participants...)
			sort.Strings(pair)

			// 同一組 private pair 的建立互斥, 交易結束自動釋放
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "private:"+strings.Join(pair, "|")).Error; err != nil {
				return err
			}

			var existing []conversationModel
			err := tx.Model(&conversationModel{}).
				Joins("JOIN conversation_participants p1 ON p1.conversation_id = conversations.id AND p1.username = ?", pair[0]).
				Joins("JOIN conversation_participants p2 ON p2.conversation_id = conversations.id AND p2.username = ?", pair[1]).
				Where("conversations.kind = ?", string(domain.ConversationPrivate)).
				Preload("Participants").
				Limit(1).
				Find(&existing).Error
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				out = existing[0]
				return nil
			}
		}

		out = conversationModel{Kind: string(req.Kind), CreatedAt: time.Now()}
		for _, p := range req.Participants {
			out.Participants = append(out.Participants, participantModel{Username: p})
		}
		created = true
		return tx.Create(&out).Error
	})
	if err != nil {
		return nil, false, errprocess.Wrap(errprocess.KindTransient, err, "create conversation")
	}
	return out.toDomain(), created, nil
}
