package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/learnchain/learnchain-api/core"
	"github.com/learnchain/learnchain-api/ports"
)

const (
	TopicLogout            = "learnchain.logout"
	TopicRewardGranted     = "learnchain.reward.granted"
	TopicCertificateIssued = "learnchain.certificate.issued"
)

// LogoutEvent notifies other instances that a session was revoked.
type LogoutEvent struct {
	Address   string `json:"address"`
	SessionID string `json:"session_id"`
}

// RewardGrantedEvent announces a newly created reward.
type RewardGrantedEvent struct {
	RewardID string `json:"reward_id"`
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
	Type     string `json:"type"`
	Amount   string `json:"amount"`
}

// CertificateIssuedEvent announces a newly minted certificate.
type CertificateIssuedEvent struct {
	CertificateID    string `json:"certificate_id"`
	UserID           string `json:"user_id"`
	CourseID         string `json:"course_id"`
	VerificationCode string `json:"verification_code"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) publish(topic, id string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.publisher.Publish(topic, message.NewMessage(id, payload)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishLogout publishes a logout event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address, sessionID string) error {
	return p.publish(TopicLogout, sessionID, LogoutEvent{
		Address:   address,
		SessionID: sessionID,
	})
}

// PublishRewardGranted publishes a reward-granted event.
func (p *WatermillPublisher) PublishRewardGranted(ctx context.Context, reward *core.Reward) error {
	return p.publish(TopicRewardGranted, reward.ID, RewardGrantedEvent{
		RewardID: reward.ID,
		UserID:   reward.UserID,
		CourseID: reward.CourseID,
		Type:     string(reward.Type),
		Amount:   reward.Amount.String(),
	})
}

// PublishCertificateIssued publishes a certificate-issued event.
func (p *WatermillPublisher) PublishCertificateIssued(ctx context.Context, cert *core.Certificate) error {
	return p.publish(TopicCertificateIssued, cert.ID, CertificateIssuedEvent{
		CertificateID:    cert.ID,
		UserID:           cert.UserID,
		CourseID:         cert.CourseID,
		VerificationCode: cert.VerificationCode,
	})
}
