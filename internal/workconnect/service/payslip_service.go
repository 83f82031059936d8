package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/workconnect/server/internal/workconnect/store"
	"github.com/workconnect/server/internal/workconnect/types"
)

var (
	ErrEmptyPayslip    = errors.New("payslip payload is empty")
	ErrPayslipTooLarge = fmt.Errorf("payslip payload exceeds %d bytes", types.MaxPayslipBytes)
)

// PayslipService stores payslip documents as base64 text and notifies the
// employee about each upload.
type PayslipService struct {
	store  store.PayslipStore
	logger logrus.FieldLogger

	now func() time.Time
}

func NewPayslipService(st store.PayslipStore, logger logrus.FieldLogger) *PayslipService {
	return &PayslipService{store: st, logger: logger, now: time.Now}
}

func (s *PayslipService) Upload(ctx context.Context, userID, periodKey, fileName, contentType string, payload []byte) (*types.Payslip, error) {
	userID = strings.TrimSpace(userID)
	periodKey = strings.TrimSpace(periodKey)
	if userID == "" || periodKey == "" {
		return nil, ErrInvalidRequest
	}
	if len(payload) == 0 {
		return nil, ErrEmptyPayslip
	}
	if len(payload) > types.MaxPayslipBytes {
		return nil, ErrPayslipTooLarge
	}

	now := s.now().UTC()
	p := types.Payslip{
		UserID:      userID,
		PeriodKey:   periodKey,
		FileName:    strings.TrimSpace(fileName),
		ContentType: contentType,
		PayloadB64:  base64.StdEncoding.EncodeToString(payload),
		SizeBytes:   int64(len(payload)),
		UploadedAt:  now,
	}

	notif := &types.Notification{
		ID:    uuid.NewString(),
		Type:  types.NotifPayslipUploaded,
		Title: "New payslip available",
		Body:  "A payslip for " + periodKey + " was uploaded",
		Data: map[string]string{
			"periodKey": periodKey,
		},
		CreatedAt: now,
	}

	if err := s.store.Put(ctx, p, notif); err != nil {
		return nil, err
	}

	meta := p
	meta.PayloadB64 = ""
	return &meta, nil
}

func (s *PayslipService) List(ctx context.Context, userID string) ([]types.Payslip, error) {
	return s.store.List(ctx, userID)
}

func (s *PayslipService) Get(ctx context.Context, userID, periodKey string) (*types.Payslip, error) {
	return s.store.Get(ctx, userID, periodKey)
}
